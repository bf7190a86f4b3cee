package database

import "embed"

// EmbeddedMigrations contains all SQL migration files embedded into the
// binary, so the server never depends on external files at runtime.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS
