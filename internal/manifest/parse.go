package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/plugdex/plugdex/internal/validation"
)

// Parse unmarshals a raw manifest document and validates it. On failure the
// second return value carries one "path: message" diagnostic per violation.
// Validation is all-or-nothing: a single malformed component entry
// invalidates the whole manifest.
func Parse(raw []byte) (*Manifest, []string) {
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, []string{fmt.Sprintf("manifest: invalid JSON: %v", err)}
	}

	if errs := validation.Struct(&m); errs != nil {
		return nil, errs
	}

	return &m, nil
}
