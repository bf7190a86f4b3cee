// Package validation provides shared struct validation with human-readable
// field-path diagnostics.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// versionPattern accepts plain MAJOR.MINOR.PATCH versions only, no
// pre-release or build suffixes.
var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Global validator instance
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON field names instead of Go struct field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Strict three-part version, e.g. "1.0.0"
	v.RegisterValidation("plugin_version", func(fl validator.FieldLevel) bool {
		return versionPattern.MatchString(fl.Field().String())
	})

	return v
}

// Struct validates v and returns a list of "path: message" diagnostics,
// or nil when v is valid.
func Struct(v any) []string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	errs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		errs = append(errs, fmt.Sprintf("%s: %s", fieldPath(e), message(e)))
	}
	return errs
}

// fieldPath strips the top-level struct name from the namespace so errors
// read "author.name" rather than "Manifest.author.name".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// message creates human-readable error messages per validation tag
func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		return fmt.Sprintf("must be at most %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be %s or greater", e.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "eq":
		return fmt.Sprintf("must equal %q", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "plugin_version":
		return "must be a version of the form MAJOR.MINOR.PATCH"
	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}
