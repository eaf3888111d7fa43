package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds vessel and module names accepted from imported tables.
const maxNameLength = 256

// ValidateVesselName validates a vessel name read from an imported table.
// Vessel names double as node ids and as remote endpoint names on ports, so
// they must be non-empty, free of whitespace (the inp_vessels/out_vessels
// fields are whitespace separated) and free of control characters.
func ValidateVesselName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "vessel name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidInput, "vessel name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "vessel name %q contains control characters", name)
		}
		if unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "vessel name %q contains whitespace", name)
		}
	}

	return nil
}

// ValidateModuleKey validates the two halves of a composite module key.
// The separator "::" is reserved and may not appear in either half.
func ValidateModuleKey(file, componentName string) error {
	if file == "" {
		return New(ErrCodeInvalidCatalog, "module file cannot be empty")
	}
	if componentName == "" {
		return New(ErrCodeInvalidCatalog, "module type cannot be empty")
	}
	if strings.Contains(file, "::") || strings.Contains(componentName, "::") {
		return New(ErrCodeInvalidCatalog, "module key %s::%s contains reserved separator", file, componentName)
	}
	return nil
}
