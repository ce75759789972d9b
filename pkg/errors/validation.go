package errors

import (
	"strings"
	"unicode"
)

// ValidateFamilyName validates a package family name for safety and
// correctness. Family names become directory components under the recipe
// and install roots, so names that could escape those roots are rejected.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, backslash)
//   - Maximum length of 256 characters
func ValidateFamilyName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package family name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package family name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package family name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
		"/",    // Family names are a single path component
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package family name contains invalid characters: %q", pattern)
		}
	}

	return nil
}
