package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxIDLength bounds item ids and layout names.
const maxIDLength = 256

// ValidateItemID validates an item id before it is placed on a grid.
// Ids are rendered inside grid cells and used as registry keys, so they must
// be non-empty and free of whitespace and control characters.
func ValidateItemID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "item id cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "item id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "item id contains invalid characters: %q", id)
		}
	}

	return nil
}

// layoutNameRegex matches names usable as store keys, file names and URL segments.
var layoutNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateLayoutName validates a persisted layout name for safety.
// It rejects names that could be used for path traversal in the file store
// or key injection in the network stores.
func ValidateLayoutName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "layout name cannot be empty")
	}

	if len(name) > maxIDLength {
		return New(ErrCodeInvalidInput, "layout name too long (max %d characters)", maxIDLength)
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidInput, "layout name cannot contain path traversal sequences (..)")
	}

	if !layoutNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid layout name: %q", name)
	}

	return nil
}

// ValidateDimensions validates grid dimensions for a new layout.
func ValidateDimensions(rows, cols int) error {
	if rows < 0 {
		return New(ErrCodeInvalidInput, "rows must not be negative, got %d", rows)
	}
	if cols <= 0 {
		return New(ErrCodeInvalidInput, "cols must be positive, got %d", cols)
	}
	return nil
}
