package validation

import (
	"strings"
	"unicode"

	"github.com/go-git/go-billy/v5"

	"github.com/syncwell/treesync/errors"
)

// MaxConcurrency caps the worker pool size a caller may request.
const MaxConcurrency = 100

// maxStoreIDLength bounds store identifiers; they become key prefixes
// in the backing store.
const maxStoreIDLength = 128

// ValidateStoreID validates a store identifier. Store IDs name a
// remote collection and are embedded into record keys, so they must be
// non-empty, printable, and free of path tricks.
func ValidateStoreID(storeID string) error {
	if storeID == "" {
		return errors.NewValidationError("validateStoreID", "store ID cannot be empty")
	}

	if len(storeID) > maxStoreIDLength {
		return errors.NewValidationError("validateStoreID", "store ID cannot exceed 128 characters")
	}

	if hasControlCharacters(storeID) {
		return errors.NewValidationError("validateStoreID", "store ID cannot contain control characters")
	}

	if strings.Contains(storeID, "..") || strings.HasPrefix(storeID, "/") {
		return errors.NewValidationError("validateStoreID", "store ID cannot contain path traversal sequences")
	}

	return nil
}

// ValidateRoot validates that root names an existing directory on the
// given filesystem.
func ValidateRoot(fsys billy.Filesystem, root string) error {
	if root == "" {
		return errors.NewValidationError("validateRoot", "root cannot be empty")
	}

	info, err := fsys.Stat(root)
	if err != nil {
		return errors.NewError("validateRoot", errors.ErrInvalidInput).
			WithPath(root).
			WithMessage("root does not exist or is not accessible")
	}

	if !info.IsDir() {
		return errors.NewError("validateRoot", errors.ErrInvalidInput).
			WithPath(root).
			WithMessage("root is not a directory")
	}

	return nil
}

// ValidateConcurrency validates a worker pool size.
func ValidateConcurrency(n int) error {
	if n <= 0 {
		return errors.NewConfigError("validateConcurrency", "concurrency must be positive")
	}

	if n > MaxConcurrency {
		return errors.NewConfigError("validateConcurrency", "concurrency cannot exceed 100")
	}

	return nil
}

// ValidateMaxFileSize validates a file size limit. Zero means no limit.
func ValidateMaxFileSize(size int64) error {
	if size < 0 {
		return errors.NewConfigError("validateMaxFileSize", "max file size cannot be negative")
	}

	return nil
}

// SanitizeMetadata sanitizes metadata values before they are attached
// to uploads. Control characters are stripped; store backends embed
// these values into protocol headers where they would otherwise break
// the request.
func SanitizeMetadata(metadata map[string]string) map[string]string {
	if metadata == nil {
		return nil
	}

	sanitized := make(map[string]string, len(metadata))
	for key, value := range metadata {
		sanitized[stripControl(key)] = stripControl(value)
	}

	return sanitized
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func hasControlCharacters(s string) bool {
	for _, char := range s {
		if unicode.IsControl(char) {
			return true
		}
	}
	return false
}
