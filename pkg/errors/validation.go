package errors

import (
	"net/mail"
	"strings"
	"unicode"
)

// ValidateEmail validates the requester identity sent with remote jobs.
// The remote service mails results to this address and rejects jobs
// without one.
func ValidateEmail(email string) error {
	if email == "" {
		return New(ErrCodeInvalidEmail, "email cannot be empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return Wrap(ErrCodeInvalidEmail, err, "invalid email %q", email)
	}
	if addr.Address != email {
		return New(ErrCodeInvalidEmail, "email must be a bare address: %q", email)
	}
	return nil
}

// ValidatePath validates a file path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateChannel checks that index addresses one of count channels.
func ValidateChannel(index, count int) error {
	if index < 0 || index >= count {
		return New(ErrCodeInvalidChannel, "channel %d out of range (study has %d)", index, count)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
