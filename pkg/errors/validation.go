package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateAlias validates an org alias or username supplied on the command line.
//
// The rules are conservative: non-empty, at most 255 characters, and no
// whitespace or control characters. Aliases end up in file paths and
// environment variable names, so anything else is rejected early.
func ValidateAlias(alias string) error {
	if alias == "" {
		return New(ErrCodeInvalidInput, "org alias cannot be empty")
	}
	if len(alias) > 255 {
		return New(ErrCodeInvalidInput, "org alias too long (max 255 characters)")
	}
	for _, r := range alias {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "org alias contains invalid characters: %q", alias)
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// recordIDRegex matches 15 or 18 character platform record ids.
var recordIDRegex = regexp.MustCompile(`^[a-zA-Z0-9]{15}([a-zA-Z0-9]{3})?$`)

// ValidateRecordID checks that id has the shape of a platform record id.
// It is used before ids are interpolated into queries.
func ValidateRecordID(id string) error {
	if !recordIDRegex.MatchString(id) {
		return New(ErrCodeInvalidID, "malformed record id: %q", id)
	}
	return nil
}
