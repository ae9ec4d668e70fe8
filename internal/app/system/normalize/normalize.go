// Package normalize canonicalizes user-supplied identity fields before they
// are stored or used in lookups, so that comparisons are case-insensitive
// and whitespace-insensitive in one place.
package normalize

import "strings"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Username trims and lowercases a username.
func Username(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name. Case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role trims and lowercases a global role.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
