package utils

import (
	"regexp"
	"strings"
)

var illegalNameChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// CleanFileName strips characters that are illegal in file and directory
// names on common filesystems, then trims surrounding whitespace.
func CleanFileName(input string) string {
	cleaned := illegalNameChars.ReplaceAllString(input, "")

	return strings.TrimSpace(cleaned)
}
