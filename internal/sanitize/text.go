package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

var (
	// strictPolicy removes all HTML tags and attributes. Event fields are
	// rendered as plain text by the mobile client, so nothing richer is kept.
	strictPolicy = bluemonday.StrictPolicy()
)

// Text strips all HTML tags and returns plain text.
// Use for: event names, taglines, descriptions, usernames.
func Text(input string) string {
	return strictPolicy.Sanitize(input)
}

// TextSlice sanitizes each string in a slice, removing all HTML.
func TextSlice(inputs []string) []string {
	if inputs == nil {
		return nil
	}
	sanitized := make([]string, len(inputs))
	for i, input := range inputs {
		sanitized[i] = Text(input)
	}
	return sanitized
}
