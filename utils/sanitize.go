package utils

import "github.com/microcosm-cc/bluemonday"

// Descriptions are plain text; strip every tag rather than allowing UGC HTML.
var sanitizer = bluemonday.StrictPolicy()

// Sanitize cleans user supplied text to prevent stored XSS.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
