package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize keeps a safe subset of HTML, for rich text such as benefit details.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}

// PlainText strips all markup and surrounding whitespace, for single-line form fields.
func PlainText(input string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(input))
}
