package utils

import "github.com/microcosm-cc/bluemonday"

// postPolicy governs user-authored post titles and bodies: the usual
// user-generated-content allowances (links, formatting, images), scripts and
// event handlers stripped.
var postPolicy = bluemonday.UGCPolicy()

// Sanitize strips disallowed HTML from user-authored text before it is stored.
func Sanitize(input string) string {
	return postPolicy.Sanitize(input)
}
