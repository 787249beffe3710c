package services

import (
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

var htmlPolicy = bluemonday.UGCPolicy()

// RenderMarkdown converts commentary markdown into sanitized HTML.
func RenderMarkdown(md string) string {
	unsafe := blackfriday.Run([]byte(md))
	return string(htmlPolicy.SanitizeBytes(unsafe))
}
