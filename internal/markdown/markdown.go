// Package markdown converts Markdown source text into HTML using goldmark.
// Article bodies come from generative backends, so the output is run
// through a bluemonday sanitizer before it reaches a template.
package markdown

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,         // GitHub-Flavored Markdown: tables, strikethrough, autolinks
		extension.Typographer, // Smart quotes and dashes
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(), // Auto-generate heading IDs for anchors
	),
)

// policy allows the usual formatting elements and nothing executable.
var policy = bluemonday.UGCPolicy()

// ToHTML converts Markdown source into sanitized HTML. Any raw HTML the
// model slipped into the body is stripped by the policy rather than
// trusted.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return policy.Sanitize(buf.String()), nil
}
