// Package web provides embedded static assets for the public site and
// the studio. In development, templates load Tailwind and HTMX from CDN;
// compiled and vendored files land here for production builds and are
// served at /static/.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree.
//
//go:embed all:static
var StaticFS embed.FS
