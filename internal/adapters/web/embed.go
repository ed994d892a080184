// Package web serves a small local HTTP surface for a running chat session:
// Prometheus metrics, a JSON API over saved recipes and sessions, and an
// embedded recipe page. Binds to localhost by default. There is no auth.
package web

import "embed"

//go:embed static/index.html
var staticFS embed.FS
