// Package web holds the static chat page.
package web

import _ "embed"

// IndexHTML is the single-page chat UI served at /.
//
//go:embed index.html
var IndexHTML string
