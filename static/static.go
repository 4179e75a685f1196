// Package static embeds the documentation assets served under /docs and
// /static, so the binary does not depend on its working directory.
package static

import (
	"embed"
)

// Files holds openapi.html (the docs UI) and openapi.json (the document it
// renders).
//
//go:embed openapi.html openapi.json
var Files embed.FS

const (
	OpenAPIUI       = "openapi.html"
	OpenAPIDocument = "openapi.json"
)
