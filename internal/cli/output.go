package cli

import (
	"strings"

	"github.com/tidwall/pretty"
)

// formatBody indents body for terminal display when contentType names a
// JSON payload, matching what a developer expects from a request/response
// inspector; any other content type is printed as-is.
func formatBody(contentType string, body []byte) string {
	if strings.Contains(strings.ToLower(contentType), "json") {
		return string(pretty.Pretty(body))
	}
	return string(body)
}
