// Package contenttype detects and parses the small set of content types the
// engine cares about structurally (spec.md §4.3: chain source content-type
// detection for selector evaluation).
package contenttype

import (
	"encoding/json"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/restpilot/restpilot/internal/collection"
)

// FromExtension guesses a content type from a file path's extension, for
// File chain sources.
func FromExtension(path string) (collection.ContentType, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return collection.ContentTypeJSON, true
	default:
		return "", false
	}
}

// FromHeader guesses a content type from a response's Content-Type header
// value, for Request chain sources.
func FromHeader(header string) (collection.ContentType, bool) {
	if header == "" {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(header, ";", 2)[0])
	}
	switch strings.ToLower(mediaType) {
	case "application/json":
		return collection.ContentTypeJSON, true
	case "text/json":
		return collection.ContentTypeJSON, true
	default:
		if strings.HasSuffix(mediaType, "+json") {
			return collection.ContentTypeJSON, true
		}
		return "", false
	}
}

// ParseJSON parses raw bytes as JSON into a generic tree suitable for
// JSONPath evaluation (map[string]interface{}, []interface{}, or scalars).
func ParseJSON(raw []byte) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return v, nil
}
