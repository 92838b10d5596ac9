package render

import (
	"encoding/json"
	"strconv"

	"github.com/PaesslerAG/jsonpath"

	"github.com/restpilot/restpilot/internal/collection"
	"github.com/restpilot/restpilot/internal/contenttype"
)

// applySelector implements spec.md §4.3 step 4: parse value per
// effectiveType (only JSON is required to be supported), evaluate
// selector, and require exactly one result.
func applySelector(effectiveType collection.ContentType, value []byte, selector string) ([]byte, error) {
	if effectiveType != collection.ContentTypeJSON {
		return nil, &ChainError{Kind: ErrUnknownContentType}
	}
	doc, err := contenttype.ParseJSON(value)
	if err != nil {
		return nil, &ChainError{Kind: ErrParseResponse, Inner: err}
	}

	result, err := jsonpath.Get(selector, doc)
	if err != nil {
		return nil, &ChainError{Kind: ErrNoResults, Inner: err}
	}
	if results, ok := result.([]interface{}); ok {
		switch len(results) {
		case 0:
			return nil, &ChainError{Kind: ErrNoResults}
		case 1:
			result = results[0]
		default:
			return nil, &ChainError{Kind: ErrMultipleResults}
		}
	}
	return []byte(stringifyJSON(result)), nil
}

// evaluateJSONPath evaluates selector against a JSON array (for dynamic
// select option filtering), returning the matched elements as an array —
// zero or many results are both legal here, unlike applySelector.
func evaluateJSONPath(arr []interface{}, selector string) ([]interface{}, error) {
	result, err := jsonpath.Get(selector, arr)
	if err != nil {
		return nil, &ChainError{Kind: ErrDynamicSelectDeserialize, Inner: err}
	}
	if results, ok := result.([]interface{}); ok {
		return results, nil
	}
	return []interface{}{result}, nil
}

// stringifyJSON converts a decoded JSON value to its string-bytes form: a
// JSON string becomes its bare contents, other scalars their natural text
// form, and objects/arrays their compact JSON encoding.
func stringifyJSON(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
