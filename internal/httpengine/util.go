package httpengine

import (
	"encoding/base64"
	"net/url"
)

func basicAuthValue(user, pass string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
}

func queryEscape(s string) string {
	return url.QueryEscape(s)
}
