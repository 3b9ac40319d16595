package decode

import (
	"net/url"
	"strings"
)

// Form decodes an application/x-www-form-urlencoded body.
//
// Keys seen once map to a string. A repeated key is promoted to a []string
// holding every value in encounter order.
func Form(body string) (map[string]any, error) {
	out := make(map[string]any)
	for _, segment := range strings.Split(body, "&") {
		if segment == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(segment, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, &ParseError{ContentType: ContentTypeForm, Err: err}
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, &ParseError{ContentType: ContentTypeForm, Err: err}
		}
		switch existing := out[key].(type) {
		case nil:
			out[key] = value
		case string:
			out[key] = []string{existing, value}
		case []string:
			out[key] = append(existing, value)
		}
	}
	return out, nil
}
