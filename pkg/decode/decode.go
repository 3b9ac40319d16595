// Package decode turns raw request bodies into structured values based on
// their content type.
package decode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"strings"
)

const (
	// ContentTypeForm is the media type GitHub uses for form-encoded deliveries.
	ContentTypeForm = "application/x-www-form-urlencoded"
	// ContentTypeJSON is the media type GitHub uses for JSON deliveries.
	ContentTypeJSON = "application/json"
)

// ParseError reports a body that could not be decoded for its declared content type.
type ParseError struct {
	ContentType string
	Err         error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s body: %v", e.ContentType, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Body decodes a request body according to its Content-Type header.
//
// Form bodies decode to map[string]any holding string or []string values,
// JSON bodies decode to the generic JSON shape with json.Number numbers, and
// any other content type returns the body unchanged as a string.
func Body(contentType string, body []byte) (any, error) {
	switch mediaType(contentType) {
	case ContentTypeForm:
		form, err := Form(string(body))
		if err != nil {
			return nil, err
		}
		return form, nil
	case ContentTypeJSON:
		return JSON(body)
	default:
		return string(body), nil
	}
}

// JSON decodes a JSON document, keeping numbers as json.Number.
func JSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, &ParseError{ContentType: ContentTypeJSON, Err: err}
	}
	if dec.More() {
		return nil, &ParseError{ContentType: ContentTypeJSON, Err: fmt.Errorf("unexpected data after top-level value")}
	}
	return out, nil
}

func mediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	parsed, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(contentType)
	}
	return parsed
}
