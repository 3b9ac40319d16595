package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/decode"
)

const (
	// EventHeader carries the GitHub event type.
	EventHeader = "X-GitHub-Event"
	// WorkspaceParam names the query parameter holding the workspace key.
	WorkspaceParam = "workspace"

	payloadField = "payload"
)

// ErrMissingInput reports a request without a required workspace or event header.
var ErrMissingInput = errors.New("missing input")

type missingInputError struct {
	msg string
}

func (e *missingInputError) Error() string { return e.msg }

func (e *missingInputError) Is(target error) bool { return target == ErrMissingInput }

// Workspace returns the workspace query parameter.
func Workspace(r *http.Request) (string, error) {
	workspace := strings.TrimSpace(r.URL.Query().Get(WorkspaceParam))
	if workspace == "" {
		return "", &missingInputError{msg: "no workspace provided"}
	}
	return workspace, nil
}

// EventType returns the GitHub event header, checking the exact key before the lowercased one.
func EventType(r *http.Request) (string, error) {
	if values := r.Header[EventHeader]; len(values) > 0 && values[0] != "" {
		return values[0], nil
	}
	if values := r.Header[strings.ToLower(EventHeader)]; len(values) > 0 && values[0] != "" {
		return values[0], nil
	}
	if value := r.Header.Get(EventHeader); value != "" {
		return value, nil
	}
	return "", &missingInputError{msg: "no github event header provided"}
}

// UnwrapPayload replaces a form delivery with the JSON document in its payload field.
func UnwrapPayload(body any) (any, error) {
	obj, ok := body.(map[string]any)
	if !ok {
		return body, nil
	}
	raw, ok := obj[payloadField]
	if !ok || raw == nil {
		return body, nil
	}
	str, ok := raw.(string)
	if !ok {
		return nil, &decode.ParseError{ContentType: decode.ContentTypeForm, Err: fmt.Errorf("payload field is %T, not a string", raw)}
	}
	if str == "" {
		return body, nil
	}
	return decode.JSON([]byte(str))
}

// RepairPayload percent-decodes and parses the payload field for diagnostics.
// The input is returned unchanged when there is nothing to repair or repair fails.
func RepairPayload(body any) any {
	obj, ok := body.(map[string]any)
	if !ok {
		return body
	}
	str, ok := obj[payloadField].(string)
	if !ok || str == "" {
		return body
	}
	if unescaped, err := url.PathUnescape(str); err == nil {
		str = unescaped
	}
	var parsed any
	if err := json.Unmarshal([]byte(str), &parsed); err != nil {
		return body
	}
	repaired := make(map[string]any, len(obj))
	for key, value := range obj {
		repaired[key] = value
	}
	repaired[payloadField] = parsed
	return repaired
}
