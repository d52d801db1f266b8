package exchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jrsteele09/coursehub-session/internal/utils"
)

var (
	// ErrRejected matches every *RejectedError.
	ErrRejected = errors.New("credential exchange rejected")
	// ErrUnreachable matches every *UnreachableError.
	ErrUnreachable = errors.New("credential exchange unreachable")
)

// FallbackMessage is shown when a failure carries nothing presentable.
const FallbackMessage = "Oops! Something went wrong, please try again."

// RejectedError is a well-formed error response from the backend: bad
// credentials, validation failures, an invalid refresh token.
type RejectedError struct {
	Op     string
	Status int
	// Detail is the backend's "detail" message, shown verbatim when present.
	Detail string
	Code   string
	// Fields holds per-field messages; FieldOrder keeps the order the backend sent them in.
	Fields     map[string][]string
	FieldOrder []string
	// List holds messages from a bare JSON array payload.
	List []string
}

func (e *RejectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s rejected (%d): %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s rejected (%d)", e.Op, e.Status)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// UnreachableError covers transport failures, timeouts and unusable responses.
type UnreachableError struct {
	Op  string
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

func (e *UnreachableError) Is(target error) bool {
	return target == ErrUnreachable
}

// parseRejection classifies an error body. Unknown shapes still produce a
// RejectedError, just one without presentable messages.
func parseRejection(op string, status int, body []byte) *RejectedError {
	rej := &RejectedError{Op: op, Status: status}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return rej
	}

	switch body[0] {
	case '[':
		var list []any
		if err := json.Unmarshal(body, &list); err == nil {
			rej.List = utils.ToStringSlice(list)
		}
	case '{':
		parseObject(rej, body)
	}
	return rej
}

func parseObject(rej *RejectedError, body []byte) {
	dec := json.NewDecoder(bytes.NewReader(body))
	if _, err := dec.Token(); err != nil {
		return
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return
		}
		key, ok := keyTok.(string)
		if !ok {
			return
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return
		}

		switch key {
		case "detail":
			if s, ok := value.(string); ok {
				rej.Detail = s
				continue
			}
		case "code":
			if s, ok := value.(string); ok {
				rej.Code = s
				continue
			}
		}

		var messages []string
		switch v := value.(type) {
		case []any:
			messages = utils.ToStringSlice(v)
		case string:
			messages = []string{v}
		}
		if len(messages) == 0 {
			continue
		}
		if rej.Fields == nil {
			rej.Fields = make(map[string][]string)
		}
		if _, seen := rej.Fields[key]; !seen {
			rej.FieldOrder = append(rej.FieldOrder, key)
		}
		rej.Fields[key] = append(rej.Fields[key], messages...)
	}
}

// DefaultLabels maps backend field names to the labels shown to people.
var DefaultLabels = map[string]string{
	"email":            "Email Address",
	"password":         "Password",
	"full_name":        "Full Name",
	"password_matched": "Confirm Password",
	"role":             "Role",
}

// Message renders err as text for a person. A nil labels map uses DefaultLabels.
func Message(err error, labels map[string]string) string {
	if labels == nil {
		labels = DefaultLabels
	}

	var rej *RejectedError
	if !errors.As(err, &rej) {
		return FallbackMessage
	}
	if rej.Detail != "" {
		return rej.Detail
	}

	var lines []string
	for _, field := range rej.FieldOrder {
		label, ok := labels[field]
		if !ok {
			label = field
		}
		for _, msg := range rej.Fields[field] {
			lines = append(lines, label+": "+msg)
		}
	}
	if len(lines) == 0 {
		for i, msg := range rej.List {
			lines = append(lines, fmt.Sprintf("Error %d: %s", i+1, msg))
		}
	}
	if len(lines) == 0 {
		return FallbackMessage
	}
	return strings.Join(lines, "\n")
}
