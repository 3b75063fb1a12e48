// Package apierr turns backend failures into a small set of categories the
// views know how to present.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes the backend puts in its error envelope.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	CodeDuplicateEntry       = "DUPLICATE_ENTRY"
	CodeDuplicateValue       = "DUPLICATE_VALUE"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeMalformedJSON        = "MALFORMED_JSON"
	CodeMissingField         = "MISSING_REQUIRED_FIELD"
	CodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	CodeInvalidTransition    = "INVALID_STATUS_TRANSITION"
)

// Local failures other packages wrap so they classify without a backend round trip.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access denied")
)

const maxBodyMessage = 512

type FieldError struct {
	Field         string `json:"field,omitempty"`
	Message       string `json:"message"`
	RejectedValue any    `json:"rejectedValue,omitempty"`
	Code          string `json:"code,omitempty"`
}

// Error is a failed backend call, REST or GraphQL.
type Error struct {
	Status  int
	Message string
	Codes   []string
	Fields  []FieldError
}

// Invalid is a field error detected before anything was sent.
func Invalid(field, message string) *Error {
	return &Error{
		Message: message,
		Codes:   []string{CodeValidation},
		Fields:  []FieldError{{Field: field, Message: message, Code: CodeValidation}},
	}
}

func (e *Error) Error() string {
	if e.Status == 0 && len(e.Fields) > 0 {
		return e.Fields[0].Field + ": " + e.Message
	}
	if e.Status != 0 {
		return fmt.Sprintf("backend error %d: %s", e.Status, e.Message)
	}
	return "backend error: " + e.Message
}

func (e *Error) HasCode(codes ...string) bool {
	for _, have := range e.Codes {
		for _, want := range codes {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

// FieldMessages maps field names to their messages. Errors without a field are skipped.
func (e *Error) FieldMessages() map[string]string {
	if len(e.Fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field != "" {
			out[f.Field] = f.Message
		}
	}
	return out
}

type envelope struct {
	Success *bool        `json:"success"`
	Message string       `json:"message"`
	Error   string       `json:"error"`
	Code    string       `json:"code"`
	Errors  []FieldError `json:"errors"`
}

// FromResponse builds an Error from a non-success response. It never fails:
// a body that is not the backend envelope becomes the message as-is.
func FromResponse(status int, body []byte) *Error {
	e := &Error{Status: status}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		e.Message = env.Message
		if e.Message == "" {
			e.Message = env.Error
		}
		if env.Code != "" {
			e.Codes = append(e.Codes, env.Code)
		}
		for _, fe := range env.Errors {
			e.Fields = append(e.Fields, fe)
			if fe.Code != "" && !e.HasCode(fe.Code) {
				e.Codes = append(e.Codes, fe.Code)
			}
		}
	} else {
		e.Message = strings.TrimSpace(string(body))
		if len(e.Message) > maxBodyMessage {
			e.Message = e.Message[:maxBodyMessage]
		}
	}

	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// GraphQLError is one entry of a GraphQL response's errors array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (g GraphQLError) extension(key string) string {
	if v, ok := g.Extensions[key].(string); ok {
		return v
	}
	return ""
}

// FromGraphQL folds GraphQL errors into one Error. The classification
// extension (NOT_FOUND, BAD_REQUEST, ...) becomes a code.
func FromGraphQL(status int, errs []GraphQLError) *Error {
	e := &Error{Status: status}
	msgs := make([]string, 0, len(errs))
	for _, g := range errs {
		if g.Message != "" {
			msgs = append(msgs, g.Message)
		}
		for _, key := range []string{"classification", "code"} {
			if c := g.extension(key); c != "" && !e.HasCode(c) {
				e.Codes = append(e.Codes, c)
			}
		}
		if field := g.extension("field"); field != "" {
			e.Fields = append(e.Fields, FieldError{Field: field, Message: g.Message})
		}
	}
	e.Message = strings.Join(msgs, "; ")
	if e.Message == "" {
		e.Message = "GraphQL request failed"
	}
	return e
}
