package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/entity"
	"storefront/internal/workflow"
)

func TestFromResponse_Envelope(t *testing.T) {
	body := `{"success":false,"message":"Validation failed","errors":[
		{"field":"quantity","message":"must be at least 1","rejectedValue":0,"code":"VALIDATION_ERROR"},
		{"message":"general problem","code":"INVALID_INPUT"}
	]}`

	e := FromResponse(http.StatusBadRequest, []byte(body))

	assert.Equal(t, "Validation failed", e.Message)
	assert.Equal(t, []string{"VALIDATION_ERROR", "INVALID_INPUT"}, e.Codes)
	assert.Equal(t, map[string]string{"quantity": "must be at least 1"}, e.FieldMessages())
}

func TestFromResponse_FallsBackToRawBody(t *testing.T) {
	e := FromResponse(http.StatusBadGateway, []byte("<html>bad gateway</html>"))
	assert.Equal(t, "<html>bad gateway</html>", e.Message)

	e = FromResponse(http.StatusServiceUnavailable, nil)
	assert.Equal(t, http.StatusText(http.StatusServiceUnavailable), e.Message)
}

func TestFromGraphQL(t *testing.T) {
	e := FromGraphQL(http.StatusOK, []GraphQLError{
		{Message: "Order not found with id: 9", Extensions: map[string]any{"classification": "NOT_FOUND"}},
	})
	assert.Equal(t, []string{"NOT_FOUND"}, e.Codes)
	assert.Equal(t, CategoryNotFound, Classify(e).Category)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category Category
		message  string
	}{
		{"validation code", &Error{Status: 400, Message: "bad", Codes: []string{CodeValidation}}, CategoryValidation, "bad"},
		{"stock code beats status", &Error{Status: 400, Message: "x", Codes: []string{CodeInsufficientStock}}, CategoryInsufficientStock, "x"},
		{"stock in validation message", &Error{Status: 400, Message: "Insufficient stock for product Desk", Codes: []string{CodeValidation}}, CategoryInsufficientStock, "Insufficient stock for product Desk"},
		{"stock message without code", &Error{Status: 400, Message: "Insufficient stock for product Desk"}, CategoryInsufficientStock, "Insufficient stock for product Desk"},
		{"duplicate", &Error{Status: 409, Message: "Email already exists", Codes: []string{CodeDuplicateEntry}}, CategoryDuplicate, "Email already exists"},
		{"auth failed", &Error{Status: 401, Message: "Bad credentials", Codes: []string{CodeAuthenticationFailed}}, CategoryUnauthorized, "Bad credentials"},
		{"plain 401", &Error{Status: 401, Message: "Unauthorized"}, CategoryUnauthorized, MsgUnauthorized},
		{"plain 404", &Error{Status: 404, Message: "Missing"}, CategoryNotFound, "Missing"},
		{"rate limited", &Error{Status: 429, Codes: []string{CodeRateLimitExceeded}}, CategoryRateLimited, MsgRateLimited},
		{"server error", &Error{Status: 500, Message: "NullPointerException"}, CategoryUnknown, MsgServer},
		{"unclassified 405", &Error{Status: 405, Message: "Request method 'PUT' not supported"}, CategoryUnknown, MsgUnknown},
		{"unclassified 418", &Error{Status: 418, Message: "I'm a teapot"}, CategoryUnknown, MsgUnknown},
		{"graphql error on 200", &Error{Status: 200, Message: "Field 'x' is undefined"}, CategoryUnknown, "Field 'x' is undefined"},
		{"local transition", fmt.Errorf("ship: %w", &workflow.TransitionError{From: entity.OrderStatusPending, Action: workflow.ActionShip}), CategoryInvalidTransition, ""},
		{"not editable", fmt.Errorf("edit: %w", workflow.ErrOrderNotEditable), CategoryInvalidTransition, ""},
		{"local validation", fmt.Errorf("%w: quantity must be at least 1", ErrValidation), CategoryValidation, ""},
		{"deadline", context.DeadlineExceeded, CategoryNetwork, MsgUnreachable},
		{"refused", &url.Error{Op: "Post", URL: "http://x", Err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}}, CategoryNetwork, MsgUnreachable},
		{"dns", &url.Error{Op: "Get", URL: "http://x", Err: &net.DNSError{Err: "no such host", Name: "x"}}, CategoryNetwork, MsgOffline},
		{"anything else", errors.New("boom"), CategoryUnknown, MsgUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.err)
			assert.Equal(t, tt.category, c.Category)
			if tt.message != "" {
				assert.Equal(t, tt.message, c.Message)
			}
			assert.NotEmpty(t, c.Message)
		})
	}
}

type panicky struct{}

func (panicky) Error() string { panic("broken error value") }

func TestClassifyNeverPanics(t *testing.T) {
	require.NotPanics(t, func() {
		c := Classify(panicky{})
		assert.Equal(t, CategoryUnknown, c.Category)
	})
	assert.Equal(t, Classification{}, Classify(nil))
}

func TestPresent(t *testing.T) {
	p := Present(Classification{Category: CategoryValidation, Fields: map[string]string{"rating": "1-5"}}, false)
	assert.True(t, p.Inline)

	p = Present(Classification{Category: CategoryUnauthorized}, false)
	assert.Equal(t, "/login", p.Redirect)
	assert.True(t, p.ClearSession)

	p = Present(Classification{Category: CategoryNetwork}, false)
	assert.True(t, p.Retry)

	p = Present(Classification{Category: CategoryNotFound}, true)
	assert.True(t, p.Retry)
	assert.True(t, p.Notify)

	p = Present(Classification{Category: CategoryDuplicate}, false)
	assert.False(t, p.Retry)
	assert.True(t, p.Notify)
}
