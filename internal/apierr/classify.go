package apierr

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"storefront/internal/listing"
	"storefront/internal/workflow"
)

type Category string

const (
	CategoryValidation        Category = "validation"
	CategoryNotFound          Category = "not_found"
	CategoryUnauthorized      Category = "unauthorized"
	CategoryForbidden         Category = "forbidden"
	CategoryDuplicate         Category = "duplicate"
	CategoryInsufficientStock Category = "insufficient_stock"
	CategoryInvalidTransition Category = "invalid_transition"
	CategoryNetwork           Category = "network"
	CategoryRateLimited       Category = "rate_limited"
	CategoryUnknown           Category = "unknown"
)

const (
	MsgUnknown      = "An unknown error occurred"
	MsgUnreachable  = "Unable to connect to server. Please try again later."
	MsgOffline      = "You appear to be offline. Please check your internet connection."
	MsgServer       = "Server error. Please try again later."
	MsgUnauthorized = "Your session has expired. Please log in again."
	MsgForbidden    = "You do not have permission to perform this action."
	MsgRateLimited  = "Too many requests. Please wait a moment and try again."
)

// Classification is what a view needs to present a failure.
type Classification struct {
	Category Category          `json:"category"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fieldErrors,omitempty"`
	Status   int               `json:"-"`
}

// Classify maps any error to a category. Codes win over local sentinels,
// which win over message keywords, then HTTP status, then transport errors.
// It never panics.
func Classify(err error) (c Classification) {
	if err == nil {
		return Classification{}
	}
	defer func() {
		if r := recover(); r != nil {
			c = Classification{Category: CategoryUnknown, Message: MsgUnknown}
		}
	}()

	var apiErr *Error
	if errors.As(err, &apiErr) {
		c.Status = apiErr.Status
		c.Message = apiErr.Message
		c.Fields = apiErr.FieldMessages()
		if cat, ok := byCode(apiErr); ok {
			// Stock shortages are raised as validation errors; the message tells them apart.
			if kw, _ := byKeyword(apiErr.Message); cat == CategoryValidation && kw == CategoryInsufficientStock {
				cat = kw
			}
			c.Category = cat
			return finish(c)
		}
	}

	if cat, ok := bySentinel(err); ok {
		c.Category = cat
		if c.Message == "" {
			c.Message = err.Error()
		}
		return finish(c)
	}

	msg := err.Error()
	if apiErr != nil {
		msg = apiErr.Message
	}
	if cat, ok := byKeyword(msg); ok {
		c.Category = cat
		if c.Message == "" {
			c.Message = msg
		}
		return finish(c)
	}

	if apiErr != nil {
		c.Category = byStatus(apiErr.Status)
		return finish(c)
	}

	if cat, m, ok := byTransport(err); ok {
		c.Category = cat
		c.Message = m
		return c
	}

	return Classification{Category: CategoryUnknown, Message: MsgUnknown}
}

func byCode(e *Error) (Category, bool) {
	switch {
	case e.HasCode(CodeInsufficientStock):
		return CategoryInsufficientStock, true
	case e.HasCode(CodeInvalidTransition):
		return CategoryInvalidTransition, true
	case e.HasCode(CodeUnauthorized, CodeAuthenticationFailed, "UNAUTHENTICATED"):
		return CategoryUnauthorized, true
	case e.HasCode("FORBIDDEN"):
		return CategoryForbidden, true
	case e.HasCode(CodeDuplicateEntry, CodeDuplicateValue):
		return CategoryDuplicate, true
	case e.HasCode(CodeNotFound):
		return CategoryNotFound, true
	case e.HasCode(CodeRateLimitExceeded):
		return CategoryRateLimited, true
	case e.HasCode(CodeValidation, CodeMalformedJSON, CodeMissingField, "BAD_REQUEST"):
		return CategoryValidation, true
	}
	for _, code := range e.Codes {
		if strings.HasPrefix(strings.ToUpper(code), "INVALID_") {
			return CategoryValidation, true
		}
	}
	return "", false
}

func bySentinel(err error) (Category, bool) {
	switch {
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, workflow.ErrOrderNotEditable):
		return CategoryInvalidTransition, true
	case errors.Is(err, ErrUnauthenticated):
		return CategoryUnauthorized, true
	case errors.Is(err, ErrForbidden):
		return CategoryForbidden, true
	case errors.Is(err, ErrNotFound):
		return CategoryNotFound, true
	case errors.Is(err, ErrValidation), errors.Is(err, workflow.ErrUnknownAction), errors.Is(err, listing.ErrBadParam):
		return CategoryValidation, true
	}
	return "", false
}

// byKeyword catches backend exceptions that only say what happened in the
// message, e.g. "Insufficient stock for product X" raised as a validation error.
func byKeyword(msg string) (Category, bool) {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "insufficient stock"), strings.Contains(m, "out of stock"):
		return CategoryInsufficientStock, true
	case strings.Contains(m, "status transition"), strings.Contains(m, "cannot transition"):
		return CategoryInvalidTransition, true
	case strings.Contains(m, "already exists"), strings.Contains(m, "duplicate"):
		return CategoryDuplicate, true
	case strings.Contains(m, "not found"):
		return CategoryNotFound, true
	case strings.Contains(m, "rate limit"):
		return CategoryRateLimited, true
	}
	return "", false
}

func byStatus(status int) Category {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return CategoryValidation
	case status == http.StatusUnauthorized:
		return CategoryUnauthorized
	case status == http.StatusForbidden:
		return CategoryForbidden
	case status == http.StatusNotFound:
		return CategoryNotFound
	case status == http.StatusConflict:
		return CategoryDuplicate
	case status == http.StatusTooManyRequests:
		return CategoryRateLimited
	}
	return CategoryUnknown
}

func byTransport(err error) (Category, string, bool) {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CategoryNetwork, MsgOffline, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return CategoryNetwork, MsgUnreachable, true
	}
	return "", "", false
}

// finish fills in messages the backend left empty or unhelpful.
func finish(c Classification) Classification {
	switch c.Category {
	case CategoryUnauthorized:
		if c.Message == "" || strings.EqualFold(c.Message, http.StatusText(http.StatusUnauthorized)) {
			c.Message = MsgUnauthorized
		}
	case CategoryForbidden:
		if c.Message == "" || strings.EqualFold(c.Message, http.StatusText(http.StatusForbidden)) {
			c.Message = MsgForbidden
		}
	case CategoryRateLimited:
		if c.Message == "" {
			c.Message = MsgRateLimited
		}
	case CategoryUnknown:
		switch {
		case c.Status >= http.StatusInternalServerError:
			c.Message = MsgServer
		case c.Status < http.StatusOK || c.Status >= http.StatusMultipleChoices:
			c.Message = MsgUnknown
		}
	}
	if c.Message == "" {
		c.Message = MsgUnknown
	}
	return c
}

// Is reports whether err classifies as cat.
func Is(err error, cat Category) bool {
	return err != nil && Classify(err).Category == cat
}
