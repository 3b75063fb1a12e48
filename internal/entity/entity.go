package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidEntity marks a payload that breaks a data-model invariant.
var ErrInvalidEntity = errors.New("invalid entity")

var cent = decimal.New(1, -2)

func init() {
	// The backend reads and writes amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

const localDateTime = "2006-01-02T15:04:05"

var timestampLayouts = []string{
	time.RFC3339Nano,
	localDateTime,
	"2006-01-02",
}

// Timestamp accepts the backend's zone-less ISO date-times as well as RFC 3339.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("%w: unrecognised timestamp %q", ErrInvalidEntity, s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(localDateTime) + `"`), nil
}

// Page is the backend's paginated list shape.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// Validate checks every element that knows how to validate itself.
func (p *Page[T]) Validate() error {
	for i := range p.Content {
		if v, ok := any(&p.Content[i]).(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}
