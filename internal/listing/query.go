// Package listing implements the filter, sort and pagination contract shared by
// every list view (orders, products, users, audit logs).
package listing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"storefront/internal/entity"
)

const (
	DefaultSize = 10
	MaxSize     = 100
)

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection accepts any casing and falls back when s is neither ASC nor DESC.
func ParseDirection(s string, fallback Direction) Direction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(Asc):
		return Asc
	case string(Desc):
		return Desc
	}
	return fallback
}

func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// Filter holds the optional criteria of a list view. Zero values mean "not set".
type Filter struct {
	Search        string     `json:"search,omitempty"`
	Status        string     `json:"status,omitempty"`
	PaymentStatus string     `json:"paymentStatus,omitempty"`
	CategoryID    *int       `json:"categoryId,omitempty"`
	UserID        *int       `json:"userId,omitempty"`
	Username      string     `json:"username,omitempty"`
	EventType     string     `json:"eventType,omitempty"`
	StartDate     *time.Time `json:"startDate,omitempty"`
	EndDate       *time.Time `json:"endDate,omitempty"`
}

func (f Filter) IsZero() bool {
	return f.Search == "" && f.Status == "" && f.PaymentStatus == "" && f.CategoryID == nil &&
		f.UserID == nil && f.Username == "" && f.EventType == "" && f.StartDate == nil && f.EndDate == nil
}

func (f Filter) HasDateRange() bool {
	return f.StartDate != nil && f.EndDate != nil
}

func (f Filter) key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "q=%s|s=%s|ps=%s|u=%s|e=%s", f.Search, f.Status, f.PaymentStatus, f.Username, f.EventType)
	if f.CategoryID != nil {
		fmt.Fprintf(&b, "|c=%d", *f.CategoryID)
	}
	if f.UserID != nil {
		fmt.Fprintf(&b, "|uid=%d", *f.UserID)
	}
	if f.StartDate != nil {
		fmt.Fprintf(&b, "|from=%d", f.StartDate.Unix())
	}
	if f.EndDate != nil {
		fmt.Fprintf(&b, "|to=%d", f.EndDate.Unix())
	}
	return b.String()
}

// Query is the full request state of a list view.
type Query struct {
	Filter    Filter    `json:"filter"`
	Page      int       `json:"page"`
	Size      int       `json:"size"`
	SortBy    string    `json:"sortBy"`
	Direction Direction `json:"sortDirection"`
}

func OrderQuery() Query {
	return Query{Size: DefaultSize, SortBy: "orderDate", Direction: Desc}
}

func ProductQuery() Query {
	return Query{Size: DefaultSize, SortBy: "id", Direction: Asc}
}

func UserQuery() Query {
	return Query{Size: DefaultSize, SortBy: "id", Direction: Asc}
}

func AuditLogQuery() Query {
	return Query{Size: 20, SortBy: "timestamp", Direction: Desc}
}

// SetFilter replaces the filter. The page goes back to 0 so the next request
// never points past the end of the new result set.
func (q *Query) SetFilter(f Filter) {
	q.Filter = f
	q.Page = 0
}

// UpdateFilter changes individual filter fields and resets the page.
func (q *Query) UpdateFilter(fn func(*Filter)) {
	fn(&q.Filter)
	q.Page = 0
}

func (q *Query) ClearFilter() {
	q.SetFilter(Filter{})
}

func (q *Query) SetSort(field string, dir Direction) {
	q.SortBy = field
	q.Direction = dir
	q.Page = 0
}

// ToggleSort flips the direction when field is already the sort key, otherwise
// sorts ascending by field.
func (q *Query) ToggleSort(field string) {
	if q.SortBy == field {
		q.SetSort(field, q.Direction.Flip())
		return
	}
	q.SetSort(field, Asc)
}

func (q *Query) SetSize(size int) {
	q.Size = size
	q.Page = 0
	*q = q.Normalize()
}

// Next advances one page unless info says this is the last one.
func (q *Query) Next(info PageInfo) bool {
	if !info.HasNext() {
		return false
	}
	q.Page = info.Page + 1
	return true
}

func (q *Query) Previous(info PageInfo) bool {
	if !info.HasPrevious() {
		return false
	}
	q.Page = info.Page - 1
	return true
}

// GoTo jumps to page, clamped to the pages info reports.
func (q *Query) GoTo(page int, info PageInfo) {
	switch {
	case page < 0:
		page = 0
	case page > info.LastPage():
		page = info.LastPage()
	}
	q.Page = page
}

// Normalize clamps page and size into the range the backend accepts.
func (q Query) Normalize() Query {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 {
		q.Size = DefaultSize
	}
	if q.Size > MaxSize {
		q.Size = MaxSize
	}
	if q.Direction == "" {
		q.Direction = Asc
	}
	return q
}

// Fingerprint identifies the filter, sort and size a page was computed for.
func (q Query) Fingerprint() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|sort=%s:%s|size=%d", q.Filter.key(), q.SortBy, q.Direction, q.Size)))
	return hex.EncodeToString(sum[:8])
}

// Reconcile resets the page when the caller's previous fingerprint no longer
// matches, i.e. the filter or sort changed since the page index was chosen.
func Reconcile(q Query, previous string) Query {
	if previous != "" && previous != q.Fingerprint() {
		q.Page = 0
	}
	return q
}

// PageInfo is the page metadata returned with every list.
type PageInfo struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

func FromPage[T any](p *entity.Page[T]) PageInfo {
	return PageInfo{
		Page:          p.Number,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
	}
}

func (p PageInfo) LastPage() int {
	if p.TotalPages <= 0 {
		return 0
	}
	return p.TotalPages - 1
}

func (p PageInfo) HasPrevious() bool {
	return p.Page > 0
}

func (p PageInfo) HasNext() bool {
	return p.Page < p.TotalPages-1
}

// Controls is what the pagination bar renders.
type Controls struct {
	PreviousDisabled bool `json:"previousDisabled"`
	NextDisabled     bool `json:"nextDisabled"`
}

func (p PageInfo) Controls() Controls {
	return Controls{
		PreviousDisabled: !p.HasPrevious(),
		NextDisabled:     !p.HasNext(),
	}
}
