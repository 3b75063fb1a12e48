package listing

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrBadParam is returned for list query parameters that do not parse.
var ErrBadParam = errors.New("invalid list parameter")

// FromValues overlays browser query parameters on a preset. A "fp" parameter
// carrying the fingerprint the browser last saw resets the page when the
// filter or sort has changed since.
func FromValues(base Query, v url.Values) (Query, error) {
	q := base
	var err error

	if s := v.Get("page"); s != "" {
		if q.Page, err = strconv.Atoi(s); err != nil {
			return base, fmt.Errorf("%w: page %q", ErrBadParam, s)
		}
	}
	if s := v.Get("size"); s != "" {
		if q.Size, err = strconv.Atoi(s); err != nil {
			return base, fmt.Errorf("%w: size %q", ErrBadParam, s)
		}
	}
	if s := v.Get("sortBy"); s != "" {
		q.SortBy = s
	}
	if s := v.Get("sortDirection"); s != "" {
		q.Direction = ParseDirection(s, q.Direction)
	}

	f := &q.Filter
	f.Search = strings.TrimSpace(v.Get("search"))
	f.Status = strings.TrimSpace(v.Get("status"))
	f.PaymentStatus = strings.TrimSpace(v.Get("paymentStatus"))
	f.Username = strings.TrimSpace(v.Get("username"))
	f.EventType = strings.TrimSpace(v.Get("eventType"))
	if f.CategoryID, err = parseInt(v.Get("categoryId")); err != nil {
		return base, err
	}
	if f.UserID, err = parseInt(v.Get("userId")); err != nil {
		return base, err
	}
	if f.StartDate, err = parseDate(v.Get("startDate")); err != nil {
		return base, err
	}
	if f.EndDate, err = parseDate(v.Get("endDate")); err != nil {
		return base, err
	}
	if f.HasDateRange() && f.EndDate.Before(*f.StartDate) {
		return base, fmt.Errorf("%w: endDate before startDate", ErrBadParam)
	}

	return Reconcile(q.Normalize(), v.Get("fp")), nil
}

// Values is the inverse of FromValues, used to build links for the browser.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("size", strconv.Itoa(q.Size))
	v.Set("sortBy", q.SortBy)
	v.Set("sortDirection", string(q.Direction))
	v.Set("fp", q.Fingerprint())
	f := q.Filter
	for key, val := range map[string]string{
		"search":        f.Search,
		"status":        f.Status,
		"paymentStatus": f.PaymentStatus,
		"username":      f.Username,
		"eventType":     f.EventType,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}
	if f.CategoryID != nil {
		v.Set("categoryId", strconv.Itoa(*f.CategoryID))
	}
	if f.UserID != nil {
		v.Set("userId", strconv.Itoa(*f.UserID))
	}
	if f.StartDate != nil {
		v.Set("startDate", f.StartDate.Format(backendTime))
	}
	if f.EndDate != nil {
		v.Set("endDate", f.EndDate.Format(backendTime))
	}
	return v
}

func parseInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a number", ErrBadParam, s)
	}
	return &n, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, backendTime, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: date %q", ErrBadParam, s)
}
