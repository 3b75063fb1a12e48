package listing

import (
	"fmt"
	"net/url"
	"strconv"
)

// backendTime is the zone-less date-time layout the backend binds request params with.
const backendTime = "2006-01-02T15:04:05"

// Route is a backend path plus query parameters.
type Route struct {
	Path   string
	Params url.Values
}

func (r Route) String() string {
	if len(r.Params) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Params.Encode()
}

func pageParams(q Query, sortKey string) url.Values {
	q = q.Normalize()
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("size", strconv.Itoa(q.Size))
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
		v.Set(sortKey, string(q.Direction))
	}
	return v
}

// AuditLogRoute picks the most specific audit-log endpoint for the filter.
func AuditLogRoute(q Query) Route {
	f := q.Filter
	switch {
	case f.Username != "" && f.EventType != "":
		v := pageParams(q, "sortDir")
		v.Set("username", f.Username)
		v.Set("eventType", f.EventType)
		return Route{Path: "/audit-logs/filter", Params: v}
	case f.Username != "":
		return Route{Path: "/audit-logs/user/" + url.PathEscape(f.Username), Params: pageParams(q, "sortDir")}
	case f.EventType != "":
		return Route{Path: "/audit-logs/event-type/" + url.PathEscape(f.EventType), Params: pageParams(q, "sortDir")}
	case f.HasDateRange():
		v := pageParams(q, "sortDir")
		v.Set("startTime", f.StartDate.Format(backendTime))
		v.Set("endTime", f.EndDate.Format(backendTime))
		return Route{Path: "/audit-logs/date-range", Params: v}
	}
	return Route{Path: "/audit-logs", Params: pageParams(q, "sortDir")}
}

// OrderRoute picks the order endpoint for the filter. The REST endpoints take
// at most one of user, status and a full date range, and cannot search or
// filter by payment status; anything else is ErrBadParam.
func OrderRoute(q Query) (Route, error) {
	f := q.Filter
	if f.Search != "" || f.PaymentStatus != "" {
		return Route{}, fmt.Errorf("%w: order search and payment status filters are not routable", ErrBadParam)
	}
	if (f.StartDate == nil) != (f.EndDate == nil) {
		return Route{}, fmt.Errorf("%w: order date filters need both startDate and endDate", ErrBadParam)
	}
	set := 0
	for _, on := range []bool{f.UserID != nil, f.Status != "", f.HasDateRange()} {
		if on {
			set++
		}
	}
	if set > 1 {
		return Route{}, fmt.Errorf("%w: orders filter by only one of user, status or date range", ErrBadParam)
	}

	v := pageParams(q, "sortDirection")
	switch {
	case f.UserID != nil:
		return Route{Path: "/orders/user/" + strconv.Itoa(*f.UserID) + "/paginated", Params: v}, nil
	case f.Status != "":
		return Route{Path: "/orders/status/" + url.PathEscape(f.Status) + "/paginated", Params: v}, nil
	case f.HasDateRange():
		v.Set("startDate", f.StartDate.Format(backendTime))
		v.Set("endDate", f.EndDate.Format(backendTime))
		return Route{Path: "/orders/date-range/paginated", Params: v}, nil
	}
	return Route{Path: "/orders/paginated", Params: v}, nil
}

// ProductRoute sends any filtered browse to /products/filter.
func ProductRoute(q Query) Route {
	f := q.Filter
	v := pageParams(q, "sortDirection")
	if f.Search == "" && f.CategoryID == nil && f.Status == "" {
		return Route{Path: "/products/paginated", Params: v}
	}
	if f.Search != "" {
		v.Set("searchTerm", f.Search)
	}
	if f.CategoryID != nil {
		v.Set("categoryId", strconv.Itoa(*f.CategoryID))
	}
	switch f.Status {
	case "active":
		v.Set("isActive", "true")
	case "inactive":
		v.Set("isActive", "false")
	case "in-stock":
		v.Set("inStock", "true")
	case "out-of-stock":
		v.Set("inStock", "false")
	}
	return Route{Path: "/products/filter", Params: v}
}
