package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/apierr"
	"storefront/internal/client"
	"storefront/internal/entity"
	"storefront/internal/listing"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/workflow"
)

const cookieName = "sid"

type stubOrders struct {
	orders      map[int]entity.Order
	transitions int
}

func (s *stubOrders) ListOrders(_ context.Context, q listing.Query) (*entity.Page[entity.Order], error) {
	var content []entity.Order
	for _, o := range s.orders {
		content = append(content, o)
	}
	return &entity.Page[entity.Order]{Content: content, Number: q.Page, Size: q.Size, TotalElements: int64(len(content)), TotalPages: 1}, nil
}

func (s *stubOrders) GetOrder(_ context.Context, id int) (*entity.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, &apierr.Error{Status: 404, Message: "Order not found"}
	}
	return &o, nil
}

func (s *stubOrders) TransitionOrder(_ context.Context, id int, action workflow.Action, _ string) (*entity.Order, error) {
	s.transitions++
	o := s.orders[id]
	if err := workflow.Apply(&o, action); err != nil {
		return nil, err
	}
	s.orders[id] = o
	return &o, nil
}

func (s *stubOrders) UpdateOrderStatus(context.Context, int, entity.OrderStatus) (*entity.Order, error) {
	return nil, apierr.ErrNotFound
}

func (s *stubOrders) UpdateOrder(context.Context, int, client.UpdateOrderRequest) (*entity.Order, error) {
	return nil, apierr.ErrNotFound
}

func (s *stubOrders) DeleteOrder(context.Context, int) error { return nil }

type fixture struct {
	e      *echo.Echo
	store  *session.RedisStore
	orders *stubOrders
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := session.NewRedisStore(rdb)
	manager := session.NewManager(store, nil)
	orders := &stubOrders{orders: map[int]entity.Order{
		10: {ID: 10, UserID: 7, Status: entity.OrderStatusProcessing, ShippingAddress: "1 Main St"},
		11: {ID: 11, UserID: 7, Status: entity.OrderStatusPending, ShippingAddress: "1 Main St"},
	}}

	r := NewResponder(nil, cookieName)
	orderService := service.NewOrderService(orders, nil)
	h := Handlers{
		Auth:           NewAuthHandler(r, manager, nil, cookieName),
		AdminOrders:    NewOrderHandler(r, orderService),
		CustomerOrders: NewOrderHandler(r, orderService),
		Cart:           NewCartHandler(r, nil, nil),
		Catalog:        NewCatalogHandler(r, nil, nil, nil),
		Account:        NewAccountHandler(r, nil, nil, nil, nil, nil),
	}

	e := echo.New()
	e.Use(session.Middleware(manager, cookieName))
	Register(e, h, "")
	return &fixture{e: e, store: store, orders: orders}
}

func (f *fixture) signIn(t *testing.T, id string, userID int, role entity.Role) *http.Cookie {
	t.Helper()
	s := &session.Session{
		ID:        id,
		Token:     "token",
		User:      session.Profile{ID: userID, Username: "user", Role: role},
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.store.Save(context.Background(), s, time.Hour))
	return &http.Cookie{Name: cookieName, Value: id}
}

func (f *fixture) do(method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRoleGuardOnAPIGroups(t *testing.T) {
	f := newFixture(t)
	adminCookie := f.signIn(t, "admin-session", 1, entity.RoleAdmin)
	customerCookie := f.signIn(t, "customer-session", 7, entity.Role("customer"))

	tests := []struct {
		name   string
		target string
		cookie *http.Cookie
		want   int
	}{
		{name: "anonymous admin api", target: "/api/admin/orders", want: http.StatusFound},
		{name: "customer on admin api", target: "/api/admin/orders", cookie: customerCookie, want: http.StatusFound},
		{name: "admin on customer api", target: "/api/customer/orders", cookie: adminCookie, want: http.StatusFound},
		{name: "admin on admin api", target: "/api/admin/orders", cookie: adminCookie, want: http.StatusOK},
		{name: "lowercase customer role", target: "/api/customer/orders", cookie: customerCookie, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, tt.target, "", tt.cookie)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusFound {
				assert.Equal(t, session.LoginPath, rec.Header().Get(echo.HeaderLocation))
			}
		})
	}
}

func TestListOrdersResponse(t *testing.T) {
	f := newFixture(t)
	cookie := f.signIn(t, "admin-session", 1, entity.RoleAdmin)

	rec := f.do(http.MethodGet, "/api/admin/orders?status=PENDING&page=0&size=5", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Len(t, body["items"], 2)
	controls := body["controls"].(map[string]interface{})
	assert.Equal(t, true, controls["previousDisabled"])
	assert.Equal(t, true, controls["nextDisabled"])
	v := body["view"].(map[string]interface{})
	assert.Equal(t, "PENDING", v["status"])
	assert.Equal(t, "5", v["size"])
	assert.NotEmpty(t, v["fp"])
}

func TestListOrdersBadParam(t *testing.T) {
	f := newFixture(t)
	cookie := f.signIn(t, "admin-session", 1, entity.RoleAdmin)

	rec := f.do(http.MethodGet, "/api/admin/orders?page=abc", "", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "validation", body["category"])
	assert.Equal(t, true, body["retry"])
}

func TestApplyActionRejectedKeepsStatus(t *testing.T) {
	f := newFixture(t)
	cookie := f.signIn(t, "admin-session", 1, entity.RoleAdmin)

	for _, action := range []string{"confirm", "pay"} {
		rec := f.do(http.MethodPost, "/api/admin/orders/10/actions/"+action, "", cookie)
		require.Equal(t, http.StatusConflict, rec.Code, action)
		body := decode(t, rec)
		assert.Equal(t, "invalid_transition", body["category"])
		current := body["current"].(map[string]interface{})
		assert.Equal(t, "PROCESSING", current["status"])
	}
	assert.Zero(t, f.orders.transitions)

	rec := f.do(http.MethodPost, "/api/admin/orders/10/actions/ship", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SHIPPED", decode(t, rec)["status"])
}

func TestCustomerCancel(t *testing.T) {
	f := newFixture(t)
	owner := f.signIn(t, "owner", 7, entity.RoleCustomer)
	other := f.signIn(t, "other", 8, entity.RoleCustomer)

	rec := f.do(http.MethodPost, "/api/customer/orders/11/cancel", "", other)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decode(t, rec)["category"])

	rec = f.do(http.MethodPost, "/api/customer/orders/11/cancel", "", owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", decode(t, rec)["status"])
}

func TestMeRequiresSession(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "unauthorized", body["category"])
	assert.Equal(t, session.LoginPath, body["redirect"])

	cookie := f.signIn(t, "s1", 7, entity.RoleCustomer)
	rec = f.do(http.MethodGet, "/auth/me", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/customer/dashboard", decode(t, rec)["dashboard"])
}

func TestLogoutDropsSession(t *testing.T) {
	f := newFixture(t)
	cookie := f.signIn(t, "s1", 7, entity.RoleCustomer)

	rec := f.do(http.MethodPost, "/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderSetCookie), cookieName+"=;")

	_, err := f.store.Get(context.Background(), "s1")
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestOAuth2CallbackError(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/oauth2/callback?error=access_denied", "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	loc := rec.Header().Get(echo.HeaderLocation)
	assert.True(t, strings.HasPrefix(loc, session.LoginPath+"?error="))
	assert.Contains(t, loc, "Access+was+denied")
}

type noteLog struct {
	recorded []apierr.Classification
}

func (n *noteLog) Record(_ context.Context, _ int, _ string, c apierr.Classification) (*entity.Notification, error) {
	n.recorded = append(n.recorded, c)
	return &entity.Notification{}, nil
}

func TestResponder(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantCat    apierr.Category
		wantCookie bool
		wantNote   bool
	}{
		{name: "expired token", err: session.ErrTokenExpired, wantCode: 401, wantCat: apierr.CategoryUnauthorized, wantCookie: true},
		{name: "field error", err: apierr.Invalid("email", "Email should be valid"), wantCode: 400, wantCat: apierr.CategoryValidation},
		{name: "server error", err: &apierr.Error{Status: 503}, wantCode: 500, wantCat: apierr.CategoryUnknown, wantNote: true},
		{name: "stock", err: &apierr.Error{Status: 400, Codes: []string{apierr.CodeValidation}, Message: "Insufficient stock for product X"}, wantCode: 409, wantCat: apierr.CategoryInsufficientStock, wantNote: true},
		{name: "rate limited", err: &apierr.Error{Status: 429}, wantCode: 429, wantCat: apierr.CategoryRateLimited, wantNote: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := &noteLog{}
			r := NewResponder(notes, cookieName)
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			c.Set("session", &session.Session{ID: "s1", User: session.Profile{ID: 7}})

			require.NoError(t, r.fail(c, "Something failed", tt.err))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, string(tt.wantCat), decode(t, rec)["category"])
			assert.Equal(t, tt.wantCookie, strings.Contains(rec.Header().Get(echo.HeaderSetCookie), cookieName+"=;"))
			assert.Equal(t, tt.wantNote, len(notes.recorded) == 1)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	e := echo.New()
	e.Use(RateLimiter(1, 1))
	e.GET("/health", Health("storefront"))

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "ok", decode(t, first)["status"])

	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "rate limit exceeded", decode(t, second)["error"])
}
