// Package client talks to the commerce backend over REST (/api/v1) and GraphQL.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/apierr"
	"storefront/internal/entity"
	"storefront/internal/listing"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// TokenFunc returns the bearer token of the caller behind ctx, or "".
type TokenFunc func(ctx context.Context) string

// Client is the REST client for the backend's /api/v1 surface.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenFunc
	orders     OrderLister
}

// OrderLister lists orders for a query. *GraphQLOrders implements it.
type OrderLister interface {
	ListOrders(ctx context.Context, q listing.Query) (*entity.Page[entity.Order], error)
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithToken(fn TokenFunc) Option {
	return func(c *Client) { c.token = fn }
}

// WithOrderFallback serves order listings whose filters no REST endpoint
// can express, such as status plus a date range.
func WithOrderFallback(l OrderLister) Option {
	return func(c *Client) { c.orders = l }
}

// New returns a client for baseURL, e.g. http://localhost:8080/api/v1.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		token:      func(context.Context) string { return "" },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do sends one request and decodes the envelope's data into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, header http.Header, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Msgf("%s %s failed", method, path)
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := apierr.FromResponse(resp.StatusCode, raw)
		logger.Warn().Int("status", resp.StatusCode).Strs("codes", apiErr.Codes).Msgf("%s %s: %s", method, path, apiErr.Message)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Success != nil {
		if !*env.Success {
			return apierr.FromResponse(resp.StatusCode, raw)
		}
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return nil
		}
		raw = env.Data
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

type validator interface {
	Validate() error
}

func check(v any) error {
	if val, ok := v.(validator); ok {
		return val.Validate()
	}
	return nil
}

// call decodes a single value and validates it at the boundary.
func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (*T, error) {
	return callWithHeader[T](ctx, c, method, path, query, body, nil)
}

func callWithHeader[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any, header http.Header) (*T, error) {
	var out T
	if err := c.do(ctx, method, path, query, body, header, &out); err != nil {
		return nil, err
	}
	if err := check(&out); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return &out, nil
}

// list decodes a JSON array and validates every element.
func list[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var out []T
	if err := c.do(ctx, http.MethodGet, path, query, nil, nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if err := check(&out[i]); err != nil {
			return nil, fmt.Errorf("GET %s: %w", path, err)
		}
	}
	return out, nil
}

func exec(ctx context.Context, c *Client, method, path string, query url.Values, body any) error {
	return c.do(ctx, method, path, query, body, nil, nil)
}

func itoa(n int) string {
	return fmt.Sprint(n)
}
