package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront/internal/apierr"
)

// Operation is a named GraphQL document. Field is the root field whose value
// is decoded; Tags are the cache tags a query reads or a mutation invalidates.
type Operation struct {
	Name     string
	Field    string
	Document string
	Tags     []string
}

// GraphQL is a client for the backend's /graphql endpoint. Queries are
// cache-first; mutations always go to the network and invalidate their tags.
type GraphQL struct {
	url        string
	httpClient *http.Client
	token      TokenFunc
	cache      Cache
}

type GraphQLOption func(*GraphQL)

func WithGraphQLHTTPClient(h *http.Client) GraphQLOption {
	return func(g *GraphQL) { g.httpClient = h }
}

func WithGraphQLToken(fn TokenFunc) GraphQLOption {
	return func(g *GraphQL) { g.token = fn }
}

func WithCache(c Cache) GraphQLOption {
	return func(g *GraphQL) { g.cache = c }
}

func NewGraphQL(url string, opts ...GraphQLOption) *GraphQL {
	g := &GraphQL{
		url:        url,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		token:      func(context.Context) string { return "" },
		cache:      NopCache{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type graphqlRequest struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []apierr.GraphQLError      `json:"errors"`
}

// cacheKey scopes results to the caller's token so one user's view never
// serves another's.
func cacheKey(op Operation, vars map[string]any, token string) (string, error) {
	b, err := json.Marshal(vars)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(op.Name + "\x00" + string(b) + "\x00" + token))
	return op.Name + ":" + hex.EncodeToString(sum[:16]), nil
}

// Query runs a read operation and decodes its root field into out.
func (g *GraphQL) Query(ctx context.Context, op Operation, vars map[string]any, out any) error {
	token := g.token(ctx)
	key, err := cacheKey(op, vars, token)
	if err != nil {
		return err
	}

	if cached, ok, err := g.cache.Get(ctx, key); err != nil {
		logger.Warn().Err(err).Msgf("graphql cache read failed for %s", op.Name)
	} else if ok {
		return json.Unmarshal(cached, out)
	}

	field, err := g.send(ctx, op, vars, token)
	if err != nil {
		return err
	}
	if err := g.cache.Set(ctx, key, field, op.Tags); err != nil {
		logger.Warn().Err(err).Msgf("graphql cache write failed for %s", op.Name)
	}
	return json.Unmarshal(field, out)
}

// Mutate runs a write operation, bypassing the cache, and invalidates the
// tags it touches once the backend has confirmed it.
func (g *GraphQL) Mutate(ctx context.Context, op Operation, vars map[string]any, out any) error {
	field, err := g.send(ctx, op, vars, g.token(ctx))
	if err != nil {
		return err
	}
	if err := g.cache.Invalidate(ctx, op.Tags...); err != nil {
		logger.Warn().Err(err).Msgf("graphql cache invalidation failed after %s", op.Name)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(field, out)
}

func (g *GraphQL) send(ctx context.Context, op Operation, vars map[string]any, token string) (json.RawMessage, error) {
	body, err := json.Marshal(graphqlRequest{OperationName: op.Name, Query: op.Document, Variables: vars})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Msgf("graphql %s failed", op.Name)
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var gr graphqlResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, apierr.FromResponse(resp.StatusCode, raw)
		}
		return nil, fmt.Errorf("decode graphql %s: %w", op.Name, err)
	}
	if len(gr.Errors) > 0 {
		apiErr := apierr.FromGraphQL(resp.StatusCode, gr.Errors)
		logger.Warn().Strs("codes", apiErr.Codes).Msgf("graphql %s: %s", op.Name, apiErr.Message)
		return nil, apiErr
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierr.FromResponse(resp.StatusCode, raw)
	}

	field, ok := gr.Data[op.Field]
	if !ok {
		return nil, fmt.Errorf("graphql %s: response has no %q field", op.Name, op.Field)
	}
	return field, nil
}
