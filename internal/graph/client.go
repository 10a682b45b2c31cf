package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Catalog is the outbound surface of the vendor catalog the adapter depends
// on. RESTClient is the production implementation; tests substitute fakes.
type Catalog interface {
	// GetEntityByGUID fetches an entity snapshot. minExtInfo requests the
	// minimal referred-entity payload; ignoreRelationships omits the
	// relationship-attribute map.
	GetEntityByGUID(ctx context.Context, guid string, minExtInfo, ignoreRelationships bool) (*Entity, error)
	GetRelationshipByGUID(ctx context.Context, guid string) (*Relationship, error)
	GetAllTypeDefs(ctx context.Context) (*TypesDef, error)
	CreateTypeDefs(ctx context.Context, defs *TypesDef) (*TypesDef, error)
	CreateEntity(ctx context.Context, entity *Entity) (*MutationResponse, error)
	UpdateEntity(ctx context.Context, entity *Entity) (*MutationResponse, error)
	SearchWithParameters(ctx context.Context, params *SearchParameters) (*SearchResult, error)
}

// RemoteError is a non-2xx response from the vendor service.
type RemoteError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("vendor service returned %d for %s: %s", e.StatusCode, e.Endpoint, e.Body)
}

// IsNotFound reports whether the remote error is a 404.
func (e *RemoteError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// RESTClient talks to the vendor catalog's v2 REST API with basic auth.
type RESTClient struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	breaker  *Breaker
}

// NewRESTClient creates a client for the given endpoint.
func NewRESTClient(baseURL, username, password string, timeout time.Duration) *RESTClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RESTClient{
		baseURL:  baseURL,
		username: username,
		password: password,
		http:     &http.Client{Timeout: timeout},
		breaker:  NewBreaker(5, 30*time.Second, 15*time.Second),
	}
}

// SetBreaker replaces the default circuit breaker. Passing nil disables
// breaking entirely.
func (c *RESTClient) SetBreaker(b *Breaker) { c.breaker = b }

func (c *RESTClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.breaker.Open() {
		return fmt.Errorf("%s %s: %w", method, path, ErrCatalogUnavailable)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request for %s: %w", path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response for %s: %w", path, err)
	}

	if resp.StatusCode >= 500 {
		c.breaker.RecordFailure()
	} else {
		c.breaker.RecordSuccess()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{StatusCode: resp.StatusCode, Endpoint: path, Body: snippet(data)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response for %s: %w", path, err)
		}
	}
	return nil
}

func snippet(data []byte) string {
	const max = 512
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}

// GetEntityByGUID implements Catalog.
func (c *RESTClient) GetEntityByGUID(ctx context.Context, guid string, minExtInfo, ignoreRelationships bool) (*Entity, error) {
	q := url.Values{}
	q.Set("minExtInfo", strconv.FormatBool(minExtInfo))
	q.Set("ignoreRelationships", strconv.FormatBool(ignoreRelationships))

	// The entity endpoint wraps the entity with its referred entities.
	var wrapped struct {
		Entity *Entity `json:"entity"`
	}
	err := c.do(ctx, http.MethodGet, "/api/catalog/v2/entity/guid/"+url.PathEscape(guid), q, nil, &wrapped)
	if err != nil {
		return nil, err
	}
	if wrapped.Entity == nil {
		return nil, &RemoteError{StatusCode: http.StatusNotFound, Endpoint: "/entity/guid/" + guid, Body: "empty entity payload"}
	}
	return wrapped.Entity, nil
}

// GetRelationshipByGUID implements Catalog.
func (c *RESTClient) GetRelationshipByGUID(ctx context.Context, guid string) (*Relationship, error) {
	var wrapped struct {
		Relationship *Relationship `json:"relationship"`
	}
	err := c.do(ctx, http.MethodGet, "/api/catalog/v2/relationship/guid/"+url.PathEscape(guid), nil, nil, &wrapped)
	if err != nil {
		return nil, err
	}
	if wrapped.Relationship == nil {
		return nil, &RemoteError{StatusCode: http.StatusNotFound, Endpoint: "/relationship/guid/" + guid, Body: "empty relationship payload"}
	}
	return wrapped.Relationship, nil
}

// GetAllTypeDefs implements Catalog.
func (c *RESTClient) GetAllTypeDefs(ctx context.Context) (*TypesDef, error) {
	var defs TypesDef
	if err := c.do(ctx, http.MethodGet, "/api/catalog/v2/types/typedefs", nil, nil, &defs); err != nil {
		return nil, err
	}
	return &defs, nil
}

// CreateTypeDefs implements Catalog.
func (c *RESTClient) CreateTypeDefs(ctx context.Context, defs *TypesDef) (*TypesDef, error) {
	var created TypesDef
	if err := c.do(ctx, http.MethodPost, "/api/catalog/v2/types/typedefs", nil, defs, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateEntity implements Catalog.
func (c *RESTClient) CreateEntity(ctx context.Context, entity *Entity) (*MutationResponse, error) {
	return c.mutateEntity(ctx, entity)
}

// UpdateEntity implements Catalog. The vendor's entity endpoint upserts, so
// create and update share a wire call; the split is kept for the caller's
// intent and for fakes that want to distinguish them.
func (c *RESTClient) UpdateEntity(ctx context.Context, entity *Entity) (*MutationResponse, error) {
	return c.mutateEntity(ctx, entity)
}

func (c *RESTClient) mutateEntity(ctx context.Context, entity *Entity) (*MutationResponse, error) {
	payload := struct {
		Entity *Entity `json:"entity"`
	}{Entity: entity}

	var resp MutationResponse
	if err := c.do(ctx, http.MethodPost, "/api/catalog/v2/entity", nil, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchWithParameters implements Catalog.
func (c *RESTClient) SearchWithParameters(ctx context.Context, params *SearchParameters) (*SearchResult, error) {
	var result SearchResult
	if err := c.do(ctx, http.MethodPost, "/api/catalog/v2/search/basic", nil, params, &result); err != nil {
		return nil, err
	}
	zap.S().Debugw("vendor search completed",
		"type", params.TypeName,
		"classification", params.Classification,
		"results", len(result.Entities))
	return &result, nil
}
