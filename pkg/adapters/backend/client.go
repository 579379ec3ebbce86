// Package backend talks to the campaign, product and review HTTP services.
// The same Client type serves both surfaces: a privileged client forwards
// the viewer's bearer token, a public client never sends credentials.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds one backend call.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 512

// ErrUnauthenticated is returned by a privileged client for an anonymous
// viewer. No request is sent.
var ErrUnauthenticated = errors.New("privileged surface requires an authenticated viewer")

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client implements ports.Surface over HTTP.
type Client struct {
	baseURL    string
	http       *http.Client
	privileged bool

	// Concurrent anonymous fetches of the same campaign share one request.
	group singleflight.Group
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.http.Timeout = d
		}
	}
}

func newClient(baseURL string, privileged bool, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: DefaultTimeout},
		privileged: privileged,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewPrivileged creates the authenticated surface.
func NewPrivileged(baseURL string, opts ...Option) *Client {
	return newClient(baseURL, true, opts...)
}

// NewPublic creates the anonymous fallback surface.
func NewPublic(baseURL string, opts ...Option) *Client {
	return newClient(baseURL, false, opts...)
}

// New pairs both surfaces into a ports.Backend.
func New(privilegedURL, publicURL string, opts ...Option) ports.Backend {
	return ports.Backend{
		Privileged: NewPrivileged(privilegedURL, opts...),
		Public:     NewPublic(publicURL, opts...),
	}
}

// Campaign fetches GET /campaigns/{id}.
func (c *Client) Campaign(ctx context.Context, viewer domain.Viewer, id string) (domain.CampaignView, error) {
	path := "/campaigns/" + url.PathEscape(id)
	if c.privileged {
		var out domain.CampaignView
		err := c.do(ctx, viewer, http.MethodGet, path, nil, &out)
		return out, err
	}

	// The shared fetch outlives any single caller; the HTTP client timeout
	// bounds it. Each caller still gives up on its own context.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(path, func() (any, error) {
		var out domain.CampaignView
		err := c.do(shared, viewer, http.MethodGet, path, nil, &out)
		return out, err
	})
	select {
	case <-ctx.Done():
		return domain.CampaignView{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.CampaignView{}, res.Err
		}
		return res.Val.(domain.CampaignView), nil
	}
}

// Products fetches GET /products?ids=a,b.
func (c *Client) Products(ctx context.Context, viewer domain.Viewer, ids []string) ([]domain.ProductSummary, error) {
	q := url.Values{"ids": {strings.Join(ids, ",")}}
	var out []domain.ProductSummary
	if err := c.do(ctx, viewer, http.MethodGet, "/products?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitReview posts the payload to POST /reviews.
func (c *Client) SubmitReview(ctx context.Context, viewer domain.Viewer, payload domain.ReviewPayload) (domain.Receipt, error) {
	var out domain.Receipt
	err := c.do(ctx, viewer, http.MethodPost, "/reviews", payload, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, viewer domain.Viewer, method, path string, in, out any) error {
	if c.privileged && !viewer.Authenticated() {
		return ErrUnauthenticated
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.privileged {
		req.Header.Set("Authorization", "Bearer "+viewer.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}
