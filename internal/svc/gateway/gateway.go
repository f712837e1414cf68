// Package gateway is the single HTTP client all backend calls go through. It attaches
// the bearer token of the current session to every request and turns a 401 response
// into a forced logout.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mkrupp/underwritepro/internal/domain"
	context_ "github.com/mkrupp/underwritepro/internal/infra/context"
	"github.com/mkrupp/underwritepro/internal/infra/logging"
	"github.com/mkrupp/underwritepro/internal/infra/metrics"
)

const (
	TraceIDHeader       = "X-Request-ID"
	AuthorizationHeader = "Authorization"
	ContentTypeHeader   = "Content-Type"

	contentTypeJSON = "application/json"
)

// ErrNoResponse is returned when a request produced no HTTP response.
var ErrNoResponse = errors.New("no response")

// ClientConfig holds configuration for the backend client.
type ClientConfig struct {
	// BaseURL is the backend origin every relative path is resolved against
	BaseURL string `env:"API_URL" default:"https://underwritepro-backend.onrender.com"`

	// Timeout bounds a single request including reading the body; zero disables it
	Timeout time.Duration `env:"TIMEOUT" default:"60s"`

	// UserAgent is sent with every request
	UserAgent string `env:"USER_AGENT" default:"underwritepro-client"`
}

// TokenSource provides the bearer token of the current session.
type TokenSource interface {
	Token() string
}

// UnauthorizedHandler is notified when the backend rejects the session's token.
type UnauthorizedHandler interface {
	HandleUnauthorized(ctx context.Context)
}

// Session is the part of the session store the client depends on.
type Session interface {
	TokenSource
	UnauthorizedHandler
}

// Client wraps a resty client configured with the session interceptors.
type Client struct {
	rc      *resty.Client
	cfg     ClientConfig
	log     logging.Logger
	metrics *metrics.GatewayMetrics

	m       sync.RWMutex
	session Session
}

// NewClient creates a Client. If httpClient is nil a fresh *http.Client is used;
// m may be nil to disable metrics. BindSession must be called before requests that
// need a token.
func NewClient(cfg ClientConfig, httpClient *http.Client, m *metrics.GatewayMetrics) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	c := &Client{
		cfg:     cfg,
		log:     logging.GetLogger("svc.gateway.client"),
		metrics: m,
	}

	c.rc = resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", contentTypeJSON).
		SetHeader("User-Agent", cfg.UserAgent).
		OnBeforeRequest(c.beforeRequest).
		OnAfterResponse(c.afterResponse).
		OnError(c.onError)

	return c
}

// BindSession sets the session used for token injection and forced logout.
// The session store itself depends on the client, so binding happens after both exist.
func (c *Client) BindSession(session Session) {
	c.m.Lock()
	defer c.m.Unlock()

	c.session = session
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string {
	return c.rc.BaseURL
}

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Body   any
	File   *File
	Form   map[string]string
}

// File is a multipart file part.
type File struct {
	Param    string
	Filename string
	Reader   io.Reader
}

// Do executes req and decodes a successful JSON body into result, which may be nil.
// A 401 on a non-anonymous request returns domain.ErrSessionExpired after the session
// was cleared; any other non-2xx status returns a *domain.APIError.
func (c *Client) Do(ctx context.Context, req Request, result any) error {
	r := c.rc.R().SetContext(ctx)

	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}

	switch {
	case req.File != nil:
		r.SetFileReader(req.File.Param, req.File.Filename, req.File.Reader)

		if len(req.Form) > 0 {
			r.SetFormData(req.Form)
		}
	case req.Body != nil:
		r.SetHeader(ContentTypeHeader, contentTypeJSON).SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}

	if resp == nil || resp.RawResponse == nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.Path, ErrNoResponse)
	}

	if resp.StatusCode() == http.StatusUnauthorized && !context_.IsAnonymous(ctx) {
		return fmt.Errorf("%s %s: %w", req.Method, req.Path, domain.ErrSessionExpired)
	}

	if resp.IsError() {
		return fmt.Errorf("%s %s: %w", req.Method, req.Path, decodeAPIError(resp))
	}

	if result == nil || len(resp.Body()) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.Path, err)
	}

	return nil
}

// Get is a shorthand for a GET request.
func (c *Client) Get(ctx context.Context, path string, query map[string]string, result any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, result)
}

// Post is a shorthand for a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, result)
}

// Put is a shorthand for a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, result)
}

// Delete is a shorthand for a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}

func (c *Client) boundSession() Session {
	c.m.RLock()
	defer c.m.RUnlock()

	return c.session
}

func (c *Client) beforeRequest(_ *resty.Client, r *resty.Request) error {
	ctx := r.Context()

	if !context_.IsAnonymous(ctx) {
		if session := c.boundSession(); session != nil {
			if token := session.Token(); token != "" {
				r.SetHeader(AuthorizationHeader, "Bearer "+token)
			}
		}
	}

	traceID, ok := context_.TraceIDFromContext(ctx)
	if !ok {
		traceID = context_.NewTraceID()
	}

	if traceID != "" {
		r.SetHeader(TraceIDHeader, traceID)
	}

	return nil
}

func (c *Client) afterResponse(_ *resty.Client, resp *resty.Response) error {
	ctx := resp.Request.Context()
	status := resp.StatusCode()

	c.metrics.ObserveResponse(resp.Request.Method, status, resp.Time())

	c.log.DebugContext(ctx, "backend response",
		"method", resp.Request.Method,
		"url", resp.Request.URL,
		"status", status,
		"elapsed", resp.Time(),
	)

	if status != http.StatusUnauthorized || context_.IsAnonymous(ctx) {
		return nil
	}

	c.metrics.ObserveForcedLogout()

	if session := c.boundSession(); session != nil {
		session.HandleUnauthorized(ctx)
	}

	return nil
}

func (c *Client) onError(r *resty.Request, err error) {
	var respErr *resty.ResponseError
	if errors.As(err, &respErr) {
		return
	}

	c.metrics.ObserveResponse(r.Method, 0, 0)

	c.log.WarnContext(r.Context(), "backend request failed",
		"method", r.Method,
		"url", r.URL,
		logging.Err(err),
	)
}

// errorBody covers both detail shapes of the backend: a plain string, or a list of
// field errors each carrying a msg.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldError struct {
	Msg string `json:"msg"`
}

func decodeAPIError(resp *resty.Response) *domain.APIError {
	apiErr := &domain.APIError{StatusCode: resp.StatusCode()}

	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err != nil || len(body.Detail) == 0 {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err == nil {
		apiErr.Detail = detail

		return apiErr
	}

	var fields []fieldError
	if err := json.Unmarshal(body.Detail, &fields); err == nil {
		msgs := make([]string, 0, len(fields))

		for _, field := range fields {
			if field.Msg != "" {
				msgs = append(msgs, field.Msg)
			}
		}

		apiErr.Detail = strings.Join(msgs, "; ")
	}

	return apiErr
}
