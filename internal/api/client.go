// Package api is the typed REST client for the platform API. It owns
// transport concerns only: bearer injection, request identity, tracing and
// error decoding. State (session, feeds, selections) lives with callers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campus/internal/models"
	"campus/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// TokenSource supplies the bearer token for authenticated calls. The token
// is read at call time, never cached, so a logout is observed immediately.
type TokenSource interface {
	Token() string
}

// Options configure a Client.
type Options struct {
	BaseURL string
	// HTTPClient defaults to one with a 15s timeout.
	HTTPClient *http.Client
	// Tokens may be nil for a client that only performs anonymous calls.
	Tokens TokenSource
	// OnUnauthorized runs whenever the server answers 401, letting the
	// session manager invalidate itself instead of every caller treating
	// it as a generic request error.
	OnUnauthorized func()
	Logger         *observability.Logger
}

// Client is the platform API client. Safe for concurrent use.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	tokens         TokenSource
	onUnauthorized func()
	logger         *observability.Logger
}

// New validates options and returns a Client.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, models.NewValidationError(fmt.Sprintf("base URL %q is not absolute", opts.BaseURL))
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.GlobalLogger
	}

	return &Client{
		baseURL:        u,
		http:           httpClient,
		tokens:         opts.Tokens,
		onUnauthorized: opts.OnUnauthorized,
		logger:         logger.Component("api"),
	}, nil
}

// do performs one API call: one span, one request ID, one decoded result.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string, out interface{}) error {
	ctx, span := observability.Tracer.Start(ctx, op)
	defer span.End()

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.NewInternalError(err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.String("request.id", requestID),
	)

	res, err := c.http.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("request failed", "op", op, "request_id", requestID, "error", err)
		return models.NewNetworkError(err)
	}
	defer res.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", res.StatusCode))

	if res.StatusCode >= 400 {
		apiErr := c.decodeError(res)
		span.SetStatus(codes.Error, apiErr.Message)
		c.logger.Warn("request rejected", "op", op, "request_id", requestID,
			"status", res.StatusCode, "error", apiErr.Message)
		if res.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return models.NewInternalError(fmt.Errorf("decode %s response: %w", op, err))
		}
	}
	return nil
}

// doStatus is do for the endpoints whose status code carries meaning (the
// channel like toggle answers 201 on add, 200 on remove).
func (c *Client) doStatus(ctx context.Context, op, method, path string, body io.Reader, contentType string, out interface{}) (int, error) {
	status := 0
	capture := func(res *http.Response) error {
		status = res.StatusCode
		if out == nil {
			return nil
		}
		return json.NewDecoder(res.Body).Decode(out)
	}
	if err := c.doRaw(ctx, op, method, path, body, contentType, capture); err != nil {
		return status, err
	}
	return status, nil
}

func (c *Client) doRaw(ctx context.Context, op, method, path string, body io.Reader, contentType string, handle func(*http.Response) error) error {
	ctx, span := observability.Tracer.Start(ctx, op)
	defer span.End()

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.NewInternalError(err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
	)

	res, err := c.http.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.NewNetworkError(err)
	}
	defer res.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", res.StatusCode))

	if res.StatusCode >= 400 {
		apiErr := c.decodeError(res)
		span.SetStatus(codes.Error, apiErr.Message)
		if res.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}
	if err := handle(res); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.NewInternalError(err)
	}
	return nil
}

// decodeError turns a non-2xx response into the error taxonomy. The body
// may carry {"error": "..."}; a missing or unreadable body still yields a
// classified error.
func (c *Client) decodeError(res *http.Response) *models.AppError {
	var body models.ErrorResponse
	message := ""
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<16)).Decode(&body); err == nil {
		message = body.Error
	}
	if message == "" {
		message = http.StatusText(res.StatusCode)
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		return models.NewUnauthorizedError(message)
	case res.StatusCode == http.StatusNotFound:
		return &models.AppError{Code: models.CodeNotFound, Message: message}
	case res.StatusCode >= 400 && res.StatusCode < 500:
		return models.NewValidationError(message)
	default:
		return &models.AppError{Code: models.CodeInternal, Message: message}
	}
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out interface{}) error {
	return c.do(ctx, op, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, op, path string, in, out interface{}) error {
	body, err := encodeJSON(in)
	if err != nil {
		return err
	}
	return c.do(ctx, op, http.MethodPost, path, nil, body, "application/json", out)
}

func (c *Client) putJSON(ctx context.Context, op, path string, in, out interface{}) error {
	body, err := encodeJSON(in)
	if err != nil {
		return err
	}
	return c.do(ctx, op, http.MethodPut, path, nil, body, "application/json", out)
}

func (c *Client) deleteJSON(ctx context.Context, op, path string, out interface{}) error {
	return c.do(ctx, op, http.MethodDelete, path, nil, nil, "", out)
}

func encodeJSON(in interface{}) (io.Reader, error) {
	if in == nil {
		return nil, nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return bytes.NewReader(data), nil
}
