// Package backend talks to the storefront REST backend. It implements the
// Auth and Catalog collaborators the client core depends on.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"storefront-client/internal/domain"
)

const maxBodyBytes = 4 << 20

// Config holds client configuration.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client is a REST client for the storefront backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates a backend client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("backend URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger.With().Str("component", "backend").Logger(),
	}, nil
}

type response struct {
	status int
	body   []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r response) json() gjson.Result {
	return gjson.ParseBytes(r.body)
}

// do sends a request and returns the raw response. Transport failures come
// back as CollaboratorError; HTTP status handling is left to the caller.
func (c *Client) do(ctx context.Context, collaborator, op, method, path, token string, payload any) (response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return response{}, &domain.CollaboratorError{Collaborator: collaborator, Op: op, Err: err}
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return response{}, &domain.CollaboratorError{Collaborator: collaborator, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("op", op).Str("path", path).Msg("backend request failed")
		return response{}, &domain.CollaboratorError{Collaborator: collaborator, Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return response{}, &domain.CollaboratorError{Collaborator: collaborator, Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	c.logger.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend request")
	return response{status: resp.StatusCode, body: raw}, nil
}

// errorMessage extracts a displayable message from a Django REST style error
// body: {"detail": "..."}, {"error": "..."} or {"field": ["..."]}.
func errorMessage(body gjson.Result, fallback string) string {
	for _, key := range []string{"detail", "error", "message"} {
		if v := body.Get(key); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	msg := ""
	body.ForEach(func(_, value gjson.Result) bool {
		switch {
		case value.IsArray() && len(value.Array()) > 0:
			msg = value.Array()[0].String()
		case value.Type == gjson.String:
			msg = value.String()
		}
		return msg == ""
	})
	if msg != "" {
		return msg
	}
	return fallback
}
