// Package listmonk is a typed client for the listmonk mailing platform's
// REST API. It covers the subscriber, list, public subscription, and
// transactional-send surface the bridge reconciles against.
package listmonk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ignite/listmonk-bridge/internal/config"
)

// HTTPDoer is the interface for executing HTTP requests.
// *http.Client satisfies this interface.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a listmonk API client. Credentials are fixed at construction;
// all methods are safe for concurrent use.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient HTTPDoer
}

// NewClient creates a new listmonk API client.
func NewClient(cfg config.ListmonkConfig) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(client HTTPDoer) {
	c.httpClient = client
}

// doRequest performs an authenticated request against the API and returns
// the raw response body. Non-2xx responses are returned as *APIError.
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	return c.do(ctx, method, path, params, body, true)
}

// doPublicRequest is doRequest without credentials, for the public
// subscription endpoint.
func (c *Client) doPublicRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	return c.do(ctx, method, path, nil, body, false)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any, authed bool) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	return respBody, nil
}
