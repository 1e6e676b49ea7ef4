// Package immich is the production implementation of executor.Client: an
// HTTP client for Immich's REST API. Immich authenticates with a static
// API key passed as a header, not a session, so there is no auth()/
// Logout() pair.
package immich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client is an HTTP client for Immich's REST API.
type Client struct {
	parsedURL *url.URL
	apiKey    string
	http      *http.Client
}

// New returns a Client bound to baseURL (e.g. "https://immich.example.com"),
// authenticating every request with apiKey via the x-api-key header.
func New(baseURL, apiKey string) (*Client, error) {
	full := strings.TrimRight(baseURL, "/") + "/api"
	parsed, err := url.Parse(full)
	if err != nil {
		return nil, fmt.Errorf("invalid Immich URL: %w", err)
	}
	return &Client{parsedURL: parsed, apiKey: apiKey, http: http.DefaultClient}, nil
}

func (c *Client) resolveURL(pathSegments ...string) string {
	if len(pathSegments) == 0 {
		return c.parsedURL.String()
	}
	return c.parsedURL.JoinPath(pathSegments...).String()
}

func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(r)
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}

func doGetJSON[T any](ctx context.Context, c *Client, endpoint string) (*T, error) {
	return doRequestJSON[T](ctx, c, http.MethodGet, endpoint, nil, http.StatusOK)
}

func doPostJSON[T any](ctx context.Context, c *Client, endpoint string, body any) (*T, error) {
	return doRequestJSON[T](ctx, c, http.MethodPost, endpoint, body, http.StatusOK, http.StatusCreated)
}

func doPutJSON[T any](ctx context.Context, c *Client, endpoint string, body any) (*T, error) {
	return doRequestJSON[T](ctx, c, http.MethodPut, endpoint, body, http.StatusOK, http.StatusNoContent)
}

func doRequestJSON[T any](ctx context.Context, c *Client, method, endpoint string, requestBody any, expectedStatuses ...int) (*T, error) {
	target := c.resolveURL(endpoint)

	var bodyReader io.Reader
	if requestBody != nil {
		jsonBody, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if !isExpectedStatus(resp.StatusCode, expectedStatuses) {
		return nil, &StatusError{Code: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	var result T
	if resp.StatusCode == http.StatusNoContent {
		return &result, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	if len(body) == 0 {
		return &result, nil
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}
	return &result, nil
}

func isExpectedStatus(code int, expected []int) bool {
	for _, e := range expected {
		if code == e {
			return true
		}
	}
	return false
}

// StatusError carries an unexpected HTTP response's status and body. This
// package's client methods inspect it via errors.As to classify NotFound.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Code, e.Body)
}

// NotFound reports whether this error is a 404.
func (e *StatusError) NotFound() bool { return e.Code == http.StatusNotFound }
