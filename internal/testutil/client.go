// Package testutil holds helpers for integration tests: an API client,
// dependency containers and OpenAPI response validation.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

// Client calls the API as one caller. A non-empty Token is sent as a
// bearer token.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client

	validator *OpenAPIValidator
	t         *testing.T
}

// NewClient returns a client for baseURL. When validator is non-nil, every
// JSON response is checked against the OpenAPI document and mismatches are
// reported to the test set with SetT.
func NewClient(baseURL string, validator *OpenAPIValidator) *Client {
	return &Client{BaseURL: baseURL, HTTP: &http.Client{}, validator: validator}
}

// SetT sets the test that receives validation failures.
func (c *Client) SetT(t *testing.T) {
	c.t = t
}

// LoginAs logs in and keeps the returned token.
func (c *Client) LoginAs(t *testing.T, email, password string) {
	t.Helper()

	resp, err := c.POST("/api/v1/auth/login", map[string]string{"email": email, "password": password})
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: status=%d body=%s", resp.StatusCode, ReadBody(t, resp))
	}

	var result struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	DecodeJSON(t, resp, &result)
	c.Token = result.Data.Token
}

// GET performs a GET request.
func (c *Client) GET(path string) (*http.Response, error) {
	return c.send(http.MethodGet, path, nil)
}

// POST sends body as JSON.
func (c *Client) POST(path string, body any) (*http.Response, error) {
	return c.sendJSON(http.MethodPost, path, body)
}

// PUT sends body as JSON.
func (c *Client) PUT(path string, body any) (*http.Response, error) {
	return c.sendJSON(http.MethodPut, path, body)
}

// DELETE performs a DELETE request.
func (c *Client) DELETE(path string) (*http.Response, error) {
	return c.send(http.MethodDelete, path, nil)
}

// Raw sends body verbatim.
func (c *Client) Raw(method, path, body string) (*http.Response, error) {
	return c.send(method, path, []byte(body))
}

func (c *Client) sendJSON(method, path string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return c.send(method, path, b)
}

func (c *Client) send(method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}

	if c.validator != nil && c.t != nil {
		if err := c.validator.Check(req, resp); err != nil {
			c.t.Errorf("OpenAPI: %v", err)
		}
	}
	return resp, nil
}

// DecodeJSON decodes and closes the response body.
func DecodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// ReadBody reads and closes the response body.
func ReadBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

// ErrorMessage decodes an {"error":{"message":...}} body.
func ErrorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	DecodeJSON(t, resp, &body)
	return body.Error.Message
}
