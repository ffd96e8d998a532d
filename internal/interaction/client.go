// ABOUTME: REST client for submitting component interactions
// ABOUTME: Posts interaction bodies and turns non-2xx responses into RejectedError

package interaction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultUserAgent mimics a desktop browser, matching the identify properties.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	requestTimeout = 15 * time.Second
	maxErrorBody   = 4096
)

// RejectedError is returned when the API answers with a non-2xx status.
type RejectedError struct {
	Status int
	Body   string
	// Code and Message are filled when the body is a structured API error.
	Code    int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("interaction rejected (%d): %s (code %d)", e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("interaction rejected (%d): %s", e.Status, e.Body)
}

// apiError is the structured error body returned by the REST API.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Client submits interactions to the REST API.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewClient creates a client for the API rooted at baseURL (e.g. "https://host/api/v9").
func NewClient(baseURL, userAgent string) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: requestTimeout},
	}
}

// Submit posts req on behalf of the account identified by token.
func (c *Client) Submit(ctx context.Context, token string, req Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling interaction: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/interactions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending interaction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return rejected(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// rejected builds a RejectedError from a non-2xx response.
func rejected(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	rerr := &RejectedError{Status: resp.StatusCode, Body: string(data)}

	var apiErr apiError
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
		rerr.Code = apiErr.Code
		rerr.Message = apiErr.Message
	}
	return rerr
}
