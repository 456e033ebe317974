// Package api is the HTTP binding to the compound-interest service. It is
// stateless: authenticated calls take a preformatted bearer credential from
// the caller and perform no token lookup of their own.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/adiprasetyo/kalkulo/internal/models"
)

const maxBodyBytes = 1 << 20 // 1MiB

// Client is the REST client. One method per remote capability; each call is
// a single round trip with no retries and no caching.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Entry
}

// Response models the outcome of one round trip. Ordinary HTTP error
// statuses (4xx/5xx) are values here, not Go errors: Body is set only on a
// 2xx with a well-formed payload, ErrorBody carries the raw error text
// otherwise.
type Response[T any] struct {
	StatusCode int
	Body       *T
	ErrorBody  string
}

// OK reports a 2xx status with a parsed body.
func (r *Response[T]) OK() bool {
	return r.StatusOK() && r.Body != nil
}

// StatusOK reports a 2xx status regardless of body. Mutations whose payload
// carries no entity check this instead of OK.
func (r *Response[T]) StatusOK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Bearer formats a token into the Authorization credential.
func Bearer(token string) string {
	return "Bearer " + token
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration, log *logrus.Entry) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Register creates an account. No auth.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*Response[models.AuthResponse], error) {
	return do[models.AuthResponse](c, ctx, http.MethodPost, "/api/auth/register", "", req)
}

// Login exchanges credentials for a token. No auth.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*Response[models.AuthResponse], error) {
	return do[models.AuthResponse](c, ctx, http.MethodPost, "/api/auth/login", "", req)
}

// Calculate asks the server for a compound-interest projection.
func (c *Client) Calculate(ctx context.Context, bearer string, req models.CalculationRequest) (*Response[models.CalculationResponse], error) {
	return do[models.CalculationResponse](c, ctx, http.MethodPost, "/api/calculate", bearer, req)
}

// GetHistory lists the caller's saved calculations.
func (c *Client) GetHistory(ctx context.Context, bearer string) (*Response[models.HistoryResponse], error) {
	return do[models.HistoryResponse](c, ctx, http.MethodGet, "/api/history", bearer, nil)
}

// SaveHistory persists a calculation.
func (c *Client) SaveHistory(ctx context.Context, bearer string, req models.SaveHistoryRequest) (*Response[models.MessageResponse], error) {
	return do[models.MessageResponse](c, ctx, http.MethodPost, "/api/history", bearer, req)
}

// UpdateHistory replaces the editable fields of one record.
func (c *Client) UpdateHistory(ctx context.Context, bearer string, id int, req models.SaveHistoryRequest) (*Response[models.MessageResponse], error) {
	return do[models.MessageResponse](c, ctx, http.MethodPut, fmt.Sprintf("/api/history/%d", id), bearer, req)
}

// DeleteHistory removes one record.
func (c *Client) DeleteHistory(ctx context.Context, bearer string, id int) (*Response[models.MessageResponse], error) {
	return do[models.MessageResponse](c, ctx, http.MethodDelete, fmt.Sprintf("/api/history/%d", id), bearer, nil)
}

// GetInvestmentTypes lists the investment-type reference data.
func (c *Client) GetInvestmentTypes(ctx context.Context, bearer string) (*Response[models.InvestmentTypesResponse], error) {
	return do[models.InvestmentTypesResponse](c, ctx, http.MethodGet, "/api/investment-types", bearer, nil)
}

// do executes one round trip. Only network-level faults (dial, timeout,
// malformed response body) become Go errors.
func do[T any](c *Client, ctx context.Context, method, path, bearer string, body interface{}) (*Response[T], error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}

	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"request_id": requestID,
	}).Debug("api call")

	out := &Response[T]{StatusCode: resp.StatusCode}

	if !out.StatusOK() {
		out.ErrorBody = strings.TrimSpace(string(raw))
		return out, nil
	}

	var parsed T
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	out.Body = &parsed

	return out, nil
}
