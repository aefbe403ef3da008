package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/draganm/primes/internal/models"
	"github.com/draganm/primes/internal/utils"
)

// Client is the interface for interacting with the primes server
type Client interface {
	// CreateRun asks the server to enumerate and record the first count primes
	CreateRun(ctx context.Context, count int) (*models.Run, error)

	// GetRun retrieves a run by ID
	GetRun(ctx context.Context, runID uuid.UUID) (*models.Run, error)

	// ListRuns lists recorded runs, newest first
	ListRuns(ctx context.Context, filter *ListRunsFilter) (*models.RunList, error)

	// Primes streams the first count primes without recording a run
	Primes(ctx context.Context, count int) ([]int, error)

	// Divide performs a guarded integer division on the server
	Divide(ctx context.Context, x, y int) (int, error)

	// Health checks the server health
	Health(ctx context.Context) (*HealthResponse, error)
}

// ListRunsFilter contains paging options for listing runs
type ListRunsFilter struct {
	Limit  int
	Offset int
}

// HealthResponse represents the server health status
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Store    string `json:"store"`
}

// ErrorResponse represents an error response from the server
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// HTTPClient implements the Client interface using HTTP
type HTTPClient struct {
	baseURL    string
	httpClient *utils.RetryableHTTPClient
}

// New creates a new HTTP client for the primes server (simplified alias)
func New(baseURL string) Client {
	return NewClient(baseURL)
}

// NewClient creates a new HTTP client for the primes server
func NewClient(baseURL string) Client {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: utils.NewRetryableHTTPClient(),
	}
}

// NewClientWithOptions creates a new HTTP client with custom options
func NewClientWithOptions(baseURL string, maxRetries int, timeout time.Duration) Client {
	httpClient := utils.NewRetryableHTTPClient()
	httpClient.SetMaxRetries(maxRetries)
	httpClient.SetTimeout(timeout)

	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// CreateRun asks the server to enumerate and record the first count primes.
// The returned primes are checked against the digest computed by the server.
func (c *HTTPClient) CreateRun(ctx context.Context, count int) (*models.Run, error) {
	body, err := json.Marshal(&models.RunRequest{Count: count})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/runs", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var run models.Run
	if err := c.doJSON(ctx, req, http.StatusCreated, &run); err != nil {
		return nil, err
	}

	if err := utils.VerifyOutputSHA256(run.Primes, run.OutputSHA256); err != nil {
		return nil, fmt.Errorf("run %s is corrupt: %w", run.ID, err)
	}

	return &run, nil
}

// GetRun retrieves a run by ID
func (c *HTTPClient) GetRun(ctx context.Context, runID uuid.UUID) (*models.Run, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/runs/"+runID.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var run models.Run
	if err := c.doJSON(ctx, req, http.StatusOK, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns lists recorded runs, newest first
func (c *HTTPClient) ListRuns(ctx context.Context, filter *ListRunsFilter) (*models.RunList, error) {
	params := url.Values{}
	if filter != nil {
		if filter.Limit > 0 {
			params.Set("limit", strconv.Itoa(filter.Limit))
		}
		if filter.Offset > 0 {
			params.Set("offset", strconv.Itoa(filter.Offset))
		}
	}

	reqURL := c.baseURL + "/api/v1/runs"
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var list models.RunList
	if err := c.doJSON(ctx, req, http.StatusOK, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Primes streams the first count primes without recording a run
func (c *HTTPClient) Primes(ctx context.Context, count int) ([]int, error) {
	reqURL := c.baseURL + "/api/v1/primes?" + url.Values{"count": {strconv.Itoa(count)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	found := []int{}
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		p, err := strconv.Atoi(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("failed to parse prime %q: %w", scanner.Text(), err)
		}
		found = append(found, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if count > 0 && len(found) != count {
		return nil, fmt.Errorf("server returned %d primes, expected %d", len(found), count)
	}

	return found, nil
}

// Divide performs a guarded integer division on the server
func (c *HTTPClient) Divide(ctx context.Context, x, y int) (int, error) {
	params := url.Values{
		"x": {strconv.Itoa(x)},
		"y": {strconv.Itoa(y)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/divide?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	var result models.DivideResponse
	if err := c.doJSON(ctx, req, http.StatusOK, &result); err != nil {
		return 0, err
	}
	return result.Quotient, nil
}

// Health checks the server health
func (c *HTTPClient) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result HealthResponse
	if err := c.doJSON(ctx, req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, req *http.Request, expectedStatus int, out interface{}) error {
	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != expectedStatus {
		return c.parseError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseError parses an error response from the server
func (c *HTTPClient) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    errResp.Error,
		Context:    errResp.Context,
	}
}
