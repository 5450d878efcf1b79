package internal

import (
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

	"github.com/tidwall/gjson"
)

// DefaultAPIURL is used when no API URL is configured
const DefaultAPIURL = "http://localhost:8001"

// TokenSource supplies the bearer token for authenticated calls. An empty
// token means the request is sent without an Authorization header.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

// Client talks to the analysis service. It never mutates session or ledger state.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	observer   RetryObserver
	sleep      func(ctx context.Context, d time.Duration) error
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) ClientOption {
	return func(client *Client) {
		client.tokens = ts
	}
}

// WithRetryObserver receives a notification before each analysis retry.
func WithRetryObserver(o RetryObserver) ClientOption {
	return func(client *Client) {
		client.observer = o
	}
}

// WithSleep replaces the backoff wait, mostly for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(client *Client) {
		client.sleep = fn
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the service URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) analyzeRetry() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.Observer = c.observer
	cfg.Sleep = c.sleep
	return cfg
}

func (c *Client) examplesRetry() RetryConfig {
	return RetryConfig{
		MaxRetries:  2,
		BaseDelay:   500 * time.Millisecond,
		IsRetryable: DefaultIsRetryable,
		Sleep:       c.sleep,
	}
}

// Analyze submits a task for analysis, retrying transport and 5xx failures.
func (c *Client) Analyze(ctx context.Context, text string) (*AnalysisResult, error) {
	return Retry(ctx, c.analyzeRetry(), func(ctx context.Context) (*AnalysisResult, error) {
		var result AnalysisResult
		body := map[string]string{"texto": text}
		if err := c.doRequest(ctx, http.MethodPost, "/api/desambiguar", nil, c.bearer(), body, &result); err != nil {
			return nil, err
		}
		return &result, nil
	})
}

// ListExamples returns the example tasks. Any failure yields an empty list.
func (c *Client) ListExamples(ctx context.Context) []Example {
	examples, err := Retry(ctx, c.examplesRetry(), func(ctx context.Context) ([]Example, error) {
		var resp struct {
			Examples []Example `json:"ejemplos"`
		}
		if err := c.doRequest(ctx, http.MethodGet, "/api/ejemplos", nil, "", nil, &resp); err != nil {
			return nil, err
		}
		return resp.Examples, nil
	})
	if err != nil {
		LogDebug("failed to load examples: %v", err)
		return []Example{}
	}
	if examples == nil {
		return []Example{}
	}
	return examples
}

// HealthCheck reports service health. It makes a single attempt and reports
// StatusOffline when the service cannot be reached or answers garbage.
func (c *Client) HealthCheck(ctx context.Context) HealthStatus {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return HealthStatus{Status: StatusOffline}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		LogDebug("health check failed: %v", err)
		return HealthStatus{Status: StatusOffline}
	}
	defer resp.Body.Close()

	// Non-2xx health bodies still describe the service, so decode regardless.
	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil || status.Status == "" {
		return HealthStatus{Status: StatusOffline}
	}
	return status
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/register", nil, "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	var resp AuthResponse
	body := Credentials{Username: username, Password: password}
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", nil, "", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me fetches the profile that token belongs to.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.doRequest(ctx, http.MethodGet, "/api/auth/me", nil, token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// History returns one page of past analyses.
func (c *Client) History(ctx context.Context, limit, offset int) (*HistoryPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var page HistoryPage
	if err := c.doRequest(ctx, http.MethodGet, "/api/historial", query, c.bearer(), nil, &page); err != nil {
		return nil, err
	}
	if page.Entries == nil {
		page.Entries = []HistoryEntry{}
	}
	return &page, nil
}

// HistoryEntry fetches a single past analysis.
func (c *Client) HistoryEntry(ctx context.Context, id int) (*HistoryEntry, error) {
	var entry HistoryEntry
	if err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/historial/%d", id), nil, c.bearer(), nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteHistoryEntry removes a past analysis.
func (c *Client) DeleteHistoryEntry(ctx context.Context, id int) error {
	return c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/historial/%d", id), nil, c.bearer(), nil, nil)
}

// VerifyEmail confirms an email address with the token from the verification mail.
func (c *Client) VerifyEmail(ctx context.Context, token string) (*VerifyEmailResponse, error) {
	query := url.Values{}
	query.Set("token", token)

	var resp VerifyEmailResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/auth/verify-email", query, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResendVerification asks the service to send a new verification mail.
func (c *Client) ResendVerification(ctx context.Context, email string) (*MessageResponse, error) {
	query := url.Values{}
	query.Set("email", email)

	var resp MessageResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/resend-verification", query, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) bearer() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// doRequest performs an HTTP request and decodes the JSON response. Every
// failure is returned as an *Error except context cancellation.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, token string, body interface{}, result interface{}) error {
	op := method + " " + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	LogDebug("%s", op)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{
			Kind:   KindTransport,
			Op:     op,
			Detail: "cannot connect to the server at " + c.baseURL,
			Err:    err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return errorFromResponse(op, resp.StatusCode, data)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil && err != io.EOF {
			return &Error{Kind: KindServerStatus, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
	}

	return nil
}

// errorFromResponse maps a non-2xx response to an *Error. The message is the
// body's detail (a string or a list of validation messages), then its error
// field, then the bare status.
func errorFromResponse(op string, status int, body []byte) *Error {
	if msg := serverMessage(body); msg != "" {
		return &Error{Kind: KindServerDetail, Op: op, Status: status, Detail: msg}
	}
	return &Error{Kind: KindServerStatus, Op: op, Status: status}
}

func serverMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}

	detail := gjson.GetBytes(body, "detail")
	switch {
	case detail.Type == gjson.String:
		if s := strings.TrimSpace(detail.String()); s != "" {
			return s
		}
	case detail.IsArray():
		var msgs []string
		for _, item := range detail.Array() {
			if msg := item.Get("msg").String(); msg != "" {
				msgs = append(msgs, msg)
			} else if item.Type == gjson.String && item.String() != "" {
				msgs = append(msgs, item.String())
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	if e := gjson.GetBytes(body, "error"); e.Type == gjson.String {
		return strings.TrimSpace(e.String())
	}
	return ""
}
