package examclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://127.0.0.1:8080"
	defaultTimeout = 10 * time.Second

	IdempotencyKeyHeader = "Idempotency-Key"
)

var (
	ErrServiceUnavailable = errors.New("exam service unavailable")
	ErrInvalidResponse    = errors.New("invalid exam service response")
)

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// IsNotFound reports whether err is a 404 from the exam service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Config struct {
	BaseURL        string
	DefaultHeaders map[string]string
	Timeout        time.Duration
}

// Client talks to the remote exam service. Build one per process and share it.
type Client struct {
	baseURL    string
	headers    http.Header
	httpClient *http.Client
}

// New builds a client. A nil httpClient gets a dedicated client using cfg.Timeout.
func New(cfg Config, httpClient *http.Client) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	headers := make(http.Header, len(cfg.DefaultHeaders)+1)
	headers.Set("Accept", "application/json")
	for key, value := range cfg.DefaultHeaders {
		headers.Set(key, value)
	}

	return &Client{
		baseURL:    baseURL,
		headers:    headers,
		httpClient: httpClient,
	}
}

// BaseURL is the normalized service root every request is built from.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) GetTest(ctx context.Context, testID string) (TestBundle, error) {
	path, err := testPath(testID, "")
	if err != nil {
		return TestBundle{}, err
	}

	var payload testResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &payload); err != nil {
		return TestBundle{}, err
	}

	bundle := payload.bundle()
	if err := bundle.Validate(); err != nil {
		return TestBundle{}, err
	}
	return bundle, nil
}

func (c *Client) StartAttempt(ctx context.Context, testID string) error {
	path, err := testPath(testID, "/start")
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, path, nil, struct{}{}, nil)
}

func (c *Client) SubmitAttempt(ctx context.Context, testID string, request SubmitRequest, idempotencyKey string) (Result, error) {
	path, err := testPath(testID, "/submit")
	if err != nil {
		return Result{}, err
	}
	if request.Answers == nil {
		request.Answers = []Answer{}
	}

	var headers http.Header
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		headers = http.Header{IdempotencyKeyHeader: []string{key}}
	}

	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, path, headers, request, &raw); err != nil {
		return Result{}, err
	}
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	return Result{Body: raw}, nil
}

func testPath(testID, suffix string) (string, error) {
	testID = strings.TrimSpace(testID)
	if testID == "" {
		return "", errors.New("test id is required")
	}
	return "/tests/" + url.PathEscape(testID) + suffix, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, extraHeaders http.Header, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	for key, values := range c.headers {
		request.Header[key] = append([]string(nil), values...)
	}
	for key, values := range extraHeaders {
		request.Header[key] = append([]string(nil), values...)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil {
			apiErr.Message = strings.TrimSpace(payload.Message)
			if apiErr.Message == "" {
				apiErr.Message = strings.TrimSpace(payload.Error)
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if responseBody == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(responseBody); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
