package zlagoda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"zlagoda_console/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultBaseURL  = "http://localhost:8080"
	requestIDHeader = "X-Request-ID"
)

var (
	ErrUnauthorized = errors.New("zlagoda unauthorized")
	ErrForbidden    = errors.New("zlagoda forbidden")
	ErrNotFound     = errors.New("zlagoda resource not found")
	ErrRateLimited  = errors.New("zlagoda rate limited")
)

// APIError is a non-2xx answer from the backend. Message holds the
// server's "error" (or "message") text when the body carried one.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("zlagoda api error: %s: %s", e.Status, e.Message)
	case e.Body != "":
		return fmt.Sprintf("zlagoda api error: %s: %s", e.Status, e.Body)
	default:
		return fmt.Sprintf("zlagoda api error: %s", e.Status)
	}
}

// TokenSource returns the bearer credential to attach to a request, or ""
// when there is none.
type TokenSource interface {
	Token() string
}

type Client struct {
	http   *resty.Client
	tokens TokenSource
	logger *zap.Logger
}

func NewClient(cfg config.Config, tokens TokenSource, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		tokens: tokens,
		logger: logger.Named("zlagoda"),
	}

	c.http = resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(1).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryReads).
		OnBeforeRequest(c.authorize)

	return c
}

// retryReads retries GETs only; a receipt creation must never be sent twice.
func retryReads(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	return resp.StatusCode() == http.StatusTooManyRequests
}

func (c *Client) authorize(_ *resty.Client, req *resty.Request) error {
	if c.tokens == nil {
		return nil
	}
	if token := strings.TrimSpace(c.tokens.Token()); token != "" {
		req.SetAuthScheme("Bearer")
		req.SetAuthToken(token)
	}
	return nil
}

func (c *Client) doGet(ctx context.Context, path string, query map[string]string, result any) error {
	req := c.http.R().SetContext(ctx).SetResult(result)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("zlagoda request %s: %w", path, err)
	}
	if resp.IsError() {
		return apiErrorFromResponse(resp)
	}
	return nil
}

func (c *Client) doSend(ctx context.Context, method, path string, headers map[string]string, body, result any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("zlagoda request %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return apiErrorFromResponse(resp)
	}
	return nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func apiErrorFromResponse(resp *resty.Response) error {
	body := strings.TrimSpace(resp.String())
	apiErr := &APIError{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Body:       body,
	}

	var parsed errorBody
	if err := json.Unmarshal(resp.Body(), &parsed); err == nil {
		apiErr.Message = strings.TrimSpace(parsed.Error)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(parsed.Message)
		}
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrForbidden, apiErr)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, apiErr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimited, apiErr)
	default:
		return apiErr
	}
}

// UserMessage turns an error from this package into text fit for the
// console: the server's own message when it sent one, a generic fallback
// otherwise.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "Session expired or invalid. Please log in again."
	case errors.Is(err, ErrForbidden):
		return "Access denied."
	case errors.Is(err, ErrNotFound):
		return "Not found."
	case errors.Is(err, ErrRateLimited):
		return "Too many requests. Try again later."
	}
	if fallback != "" {
		return fallback
	}
	return err.Error()
}
