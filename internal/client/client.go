// Package client talks to a running interview server.
package client

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

	"go.uber.org/zap"

	"github.com/suhbatai/suhbat/internal/api"
	"github.com/suhbatai/suhbat/internal/model"
	"github.com/suhbatai/suhbat/internal/profession"
)

const (
	DefaultServerURL = "http://localhost:3000"
	DefaultTimeout   = 90 * time.Second

	contentType = "application/json"
	userAgent   = "suhbat-cli"
	maxErrBody  = 4 << 10
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client is a typed wrapper over the interview HTTP API.
type Client struct {
	baseURL    *url.URL
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
}

// New creates a Client for serverURL. A zero timeout selects DefaultTimeout.
func New(serverURL string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	serverURL = strings.TrimSpace(serverURL)
	if serverURL == "" {
		serverURL = DefaultServerURL
	}

	base, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("server url %q must include scheme and host", serverURL)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL: base,
		logger:  log,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		UserAgent: userAgent,
	}, nil
}

func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var out api.HealthResponse
	if err := c.do(ctx, http.MethodGet, api.PathHealth, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Professions(ctx context.Context) ([]profession.Summary, error) {
	var out []profession.Summary
	if err := c.do(ctx, http.MethodGet, api.PathProfessions, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Start asks for the opening question.
func (c *Client) Start(ctx context.Context, professionID string) (string, error) {
	var out api.QuestionResponse
	req := api.StartRequest{Profession: professionID}
	if err := c.do(ctx, http.MethodPost, api.PathStart, req, &out); err != nil {
		return "", err
	}
	return out.Question, nil
}

// Next asks for question number questionNumber given the full history.
func (c *Client) Next(ctx context.Context, professionID string, history []model.Turn, questionNumber int) (string, error) {
	var out api.QuestionResponse
	req := api.NextRequest{
		Profession:          professionID,
		ConversationHistory: history,
		QuestionNumber:      questionNumber,
	}
	if err := c.do(ctx, http.MethodPost, api.PathNext, req, &out); err != nil {
		return "", err
	}
	return out.Question, nil
}

// Evaluate requests the final evaluation of history.
func (c *Client) Evaluate(ctx context.Context, professionID string, history []model.Turn) (*model.Evaluation, error) {
	var out model.Evaluation
	req := api.EvaluateRequest{
		Profession:          professionID,
		ConversationHistory: history,
	}
	if err := c.do(ctx, http.MethodPost, api.PathEvaluate, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	endpoint := c.baseURL.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", contentType)
	req.Header.Set("User-Agent", c.UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.Debug("make request", zap.String("method", method), zap.String("url", endpoint))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("got response",
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", resp.Header.Get("X-Request-ID")),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}

	if target == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}

	return nil
}

func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))

	var payload api.ErrorResponse
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
}

// IsAPIError reports whether err carries a server response with the given status.
func IsAPIError(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
