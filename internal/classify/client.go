package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"curator/internal/config"
	"curator/internal/services"
)

const (
	jsonResponseType      = "json_object"
	defaultHTTPTimeout    = 120 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// Client wraps an OpenAI-compatible chat completion API as a Provider.
type Client struct {
	cfg        config.Classifier
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithSleeper overrides how retry sleeps are performed (used in tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a classification client from configuration.
func NewClient(cfg config.Classifier, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:              cfg,
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
		sleeper:          time.Sleep,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *formatSpec   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type formatSpec struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify sends one file's name and content excerpt to the model and parses
// the structured judgement from its JSON reply.
func (c *Client) Classify(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return Result{}, services.Wrap(services.ErrConfiguration, "classify", "classify", "classifier.api_key is not set", nil)
	}

	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req)},
		},
		ResponseFormat: &formatSpec{Type: jsonResponseType},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, services.Wrap(services.ErrClassification, "classify", "classify", "encode request", err)
	}

	raw, err := c.postWithRetry(ctx, body)
	if err != nil {
		return Result{}, err
	}

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return Result{}, services.Wrap(services.ErrClassification, "classify", "classify", "malformed model output", err)
	}
	result.Provider = providerFromURL(c.cfg.BaseURL)
	result.Model = c.cfg.Model
	result.Raw = raw
	return result, nil
}

func (c *Client) postWithRetry(ctx context.Context, body []byte) (string, error) {
	delay := c.retryBaseDelay
	var lastErr error
	for attempt := 0; attempt < c.retryMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", services.Wrap(services.ErrClassification, "classify", "classify", "cancelled", ctx.Err())
			default:
			}
			c.sleeper(delay)
			if next := delay * 2; next <= c.retryMaxDelay {
				delay = next
			}
		}

		content, retryable, err := c.post(ctx, body)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", services.Wrap(services.ErrClassification, "classify", "classify", "request failed", lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) (content string, retryable bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", true, err
		}
		return "", !errors.Is(err, context.Canceled), err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", true, err
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", false, errors.New("empty completion")
	}
	return parsed.Choices[0].Message.Content, false, nil
}

const systemPrompt = `You are a file organization assistant. Examine the file name and content excerpt and reply with a single JSON object containing: category (string), title (string), tags (array of strings), summary (string), subcategories (array of strings), selectedTemplateId (string, optional), selectedFolderPath (string, optional, relative folder under the template base path). Reply with JSON only.`

func buildUserPrompt(req Request) string {
	var b strings.Builder
	if req.CustomContext != "" {
		b.WriteString("Additional context from the user: ")
		b.WriteString(req.CustomContext)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "File name: %s\n", req.FileName)
	if req.MIMEType != "" {
		fmt.Fprintf(&b, "MIME type: %s\n", req.MIMEType)
	}
	if len(req.Templates) > 0 {
		b.WriteString("Available templates:\n")
		for _, tpl := range req.Templates {
			fmt.Fprintf(&b, "- id=%s name=%q base=%s", tpl.ID, tpl.Name, tpl.BasePath)
			if tpl.Restricted() {
				fmt.Fprintf(&b, " folders=%s", strings.Join(tpl.FolderWhitelist, ","))
			}
			b.WriteByte('\n')
		}
	}
	if len(req.Content) > 0 {
		b.WriteString("\nContent excerpt:\n")
		b.Write(req.Content)
	}
	return b.String()
}

func providerFromURL(baseURL string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(baseURL, "https://"), "http://")
	if idx := strings.IndexByte(trimmed, '/'); idx > 0 {
		trimmed = trimmed[:idx]
	}
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
