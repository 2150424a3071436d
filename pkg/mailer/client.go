package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.mailer.lokapasar.id"
	errorBodyReadLimit   int64 = 1024
	defaultClientTimeout       = 15 * time.Second
	defaultMaxRetries          = 3
	retryInitialBackoff        = 500 * time.Millisecond
)

var errAPIKeyRequired = errors.New("mailer api key is required")

// Client sends transactional email through the mail delivery API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	fromEmail  string
	fromName   string
	maxRetries uint64
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the mail API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithSender sets the default from address and display name.
func WithSender(email, name string) Option {
	return func(c *Client) {
		if strings.TrimSpace(email) != "" {
			c.fromEmail = strings.TrimSpace(email)
		}
		if strings.TrimSpace(name) != "" {
			c.fromName = strings.TrimSpace(name)
		}
	}
}

// WithMaxRetries sets how many times a failed delivery is retried before
// giving up. Only transport errors and retryable statuses (429, 5xx) are
// retried.
func WithMaxRetries(retries int) Option {
	return func(c *Client) {
		if retries >= 0 {
			c.maxRetries = uint64(retries)
		}
	}
}

// NewClient builds the mailer client given the delivery API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultClientTimeout},
		maxRetries: defaultMaxRetries,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultClientTimeout}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// Message is a single outbound email.
type Message struct {
	To       string `json:"to"`
	ToName   string `json:"to_name,omitempty"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body,omitempty"`
	TextBody string `json:"text_body,omitempty"`
}

type sendRequest struct {
	From     string `json:"from"`
	FromName string `json:"from_name,omitempty"`
	Message
}

type sendResponse struct {
	MessageID string `json:"message_id"`
}

// Send delivers the message through the mail API and returns the provider message id.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "mailer client not configured")
	}
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid recipient address")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "subject is required")
	}
	if strings.TrimSpace(msg.HTMLBody) == "" && strings.TrimSpace(msg.TextBody) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}

	payload, err := json.Marshal(sendRequest{
		From:     c.fromEmail,
		FromName: c.fromName,
		Message:  msg,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal mail request")
	}

	endpoint := c.buildURL("v1/messages")

	var messageID string
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(retryInitialBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		id, attemptErr := c.attemptSend(ctx, endpoint, payload)
		if attemptErr != nil {
			return attemptErr
		}
		messageID = id
		return nil
	})
	if err != nil {
		return "", err
	}

	return messageID, nil
}

func (c *Client) attemptSend(ctx context.Context, endpoint string, payload []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build mail request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute mail request"))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		failure := pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), "mail request failed")
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return "", retry.RetryableError(failure)
		}
		return "", failure
	}

	var decoded sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode mail response")
	}

	return decoded.MessageID, nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
