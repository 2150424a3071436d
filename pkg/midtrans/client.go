package midtrans

import (
	"bytes"
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
)

const (
	sandboxBaseURL             = "https://app.sandbox.midtrans.com"
	productionBaseURL          = "https://app.midtrans.com"
	requestBodyReadLimit int64 = 1024
)

var errServerKeyRequired = errors.New("midtrans server key is required")

// Client wraps the Midtrans Snap API used for checkout payments.
type Client struct {
	httpClient *http.Client
	baseURL    string
	serverKey  string
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

// WithBaseURL overrides the Snap base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithProduction points the client at the production Snap host.
func WithProduction() Option {
	return func(c *Client) {
		c.baseURL = productionBaseURL
	}
}

// NewClient builds the Midtrans client given the merchant server key.
// The client targets the sandbox host unless overridden.
func NewClient(serverKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(serverKey)
	if trimmedKey == "" {
		return nil, errServerKeyRequired
	}

	client := &Client{
		serverKey:  trimmedKey,
		baseURL:    sandboxBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = sandboxBaseURL
	}

	return client, nil
}

// TransactionDetails carries the gateway order reference and amount.
type TransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

// CustomerDetails identifies the paying buyer.
type CustomerDetails struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// ItemDetail is one line in the Snap transaction.
type ItemDetail struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// SnapRequest is the payload posted to the Snap transactions endpoint.
type SnapRequest struct {
	TransactionDetails TransactionDetails `json:"transaction_details"`
	CustomerDetails    *CustomerDetails   `json:"customer_details,omitempty"`
	ItemDetails        []ItemDetail       `json:"item_details,omitempty"`
	Expiry             *SnapExpiry        `json:"expiry,omitempty"`
}

// SnapExpiry controls how long the payment page stays valid.
type SnapExpiry struct {
	Unit     string `json:"unit"`
	Duration int    `json:"duration"`
}

// SnapToken is the result of creating a Snap transaction.
type SnapToken struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// CreateSnapTransaction registers the payment with Midtrans and returns the Snap token.
func (c *Client) CreateSnapTransaction(ctx context.Context, req SnapRequest) (*SnapToken, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "midtrans client not configured")
	}
	if strings.TrimSpace(req.TransactionDetails.OrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if req.TransactionDetails.GrossAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gross amount must be positive")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal snap request")
	}

	endpoint := c.buildURL("snap/v1/transactions")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build snap request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", c.basicAuth())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute snap request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "snap request failed")
	}

	var token SnapToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode snap response")
	}
	if token.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "snap response missing token")
	}

	return &token, nil
}

// NotificationPayload is the subset of the webhook body needed for settlement.
type NotificationPayload struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
	TransactionTime   string `json:"transaction_time"`
}

// VerifySignature checks the webhook signature key against the server key.
// The expected digest is sha512(order_id + status_code + gross_amount + server_key).
func (c *Client) VerifySignature(p NotificationPayload) bool {
	if c == nil {
		return false
	}
	sum := sha512.Sum512([]byte(p.OrderID + p.StatusCode + p.GrossAmount + c.serverKey))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(p.SignatureKey))) == 1
}

// IsSettled reports whether the notification means an accepted payment.
func (p NotificationPayload) IsSettled() bool {
	switch p.TransactionStatus {
	case "settlement":
		return true
	case "capture":
		return p.FraudStatus == "" || p.FraudStatus == "accept"
	default:
		return false
	}
}

// IsExpired reports whether the payment window closed without payment.
func (p NotificationPayload) IsExpired() bool {
	return p.TransactionStatus == "expire"
}

// IsFailed reports terminal gateway failure states.
func (p NotificationPayload) IsFailed() bool {
	return p.TransactionStatus == "deny" || p.TransactionStatus == "cancel" || p.TransactionStatus == "failure"
}

func (c *Client) basicAuth() string {
	encoded := base64.StdEncoding.EncodeToString([]byte(c.serverKey + ":"))
	return "Basic " + encoded
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
