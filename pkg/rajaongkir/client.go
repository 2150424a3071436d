package rajaongkir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://rajaongkir.komerce.id/api/v1"
	requestBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("rajaongkir api key is required")

// Client wraps the Komerce RajaOngkir cost-calculation API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
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

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the RajaOngkir client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// CostRequest describes a domestic shipping cost lookup.
type CostRequest struct {
	Origin      int64
	Destination int64
	WeightGrams int
	Courier     string
}

// Rate is one courier service option returned by the API.
type Rate struct {
	Courier     string
	Service     string
	Description string
	Cost        int64
	Etd         string
}

// Cost fetches the available courier rates for the given lane and weight.
func (c *Client) Cost(ctx context.Context, req CostRequest) ([]Rate, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "rajaongkir client not configured")
	}
	if req.Origin <= 0 || req.Destination <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "origin and destination are required")
	}
	if req.WeightGrams <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
	}
	if strings.TrimSpace(req.Courier) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier is required")
	}

	form := url.Values{}
	form.Set("origin", strconv.FormatInt(req.Origin, 10))
	form.Set("destination", strconv.FormatInt(req.Destination, 10))
	form.Set("weight", strconv.Itoa(req.WeightGrams))
	form.Set("courier", strings.ToLower(strings.TrimSpace(req.Courier)))

	endpoint := c.buildURL("calculate/domestic-cost")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build cost request")
	}

	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute cost request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "cost request failed")
	}

	var apiResp struct {
		Meta struct {
			Code    int    `json:"code"`
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"meta"`
		Data []struct {
			ShippingName string `json:"shipping_name"`
			ServiceName  string `json:"service_name"`
			Description  string `json:"description"`
			ShippingCost int64  `json:"shipping_cost"`
			Etd          string `json:"etd"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cost response")
	}
	if apiResp.Meta.Code != 0 && apiResp.Meta.Code != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("rajaongkir error: %s", apiResp.Meta.Message))
	}

	rates := make([]Rate, 0, len(apiResp.Data))
	for _, row := range apiResp.Data {
		rates = append(rates, Rate{
			Courier:     strings.ToLower(row.ShippingName),
			Service:     row.ServiceName,
			Description: row.Description,
			Cost:        row.ShippingCost,
			Etd:         row.Etd,
		})
	}

	return rates, nil
}

// Destination is one searchable shipping destination row.
type Destination struct {
	ID              int64
	Label           string
	ProvinceName    string
	CityName        string
	DistrictName    string
	SubdistrictName string
	ZipCode         string
}

// SearchDestination looks up domestic destination ids by free-text query.
// Buyers pick one of these rows when filling a shipping address.
func (c *Client) SearchDestination(ctx context.Context, query string, limit int) ([]Destination, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "rajaongkir client not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("search", query)
	params.Set("limit", strconv.Itoa(limit))

	endpoint := c.buildURL("destination/domestic-destination") + "?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build destination request")
	}
	httpReq.Header.Set("key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute destination request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "destination request failed")
	}

	var apiResp struct {
		Meta struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"meta"`
		Data []struct {
			ID              int64  `json:"id"`
			Label           string `json:"label"`
			ProvinceName    string `json:"province_name"`
			CityName        string `json:"city_name"`
			DistrictName    string `json:"district_name"`
			SubdistrictName string `json:"subdistrict_name"`
			ZipCode         string `json:"zip_code"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode destination response")
	}
	if apiResp.Meta.Code != 0 && apiResp.Meta.Code != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("rajaongkir error: %s", apiResp.Meta.Message))
	}

	destinations := make([]Destination, 0, len(apiResp.Data))
	for _, row := range apiResp.Data {
		destinations = append(destinations, Destination{
			ID:              row.ID,
			Label:           row.Label,
			ProvinceName:    row.ProvinceName,
			CityName:        row.CityName,
			DistrictName:    row.DistrictName,
			SubdistrictName: row.SubdistrictName,
			ZipCode:         row.ZipCode,
		})
	}
	return destinations, nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
