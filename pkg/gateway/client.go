// Package gateway wraps the payment provider's HTTP API: off-session charges
// against saved instruments, customer creation, and hosted payment links.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type ChargeStatus string

const (
	ChargeStatusSucceeded ChargeStatus = "succeeded"
	// ChargeStatusRequiresAction means the customer must complete strong
	// authentication; the automated channel cannot finish the charge.
	ChargeStatusRequiresAction ChargeStatus = "requires_action"
	ChargeStatusFailed         ChargeStatus = "failed"
)

type ChargeRequest struct {
	CustomerRef    string            `json:"customer"`
	InstrumentRef  string            `json:"payment_method"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	IdempotencyKey string            `json:"-"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type ChargeResult struct {
	ID            string       `json:"id"`
	Status        ChargeStatus `json:"status"`
	FailureReason string       `json:"failure_reason,omitempty"`
}

// Client is the payment gateway surface the engine depends on.
type Client interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	CreatePaymentLink(ctx context.Context, reference string, amount int64, currency string) (string, error)
}

// HTTPClient talks to the real gateway over HTTPS.
type HTTPClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *errorResponse) String() string {
	return fmt.Sprintf("%s: %s", e.Error.Code, e.Error.Message)
}

func (c *HTTPClient) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	var result ChargeResult
	if err := c.post(ctx, "/v1/charges", req.IdempotencyKey, req, &result); err != nil {
		return nil, fmt.Errorf("create charge: %w", err)
	}
	return &result, nil
}

func (c *HTTPClient) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	body := map[string]string{"email": email, "name": name}
	var result struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/v1/customers", "", body, &result); err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return result.ID, nil
}

func (c *HTTPClient) CreatePaymentLink(ctx context.Context, reference string, amount int64, currency string) (string, error) {
	body := map[string]any{
		"reference": reference,
		"amount":    amount,
		"currency":  currency,
	}
	var result struct {
		URL string `json:"url"`
	}
	if err := c.post(ctx, "/v1/payment_links", "", body, &result); err != nil {
		return "", fmt.Errorf("create payment link: %w", err)
	}
	return result.URL, nil
}

func (c *HTTPClient) post(ctx context.Context, path, idempotencyKey string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		if jsonErr := json.Unmarshal(data, &errResp); jsonErr == nil && errResp.Error.Code != "" {
			return fmt.Errorf("gateway %s returned %d: %s", path, resp.StatusCode, errResp.String())
		}
		return fmt.Errorf("gateway %s returned %d", path, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}

	return nil
}
