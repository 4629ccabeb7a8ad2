package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrProviderUnavailable covers transport failures and provider 5xx responses.
var ErrProviderUnavailable = errors.New("checkout provider unavailable")

// Client talks to the hosted checkout provider.
type Client struct {
	baseURL   string
	apiKey    string
	returnURL string
	http      *http.Client
}

// NewClient creates a checkout provider client.
func NewClient(baseURL, apiKey, returnURL string) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		returnURL: returnURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CheckoutSession is the provider's response to a session creation request.
type CheckoutSession struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirect_url"`
	Status      string `json:"status"`
}

// CreateSession opens a hosted checkout session for a credit purchase and
// returns the URL the buyer must be redirected to. The transaction ID is
// passed through as metadata so the completion webhook can be matched back.
func (c *Client) CreateSession(ctx context.Context, transactionID, plan string, amountCents, credits int) (*CheckoutSession, error) {
	payload := map[string]any{
		"amount": map[string]any{
			"value":    amountCents,
			"currency": "USD",
		},
		"description": fmt.Sprintf("%s (%d credits)", plan, credits),
		"confirmation": map[string]string{
			"type":       "redirect",
			"return_url": c.returnURL,
		},
		"metadata": map[string]string{
			"transaction_id": transactionID,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode checkout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	// Retried requests reuse the transaction ID, so the provider dedupes.
	req.Header.Set("Idempotency-Key", transactionID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("checkout session rejected: status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode checkout response: %w", err)
	}
	if session.ID == "" || session.RedirectURL == "" {
		return nil, fmt.Errorf("invalid checkout response (missing id or redirect url)")
	}
	if session.Status == "" {
		session.Status = "pending"
	}

	return &session, nil
}
