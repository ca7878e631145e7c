// Package walletclient talks to the external wallet ledger, which owns the
// members' monetary accounts. The tontine core only ever uses its atomic
// debit/credit contract.
package walletclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")
	ErrAccountNotFound   = errors.New("wallet: account not found")
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type movementPayload struct {
	Amount int64  `json:"amount"`
	Memo   string `json:"memo"`
}

// Debit withdraws amount from the account. The wallet service serializes
// movements per account; a 402 means the balance would go negative.
func (c *Client) Debit(ctx context.Context, accountRef string, amount int64, memo string) error {
	return c.post(ctx, accountRef, "debit", amount, memo)
}

// Credit deposits amount into the account.
func (c *Client) Credit(ctx context.Context, accountRef string, amount int64, memo string) error {
	return c.post(ctx, accountRef, "credit", amount, memo)
}

func (c *Client) post(ctx context.Context, accountRef, action string, amount int64, memo string) error {
	if c.baseURL == "" {
		return fmt.Errorf("wallet service base URL is not configured")
	}

	url := fmt.Sprintf("%s/internal/accounts/%s/%s", c.baseURL, accountRef, action)

	body, err := json.Marshal(movementPayload{
		Amount: amount,
		Memo:   memo,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request to wallet service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 400:
		return nil
	case resp.StatusCode == http.StatusPaymentRequired:
		return ErrInsufficientFunds
	case resp.StatusCode == http.StatusNotFound:
		return ErrAccountNotFound
	default:
		return fmt.Errorf("wallet service returned error status %d", resp.StatusCode)
	}
}
