// Package pushinpay implements the Gateway interface for PushinPay, a
// PIX-only provider with token auth and a small REST surface.
package pushinpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/ports"
)

const defaultBaseURL = "https://api.pushinpay.com.br"

// Client implements ports.Gateway for PushinPay. One instance per seller.
type Client struct {
	baseURL    string
	token      string
	webhookURL string
	pixExpiry  time.Duration
	httpClient *http.Client
}

// Options tunes the client beyond the seller's credentials.
type Options struct {
	// BaseURL overrides the production endpoint. Tests point it at a fake.
	BaseURL string

	// WebhookURL is sent with every charge so PushinPay calls us back.
	WebhookURL string

	PixExpiry time.Duration
	Timeout   time.Duration
}

// New creates a PushinPay client for one seller.
func New(creds *domain.PushinPayCredentials, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.PixExpiry == 0 {
		opts.PixExpiry = 30 * time.Minute
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    opts.BaseURL,
		token:      creds.Token,
		webhookURL: opts.WebhookURL,
		pixExpiry:  opts.PixExpiry,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

// CreatePayment creates a PIX cash-in charge. PushinPay supports nothing else.
func (c *Client) CreatePayment(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
	if req.Method != domain.MethodPix {
		return nil, fmt.Errorf("%w: pushinpay only supports pix, got %s", domain.ErrUnsupportedMethod, req.Method)
	}

	body := cashInRequest{
		Value:      req.Amount.Cents(),
		WebhookURL: c.webhookURL,
	}

	var tx transactionResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/pix/cashIn", body, &tx); err != nil {
		return nil, err
	}

	return &ports.PaymentResult{
		ProviderTxID: tx.ID,
		Status:       domain.NormalizeStatus(domain.GatewayPushinPay, tx.Status),
		Pix: &ports.PixData{
			QRCode:       tx.QRCode,
			QRCodeBase64: tx.QRCodeBase64,
			CopyPaste:    tx.QRCode,
			ExpiresAt:    time.Now().Add(c.pixExpiry),
		},
	}, nil
}

// GetStatus queries a transaction's current status and normalizes it.
func (c *Client) GetStatus(ctx context.Context, providerTxID string) (domain.Status, error) {
	var tx transactionResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/transactions/"+providerTxID, nil, &tx); err != nil {
		return "", err
	}
	return domain.NormalizeStatus(domain.GatewayPushinPay, tx.Status), nil
}

// doRequest performs an authenticated request and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(respBody, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = string(respBody)
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, apiErr)
		}
		return fmt.Errorf("%w: %w", domain.ErrValidation, apiErr)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshaling response: %w", err)
		}
	}
	return nil
}

var _ ports.Gateway = (*Client)(nil)
