// Package efi implements the Gateway interface for Efí Bank's PIX API.
// Efí requires mTLS with a PKCS12 certificate and OAuth2 bearer tokens.
package efi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/pkcs12"

	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/ports"
)

const (
	productionBaseURL = "https://pix.api.efipay.com.br"
	sandboxBaseURL    = "https://pix-h.api.efipay.com.br"
)

// Client implements ports.Gateway for Efí Bank. One instance per seller,
// built from that seller's PIX key and mTLS certificate.
type Client struct {
	baseURL      string
	pixKey       string
	pixExpiry    time.Duration
	httpClient   *http.Client
	tokenManager *TokenManager
}

// Options tunes the client beyond the seller's credentials.
type Options struct {
	// BaseURL overrides the Efí endpoint. Tests point it at a fake; when
	// empty the sandbox flag on the credentials picks the real host.
	BaseURL string

	// HTTPClient overrides the mTLS client. When set the certificate on the
	// credentials is not loaded; tests use this to skip mTLS entirely.
	HTTPClient *http.Client

	PixExpiry time.Duration
	Timeout   time.Duration
}

// New creates an Efí client for one seller, loading its PKCS12 certificate
// for mTLS unless an HTTP client is injected.
func New(creds *domain.EfiCredentials, opts Options) (*Client, error) {
	if opts.PixExpiry == 0 {
		opts.PixExpiry = 30 * time.Minute
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = productionBaseURL
		if creds.Sandbox {
			baseURL = sandboxBaseURL
		}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		tlsConfig, err := loadCertificate(creds.CertificatePath, creds.CertificatePassword)
		if err != nil {
			return nil, fmt.Errorf("%w: loading efi certificate: %v", domain.ErrGatewayNotConfigured, err)
		}
		httpClient = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: tlsConfig,
			},
		}
	}

	return &Client{
		baseURL:      baseURL,
		pixKey:       creds.PixKey,
		pixExpiry:    opts.PixExpiry,
		httpClient:   httpClient,
		tokenManager: NewTokenManager(creds.ClientID, creds.ClientSecret, baseURL, httpClient),
	}, nil
}

// loadCertificate loads a PKCS12 (.p12) certificate for mTLS.
func loadCertificate(certPath, password string) (*tls.Config, error) {
	certData, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("reading certificate: %w", err)
	}

	privateKey, certificate, err := pkcs12.Decode(certData, password)
	if err != nil {
		return nil, fmt.Errorf("decoding pkcs12 certificate: %w", err)
	}

	tlsCert := tls.Certificate{
		Certificate: [][]byte{certificate.Raw},
		PrivateKey:  privateKey,
	}

	return &tls.Config{
		Certificates: []tls.Certificate{tlsCert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// CreatePayment creates an immediate PIX charge. Efí supports nothing else
// in this engine.
func (c *Client) CreatePayment(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
	if req.Method != domain.MethodPix {
		return nil, fmt.Errorf("%w: efi only supports pix, got %s", domain.ErrUnsupportedMethod, req.Method)
	}

	// Efí txids must be 26-35 alphanumeric chars; a UUID without hyphens
	// fits and stays traceable from our side.
	txid := strings.ReplaceAll(uuid.NewString(), "-", "")

	efiReq := PixCobRequest{
		Calendario: PixCalendario{
			Expiracao: int(c.pixExpiry.Seconds()),
		},
		Valor: PixValor{
			Original: req.Amount.Format(),
		},
		Chave:          c.pixKey,
		SolicitacaoPag: req.Description,
	}
	if req.Customer.Name != "" || req.Customer.CPF != "" {
		efiReq.Devedor = &PixDevedor{Nome: req.Customer.Name}
		if len(req.Customer.CPF) == 11 {
			efiReq.Devedor.CPF = req.Customer.CPF
		} else if len(req.Customer.CPF) == 14 {
			efiReq.Devedor.CNPJ = req.Customer.CPF
		}
	}

	respBody, err := c.doRequest(ctx, http.MethodPut, "/v2/cob/"+txid, efiReq)
	if err != nil {
		return nil, err
	}

	var cob PixCobResponse
	if err := json.Unmarshal(respBody, &cob); err != nil {
		return nil, fmt.Errorf("decoding charge response: %w", err)
	}

	result := &ports.PaymentResult{
		ProviderTxID: cob.TxID,
		Status:       domain.NormalizeStatus(domain.GatewayEfi, cob.Status),
		Pix: &ports.PixData{
			QRCode:    cob.PixCopiaECola,
			CopyPaste: cob.PixCopiaECola,
			ExpiresAt: time.Now().Add(c.pixExpiry),
		},
	}

	// The base64 image lives behind the charge's loc id.
	if cob.Loc.ID != 0 {
		if qr, err := c.fetchQRCode(ctx, cob.Loc.ID); err == nil {
			result.Pix.QRCodeBase64 = qr.ImagemQRCode
			if result.Pix.QRCode == "" {
				result.Pix.QRCode = qr.QRCode
				result.Pix.CopyPaste = qr.QRCode
			}
		}
	}

	return result, nil
}

// fetchQRCode retrieves the rendered QR code for a charge location.
func (c *Client) fetchQRCode(ctx context.Context, locID int) (*QRCodeResponse, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/v2/loc/"+strconv.Itoa(locID)+"/qrcode", nil)
	if err != nil {
		return nil, err
	}
	var qr QRCodeResponse
	if err := json.Unmarshal(respBody, &qr); err != nil {
		return nil, fmt.Errorf("decoding qrcode response: %w", err)
	}
	return &qr, nil
}

// GetStatus queries a charge by txid and normalizes its status.
func (c *Client) GetStatus(ctx context.Context, providerTxID string) (domain.Status, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/v2/cob/"+providerTxID, nil)
	if err != nil {
		return "", err
	}

	var cob PixCobResponse
	if err := json.Unmarshal(respBody, &cob); err != nil {
		return "", fmt.Errorf("decoding charge response: %w", err)
	}
	return domain.NormalizeStatus(domain.GatewayEfi, cob.Status), nil
}

// RegisterWebhook points Efí's webhook for the seller's PIX key at our
// callback URL. Called once when the seller wires the gateway up.
func (c *Client) RegisterWebhook(ctx context.Context, webhookURL string) error {
	body := map[string]string{"webhookUrl": webhookURL}
	if _, err := c.doRequest(ctx, http.MethodPut, "/v2/webhook/"+c.pixKey, body); err != nil {
		return fmt.Errorf("registering webhook: %w", err)
	}
	return nil
}

// doRequest performs an authenticated request against the Efí API.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	token, err := c.tokenManager.GetToken()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokenManager.Invalidate()
		return nil, fmt.Errorf("%w: token invalid or expired", domain.ErrProviderUnavailable)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Mensagem == "" {
			apiErr.Mensagem = string(respBody)
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, apiErr)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, apiErr)
	}

	return respBody, nil
}

var _ ports.Gateway = (*Client)(nil)
