package efi

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// TokenManager caches the OAuth2 client-credentials token and refreshes it
// shortly before expiry. Safe for concurrent use.
type TokenManager struct {
	clientID     string
	clientSecret string
	baseURL      string
	httpClient   *http.Client

	mu          sync.RWMutex
	token       string
	expiresAt   time.Time
	refreshLead time.Duration
}

// NewTokenManager creates a token manager bound to one seller's credentials.
func NewTokenManager(clientID, clientSecret, baseURL string, httpClient *http.Client) *TokenManager {
	return &TokenManager{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      baseURL,
		httpClient:   httpClient,
		refreshLead:  60 * time.Second,
	}
}

// GetToken returns a valid token, refreshing when the cached one is near expiry.
func (tm *TokenManager) GetToken() (string, error) {
	tm.mu.RLock()
	if tm.token != "" && time.Now().Add(tm.refreshLead).Before(tm.expiresAt) {
		token := tm.token
		tm.mu.RUnlock()
		return token, nil
	}
	tm.mu.RUnlock()

	return tm.refresh()
}

// refresh obtains a fresh token from the OAuth endpoint.
func (tm *TokenManager) refresh() (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock.
	if tm.token != "" && time.Now().Add(tm.refreshLead).Before(tm.expiresAt) {
		return tm.token, nil
	}

	body := strings.NewReader(`{"grant_type":"client_credentials"}`)
	req, err := http.NewRequest(http.MethodPost, tm.baseURL+"/oauth/token", body)
	if err != nil {
		return "", fmt.Errorf("creating auth request: %w", err)
	}

	credentials := base64.StdEncoding.EncodeToString(
		[]byte(tm.clientID + ":" + tm.clientSecret),
	)
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/json")

	resp, err := tm.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading auth response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Mensagem != "" {
			return "", fmt.Errorf("authentication failed: %w", &apiErr)
		}
		return "", fmt.Errorf("authentication failed: status %d", resp.StatusCode)
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(respBody, &tokenResp); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}

	tm.token = tokenResp.AccessToken
	tm.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	return tm.token, nil
}

// Invalidate forces a refresh on the next GetToken call. Called on 401.
func (tm *TokenManager) Invalidate() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.token = ""
	tm.expiresAt = time.Time{}
}
