package pushinpay

import "fmt"

// cashInRequest is the body of POST /api/pix/cashIn. Value is in centavos.
type cashInRequest struct {
	Value      int64  `json:"value"`
	WebhookURL string `json:"webhook_url,omitempty"`
}

// transactionResponse is returned by cashIn and by the transaction lookup.
type transactionResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Value        int64  `json:"value"`
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
}

// APIError represents an error response from the PushinPay API.
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("pushinpay api error (status %d): %s", e.StatusCode, e.Message)
}
