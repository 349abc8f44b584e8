package efi

import "fmt"

// TokenResponse is the OAuth2 client-credentials grant response.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// PixCalendario carries the charge expiry in seconds.
type PixCalendario struct {
	Criacao   string `json:"criacao,omitempty"`
	Expiracao int    `json:"expiracao"`
}

// PixValor carries the charge amount as a decimal string ("347.00").
type PixValor struct {
	Original string `json:"original"`
}

// PixDevedor identifies the payer.
type PixDevedor struct {
	Nome string `json:"nome,omitempty"`
	CPF  string `json:"cpf,omitempty"`
	CNPJ string `json:"cnpj,omitempty"`
}

// PixCobRequest is the body of PUT /v2/cob/{txid}.
type PixCobRequest struct {
	Calendario     PixCalendario `json:"calendario"`
	Devedor        *PixDevedor   `json:"devedor,omitempty"`
	Valor          PixValor      `json:"valor"`
	Chave          string        `json:"chave"`
	SolicitacaoPag string        `json:"solicitacaoPagador,omitempty"`
}

// PixLoc is the payload location embedded in a charge response.
type PixLoc struct {
	ID       int    `json:"id"`
	Location string `json:"location"`
}

// PixCobResponse is the charge the API returns on creation and lookup.
type PixCobResponse struct {
	TxID          string        `json:"txid"`
	Status        string        `json:"status"`
	Calendario    PixCalendario `json:"calendario"`
	Valor         PixValor      `json:"valor"`
	Loc           PixLoc        `json:"loc"`
	Location      string        `json:"location"`
	PixCopiaECola string        `json:"pixCopiaECola"`
}

// QRCodeResponse is returned by GET /v2/loc/{id}/qrcode.
type QRCodeResponse struct {
	QRCode         string `json:"qrcode"`
	ImagemQRCode   string `json:"imagemQrcode"`
	LinkVisualizar string `json:"linkVisualizacao"`
}

// PixWebhookPayload is the body Efí posts when a charge is paid.
type PixWebhookPayload struct {
	Pix []PixWebhookEntry `json:"pix"`
}

// PixWebhookEntry is one settled PIX inside a webhook payload.
type PixWebhookEntry struct {
	TxID       string `json:"txid"`
	EndToEndID string `json:"endToEndId"`
	Valor      string `json:"valor"`
	Horario    string `json:"horario"`
}

// APIError represents an error response from the Efí API.
type APIError struct {
	StatusCode int
	Nome       string `json:"nome"`
	Mensagem   string `json:"mensagem"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("efi api error (status %d): %s - %s", e.StatusCode, e.Nome, e.Mensagem)
}
