package domain

import "fmt"

// MercadoPagoCredentials is the secret material for a seller's Mercado
// Pago account.
type MercadoPagoCredentials struct {
	AccessToken string
	PublicKey   string
}

// PushinPayCredentials is the secret material for a seller's PushinPay
// account.
type PushinPayCredentials struct {
	Token string
}

// EfiCredentials is the secret material for a seller's Efí (Gerencianet)
// account. The certificate is the PKCS#12 file Efí issues for mTLS.
type EfiCredentials struct {
	ClientID            string
	ClientSecret        string
	PixKey              string
	CertificatePath     string
	CertificatePassword string
	Sandbox             bool
}

// Credentials is the per-seller, per-gateway credential record resolved by
// the registry. Exactly one of the provider fields is set, matching Gateway.
// Values are never logged or echoed back; validation errors name the missing
// field only.
type Credentials struct {
	SellerID string
	Gateway  string

	MercadoPago *MercadoPagoCredentials
	PushinPay   *PushinPayCredentials
	Efi         *EfiCredentials
}

// Validate checks that the record carries every field its gateway requires.
func (c *Credentials) Validate() error {
	switch c.Gateway {
	case GatewayMercadoPago:
		if c.MercadoPago == nil || c.MercadoPago.AccessToken == "" {
			return fmt.Errorf("%w: mercadopago access token missing", ErrGatewayNotConfigured)
		}
	case GatewayPushinPay:
		if c.PushinPay == nil || c.PushinPay.Token == "" {
			return fmt.Errorf("%w: pushinpay token missing", ErrGatewayNotConfigured)
		}
	case GatewayEfi:
		if c.Efi == nil {
			return fmt.Errorf("%w: efi credentials missing", ErrGatewayNotConfigured)
		}
		switch {
		case c.Efi.ClientID == "":
			return fmt.Errorf("%w: efi client id missing", ErrGatewayNotConfigured)
		case c.Efi.ClientSecret == "":
			return fmt.Errorf("%w: efi client secret missing", ErrGatewayNotConfigured)
		case c.Efi.PixKey == "":
			return fmt.Errorf("%w: efi pix key missing", ErrGatewayNotConfigured)
		case c.Efi.CertificatePath == "":
			return fmt.Errorf("%w: efi certificate missing", ErrGatewayNotConfigured)
		}
	default:
		return fmt.Errorf("%w: unknown gateway %q", ErrGatewayNotConfigured, c.Gateway)
	}
	return nil
}
