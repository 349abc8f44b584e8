package domain

import "errors"

// Domain errors - represent business rule violations and failure classes
// the checkout flow must tell apart.
var (
	// ErrProductNotFound is returned when a checkout hash matches no product.
	ErrProductNotFound = errors.New("product not found")

	// ErrSaleNotFound is returned when a sale id or provider transaction id
	// matches no sale.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrAccessNotFound is returned when no member access exists for an
	// (email, product) pair.
	ErrAccessNotFound = errors.New("member access not found")

	// ErrGatewayNotConfigured is returned when the seller has not configured
	// the gateway the product selects, or required credential fields are absent.
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")

	// ErrUnsupportedMethod is returned when the chosen payment method is not
	// supported by the product's gateway (e.g. credit card on PushinPay).
	ErrUnsupportedMethod = errors.New("payment method not supported by gateway")

	// ErrValidation is returned when the provider rejected the request shape,
	// e.g. bad card data or a failed tokenization.
	ErrValidation = errors.New("validation error")

	// ErrProviderUnavailable is returned when the gateway is unreachable or
	// answers with a 5xx. Transient; never retried by this engine.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// ErrPaymentRejected is returned when the provider processed the request
	// and declined the payment. Final for that attempt.
	ErrPaymentRejected = errors.New("payment rejected")
)

// CheckoutError wraps a domain error with a buyer-safe message and a
// machine-readable code.
type CheckoutError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface.
func (e *CheckoutError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work with CheckoutError.
func (e *CheckoutError) Unwrap() error {
	return e.Err
}

// NewCheckoutError creates a new CheckoutError.
func NewCheckoutError(err error, message, code string) *CheckoutError {
	return &CheckoutError{Err: err, Message: message, Code: code}
}
