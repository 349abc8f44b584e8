// Package ports defines the interfaces (ports) for the checkout engine.
// These are contracts that adapters must implement.
package ports

import (
	"context"
	"time"

	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
)

// CardData holds raw card fields submitted at checkout. They exist only
// long enough to be exchanged for a one-time token; they are never stored.
type CardData struct {
	Number     string
	HolderName string
	ExpMonth   string
	ExpYear    string
	CVV        string
}

// PaymentRequest is the canonical charge request handed to a gateway adapter.
type PaymentRequest struct {
	SaleID      string
	Amount      domain.Money
	Description string
	Customer    domain.Customer
	Address     *domain.Address
	Method      domain.PaymentMethod

	// Credit card only: a pre-minted one-time token and installment count.
	CardToken    string
	Installments int
}

// PixData carries the artifacts a PIX charge produces.
type PixData struct {
	QRCode       string    `json:"qrCode"`
	QRCodeBase64 string    `json:"qrCodeBase64"`
	CopyPaste    string    `json:"copyPaste"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// BoletoData carries the artifacts a boleto charge produces.
type BoletoData struct {
	Barcode   string    `json:"barcode"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PaymentResult is the canonical outcome of a charge creation.
type PaymentResult struct {
	ProviderTxID string
	Status       domain.Status

	Pix    *PixData
	Boleto *BoletoData
}

// Gateway abstracts one payment provider. Implementations are constructed
// per seller from that seller's credentials.
type Gateway interface {
	// CreatePayment creates a charge with the provider. A provider decline
	// is not an error: it comes back as a result with StatusRejected.
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)

	// GetStatus queries the provider for the current status of a payment.
	// Used by webhook flows whose payloads carry no status, and for
	// reconciliation.
	GetStatus(ctx context.Context, providerTxID string) (domain.Status, error)
}

// CardTokenizer is implemented by gateways that can exchange raw card
// fields for a one-time token. Tokenization failure is a validation error.
type CardTokenizer interface {
	MintCardToken(ctx context.Context, card CardData) (string, error)
}

// SaleRepository persists sales. The two conditional writes are the
// concurrency boundary of the engine: they must be atomic.
type SaleRepository interface {
	Create(ctx context.Context, sale *domain.Sale) error
	Get(ctx context.Context, id string) (*domain.Sale, error)

	// GetByProviderTx locates the sale a provider webhook refers to.
	GetByProviderTx(ctx context.Context, gateway, providerTxID string) (*domain.Sale, error)

	// AttachProviderTx records the provider transaction id and the initial
	// post-gateway status on a freshly created sale.
	AttachProviderTx(ctx context.Context, id, providerTxID string, status domain.Status) error

	// CompareAndSwapStatus transitions the sale from exactly `from` to `to`.
	// Returns false when the stored status no longer equals `from`; two
	// racing webhook deliveries cannot both win.
	CompareAndSwapStatus(ctx context.Context, id string, from, to domain.Status) (bool, error)

	// MarkDeliveryEmailPending sets the delivery-email flag. Idempotent.
	MarkDeliveryEmailPending(ctx context.Context, id string) error
}

// ProductRepository resolves products. Read-only to this engine.
type ProductRepository interface {
	GetByCheckoutHash(ctx context.Context, hash string) (*domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

// CredentialsRepository resolves per-seller gateway credentials.
type CredentialsRepository interface {
	Get(ctx context.Context, sellerID, gateway string) (*domain.Credentials, error)
}

// MemberAccessRepository persists member-area entitlements.
type MemberAccessRepository interface {
	// CreateIfAbsent inserts the access record unless one already exists for
	// its (email, product) pair. Returns false (and no error) when it
	// already existed. Must be atomic: two concurrent approvals for the
	// same pair create exactly one row.
	CreateIfAbsent(ctx context.Context, access *domain.MemberAccess) (bool, error)

	Get(ctx context.Context, email, productID string) (*domain.MemberAccess, error)
}

// NotificationRepository records internal notifications for product owners.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// EmailQueue enqueues delivery emails for an out-of-scope mailer worker.
type EmailQueue interface {
	Enqueue(ctx context.Context, email *domain.DeliveryEmail) error
}

// SubscriptionRepository lists vendor webhook subscriptions. Read-only to
// this engine.
type SubscriptionRepository interface {
	// ListForProduct returns the subscriptions scoped to the product plus
	// the seller's global (unscoped) ones.
	ListForProduct(ctx context.Context, sellerID, productID string) ([]*domain.VendorWebhookSubscription, error)
}

// GatewayResolver resolves a gateway name and a seller's credentials to a
// ready adapter instance.
type GatewayResolver interface {
	Resolve(creds *domain.Credentials) (Gateway, error)
}
