// Package domain contains the core business entities for the checkout engine.
// This is the innermost layer - no external dependencies.
package domain

import "time"

// PaymentMethod identifies the payment channel chosen at checkout.
type PaymentMethod string

const (
	MethodPix        PaymentMethod = "pix"
	MethodCreditCard PaymentMethod = "credit_card"
	MethodBoleto     PaymentMethod = "boleto"
)

// Valid reports whether the method is one of the supported channels.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodPix, MethodCreditCard, MethodBoleto:
		return true
	}
	return false
}

// DeliveryType identifies how a product reaches the buyer after approval.
type DeliveryType string

const (
	DeliveryLink       DeliveryType = "link"
	DeliveryEmailPDF   DeliveryType = "email_pdf"
	DeliveryMemberArea DeliveryType = "member_area"
	DeliveryPhysical   DeliveryType = "physical"
)

// Customer holds the buyer identity captured at checkout.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	CPF   string `json:"cpf"`
	Phone string `json:"phone"`
}

// Address is the optional shipping/billing address. Boleto and physical
// deliveries require it complete.
type Address struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// Complete reports whether every required address field is present.
// Complement is the only optional field.
func (a *Address) Complete() bool {
	if a == nil {
		return false
	}
	return a.CEP != "" && a.Street != "" && a.Number != "" &&
		a.Neighborhood != "" && a.City != "" && a.State != ""
}

// Attribution carries the marketing fields captured at checkout time.
// They are opaque pass-through strings replayed to vendor webhooks.
type Attribution struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Content  string `json:"utm_content,omitempty"`
	Term     string `json:"utm_term,omitempty"`
}

// Sale is the central entity of the engine. Amount is fixed at creation
// time (product price plus selected add-ons) and never recomputed.
type Sale struct {
	ID            string        `json:"id"`
	ProductID     string        `json:"product_id"`
	SellerID      string        `json:"seller_id"`
	Amount        Money         `json:"amount"`
	Method        PaymentMethod `json:"payment_method"`
	Status        Status        `json:"status"`
	ProviderTxID  string        `json:"provider_tx_id,omitempty"`
	Gateway       string        `json:"gateway"`
	Customer      Customer      `json:"customer"`
	Address       *Address      `json:"address,omitempty"`
	Attribution   Attribution   `json:"attribution"`
	AddOnIDs      []string      `json:"add_on_ids,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	DeliveryEmail bool          `json:"delivery_email_pending"`
}

// AddOn is a secondary product offered for simultaneous purchase at
// checkout (order bump).
type AddOn struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"` // the secondary product being sold
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Price       Money  `json:"price"`
	Active      bool   `json:"active"`
}

// Product is the sellable item behind a hosted checkout page.
// Read-only to this engine.
type Product struct {
	ID            string       `json:"id"`
	CheckoutHash  string       `json:"checkout_hash"` // public, non-sequential checkout identifier
	Name          string       `json:"name"`
	Price         Money        `json:"price"`
	PreviousPrice Money        `json:"previous_price,omitempty"`
	Gateway       string       `json:"gateway"`
	Delivery      DeliveryType `json:"delivery_type"`
	SellerID      string       `json:"seller_id"`
	AddOns        []AddOn      `json:"add_ons,omitempty"`
}

// SelectAddOns resolves the submitted add-on ids against the product's own
// add-ons, silently dropping unknown or inactive ones, and returns the
// validated selection plus its price sum.
func (p *Product) SelectAddOns(ids []string) ([]AddOn, Money) {
	var selected []AddOn
	var total Money
	for _, id := range ids {
		for _, a := range p.AddOns {
			if a.ID == id && a.Active {
				selected = append(selected, a)
				total = total.Add(a.Price)
				break
			}
		}
	}
	return selected, total
}

// MemberAccess grants a buyer entitlement to a member-area product.
// Created exactly once per (email, product) pair.
type MemberAccess struct {
	Email         string    `json:"email"`
	ProductID     string    `json:"product_id"`
	PasswordHash  string    `json:"-"`
	ProvisionedAt time.Time `json:"provisioned_at"` // anchors content drip-release elsewhere
}

// VendorWebhookSubscription is an externally registered destination that
// wants to hear about sale transitions.
type VendorWebhookSubscription struct {
	ID        string `json:"id"`
	SellerID  string `json:"seller_id"`
	URL       string `json:"url"`
	ProductID string `json:"product_id,omitempty"` // empty = all products of the seller

	// One interest flag per canonical status.
	OnPending     bool `json:"on_pending"`
	OnPixCreated  bool `json:"on_pix_created"`
	OnApproved    bool `json:"on_approved"`
	OnRejected    bool `json:"on_rejected"`
	OnCancelled   bool `json:"on_cancelled"`
	OnRefunded    bool `json:"on_refunded"`
	OnChargedBack bool `json:"on_charged_back"`
}

// WantsStatus reports whether the subscription's flag for the given
// canonical status is set.
func (s *VendorWebhookSubscription) WantsStatus(st Status) bool {
	switch st {
	case StatusPending:
		return s.OnPending
	case StatusPixCreated:
		return s.OnPixCreated
	case StatusApproved:
		return s.OnApproved
	case StatusRejected:
		return s.OnRejected
	case StatusCancelled:
		return s.OnCancelled
	case StatusRefunded:
		return s.OnRefunded
	case StatusChargedBack:
		return s.OnChargedBack
	}
	return false
}

// Notification is an internal "sale approved" record addressed to the
// product owner. A dashboard outside this engine consumes it.
type Notification struct {
	ID        string    `json:"id"`
	SellerID  string    `json:"seller_id"`
	SaleID    string    `json:"sale_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// DeliveryEmail is an enqueued welcome/delivery message. A mailer worker
// outside this engine sends it.
type DeliveryEmail struct {
	SaleID       string    `json:"sale_id"`
	To           string    `json:"to"`
	ProductName  string    `json:"product_name"`
	TempPassword string    `json:"temp_password,omitempty"` // only set when access was just minted
	EnqueuedAt   time.Time `json:"enqueued_at"`
}
