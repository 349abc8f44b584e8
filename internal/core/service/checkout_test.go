package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/ports"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/storage/memory"
)

// fakeGateway scripts CreatePayment and GetStatus per test.
type fakeGateway struct {
	createFn func(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error)
	statusFn func(ctx context.Context, providerTxID string) (domain.Status, error)
}

func (f *fakeGateway) CreatePayment(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
	return f.createFn(ctx, req)
}

func (f *fakeGateway) GetStatus(ctx context.Context, providerTxID string) (domain.Status, error) {
	if f.statusFn == nil {
		return domain.StatusPending, nil
	}
	return f.statusFn(ctx, providerTxID)
}

// fakeTokenizer is a fakeGateway that also mints card tokens.
type fakeTokenizer struct {
	fakeGateway
	mintFn func(ctx context.Context, card ports.CardData) (string, error)
}

func (f *fakeTokenizer) MintCardToken(ctx context.Context, card ports.CardData) (string, error) {
	return f.mintFn(ctx, card)
}

// fakeResolver hands back a scripted gateway regardless of credentials.
type fakeResolver struct {
	gw  ports.Gateway
	err error
}

func (f *fakeResolver) Resolve(creds *domain.Credentials) (ports.Gateway, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.gw, nil
}

type checkoutFixture struct {
	catalog *memory.CatalogStore
	sales   *memory.SaleStore
	service *CheckoutService
}

func newCheckoutFixture(t *testing.T, gw ports.Gateway) *checkoutFixture {
	t.Helper()
	catalog := memory.NewCatalogStore()
	sales := memory.NewSaleStore()

	catalog.SeedProduct(&domain.Product{
		ID:           "prod-1",
		CheckoutHash: "a1b2c3",
		Name:         "Curso Completo",
		Price:        domain.Money(29700),
		Gateway:      domain.GatewayPushinPay,
		Delivery:     domain.DeliveryMemberArea,
		SellerID:     "seller-1",
		AddOns: []domain.AddOn{
			{ID: "bump-1", Price: 4700, Active: true},
			{ID: "bump-off", Price: 1000, Active: false},
		},
	})
	catalog.SeedCredentials(&domain.Credentials{
		SellerID:  "seller-1",
		Gateway:   domain.GatewayPushinPay,
		PushinPay: &domain.PushinPayCredentials{Token: "t"},
	})

	svc := NewCheckoutService(catalog, sales, catalog.Credentials(),
		&fakeResolver{gw: gw}, nil, zaptest.NewLogger(t))

	return &checkoutFixture{catalog: catalog, sales: sales, service: svc}
}

func buyer() domain.Customer {
	return domain.Customer{Name: "Maria Silva", Email: "maria@example.com", CPF: "12345678901"}
}

func TestCheckoutPix(t *testing.T) {
	ctx := context.Background()

	var seenAmount domain.Money
	var saleExistedPending bool
	fix := (*checkoutFixture)(nil)

	gw := &fakeGateway{createFn: func(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
		seenAmount = req.Amount
		// The sale row must already exist, pending, when the gateway runs.
		if sale, err := fix.sales.Get(ctx, req.SaleID); err == nil && sale.Status == domain.StatusPending {
			saleExistedPending = true
		}
		return &ports.PaymentResult{
			ProviderTxID: "tx-1",
			Status:       domain.StatusPixCreated,
			Pix:          &ports.PixData{CopyPaste: "00020126..."},
		}, nil
	}}
	fix = newCheckoutFixture(t, gw)

	out, err := fix.service.Checkout(ctx, CheckoutInput{
		CheckoutHash: "a1b2c3",
		Method:       domain.MethodPix,
		Customer:     buyer(),
		AddOnIDs:     []string{"bump-1", "bump-off", "foreign-id"},
	})
	require.NoError(t, err)

	// Price is product + active selected add-ons; inactive and foreign ids
	// are dropped, and the client never dictates the amount.
	assert.Equal(t, domain.Money(34400), seenAmount)
	assert.Equal(t, domain.Money(34400), out.Amount)
	assert.True(t, saleExistedPending, "sale must be created pending before the gateway call")

	assert.Equal(t, domain.StatusPixCreated, out.Status)
	assert.NotNil(t, out.Pix)

	stored, err := fix.sales.Get(ctx, out.SaleID)
	require.NoError(t, err)
	assert.Equal(t, "tx-1", stored.ProviderTxID)
	assert.Equal(t, domain.StatusPixCreated, stored.Status)
	assert.Equal(t, []string{"bump-1"}, stored.AddOnIDs)
}

func TestCheckoutPixInitialStatus(t *testing.T) {
	// Providers without a dedicated "charge created" state (Mercado Pago
	// reports a fresh PIX charge as plain "pending") must still leave the
	// sale in pix_created so the QR waiting screen has something to poll.
	tests := []struct {
		name          string
		method        domain.PaymentMethod
		gatewayStatus domain.Status
		want          domain.Status
	}{
		{"pix reported pending", domain.MethodPix,
			domain.NormalizeStatus(domain.GatewayMercadoPago, "pending"), domain.StatusPixCreated},
		{"pix reported pix_created", domain.MethodPix, domain.StatusPixCreated, domain.StatusPixCreated},
		{"pix approved synchronously", domain.MethodPix, domain.StatusApproved, domain.StatusApproved},
		{"card approved", domain.MethodCreditCard, domain.StatusApproved, domain.StatusApproved},
		{"card rejected", domain.MethodCreditCard, domain.StatusRejected, domain.StatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			gw := &fakeGateway{createFn: func(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
				return &ports.PaymentResult{ProviderTxID: "tx-1", Status: tt.gatewayStatus}, nil
			}}
			fix := newCheckoutFixture(t, gw)

			in := CheckoutInput{
				CheckoutHash: "a1b2c3",
				Method:       tt.method,
				Customer:     buyer(),
			}
			if tt.method == domain.MethodCreditCard {
				in.CardToken = "tok-1"
			}

			out, err := fix.service.Checkout(ctx, in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Status)

			stored, err := fix.sales.Get(ctx, out.SaleID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.Status)
		})
	}
}

func TestCheckoutUnknownHash(t *testing.T) {
	fix := newCheckoutFixture(t, &fakeGateway{})

	_, err := fix.service.Checkout(context.Background(), CheckoutInput{
		CheckoutHash: "nope",
		Method:       domain.MethodPix,
		Customer:     buyer(),
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCheckoutGatewayNotConfigured(t *testing.T) {
	ctx := context.Background()
	catalog := memory.NewCatalogStore()
	sales := memory.NewSaleStore()
	catalog.SeedProduct(&domain.Product{
		ID: "prod-1", CheckoutHash: "a1b2c3", Name: "Curso",
		Price: 29700, Gateway: domain.GatewayEfi, SellerID: "seller-1",
	})
	// No credentials seeded for efi.

	svc := NewCheckoutService(catalog, sales, catalog.Credentials(),
		&fakeResolver{gw: &fakeGateway{}}, nil, zaptest.NewLogger(t))

	_, err := svc.Checkout(ctx, CheckoutInput{
		CheckoutHash: "a1b2c3",
		Method:       domain.MethodPix,
		Customer:     buyer(),
	})
	assert.ErrorIs(t, err, domain.ErrGatewayNotConfigured)

	var ce *domain.CheckoutError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "GATEWAY_NOT_CONFIGURED", ce.Code)
	// The buyer-safe message never leaks credential details.
	assert.NotContains(t, ce.Message, "token")
}

func TestCheckoutUnsupportedMethod(t *testing.T) {
	gw := &fakeGateway{createFn: func(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
		return nil, domain.ErrUnsupportedMethod
	}}
	fix := newCheckoutFixture(t, gw)

	_, err := fix.service.Checkout(context.Background(), CheckoutInput{
		CheckoutHash: "a1b2c3",
		Method:       domain.MethodCreditCard,
		CardToken:    "tok-1",
		Customer:     buyer(),
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedMethod)

	var ce *domain.CheckoutError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "METHOD_NOT_SUPPORTED", ce.Code)
}

func TestCheckoutBoletoRequiresAddress(t *testing.T) {
	fix := newCheckoutFixture(t, &fakeGateway{createFn: func(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
		t.Fatal("gateway must not be called without a complete address")
		return nil, nil
	}})

	_, err := fix.service.Checkout(context.Background(), CheckoutInput{
		CheckoutHash: "a1b2c3",
		Method:       domain.MethodBoleto,
		Customer:     buyer(),
		Address:      &domain.Address{CEP: "01310-100", Street: "Av. Paulista"},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	var ce *domain.CheckoutError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "ADDRESS_REQUIRED", ce.Code)
}

func TestCheckoutTokenizationFailure(t *testing.T) {
	gw := &fakeTokenizer{
		fakeGateway: fakeGateway{createFn: func(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
			t.Fatal("charge must not be attempted after tokenization fails")
			return nil, nil
		}},
		mintFn: func(ctx context.Context, card ports.CardData) (string, error) {
			return "", errors.New("invalid card number")
		},
	}
	fix := newCheckoutFixture(t, gw)

	_, err := fix.service.Checkout(context.Background(), CheckoutInput{
		CheckoutHash: "a1b2c3",
		Method:       domain.MethodCreditCard,
		Customer:     buyer(),
		Card:         &ports.CardData{Number: "4111111111111111"},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCheckoutProviderFailureLeavesPendingSale(t *testing.T) {
	ctx := context.Background()

	var saleID string
	gw := &fakeGateway{createFn: func(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
		saleID = req.SaleID
		return nil, domain.ErrProviderUnavailable
	}}
	fix := newCheckoutFixture(t, gw)

	_, err := fix.service.Checkout(ctx, CheckoutInput{
		CheckoutHash: "a1b2c3",
		Method:       domain.MethodPix,
		Customer:     buyer(),
	})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)

	// The pending sale survives the failure for later reconciliation.
	require.NotEmpty(t, saleID)
	sale, err := fix.sales.Get(ctx, saleID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, sale.Status)
	assert.Empty(t, sale.ProviderTxID)
}

func TestSaleStatus(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{createFn: func(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
		return &ports.PaymentResult{ProviderTxID: "tx-1", Status: domain.StatusPixCreated}, nil
	}}
	fix := newCheckoutFixture(t, gw)

	out, err := fix.service.Checkout(ctx, CheckoutInput{
		CheckoutHash: "a1b2c3",
		Method:       domain.MethodPix,
		Customer:     buyer(),
	})
	require.NoError(t, err)

	status, err := fix.service.SaleStatus(ctx, out.SaleID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPixCreated, status.Status)
	assert.Equal(t, "Curso Completo", status.ProductName)

	_, err = fix.service.SaleStatus(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSaleNotFound)
}
