package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
)

func TestSaleLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSaleStore()

	sale := &domain.Sale{
		ID:        "sale-1",
		ProductID: "prod-1",
		SellerID:  "seller-1",
		Amount:    domain.Money(34700),
		Method:    domain.MethodPix,
		Status:    domain.StatusPending,
		Gateway:   domain.GatewayPushinPay,
		CreatedAt: time.Now(),
	}
	if err := store.Create(ctx, sale); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.AttachProviderTx(ctx, "sale-1", "tx-9", domain.StatusPixCreated); err != nil {
		t.Fatalf("AttachProviderTx: %v", err)
	}

	got, err := store.GetByProviderTx(ctx, domain.GatewayPushinPay, "tx-9")
	if err != nil {
		t.Fatalf("GetByProviderTx: %v", err)
	}
	if got.ID != "sale-1" || got.Status != domain.StatusPixCreated {
		t.Errorf("got %+v", got)
	}

	// Lookup is scoped by gateway: the same tx id on another gateway misses.
	if _, err := store.GetByProviderTx(ctx, domain.GatewayMercadoPago, "tx-9"); !errors.Is(err, domain.ErrSaleNotFound) {
		t.Errorf("cross-gateway lookup err = %v, want ErrSaleNotFound", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewSaleStore()
	store.Create(ctx, &domain.Sale{ID: "sale-1", Status: domain.StatusPending})

	got, _ := store.Get(ctx, "sale-1")
	got.Status = domain.StatusApproved

	again, _ := store.Get(ctx, "sale-1")
	if again.Status != domain.StatusPending {
		t.Error("mutation of a returned sale leaked into the store")
	}
}

func TestCompareAndSwapStatus(t *testing.T) {
	ctx := context.Background()
	store := NewSaleStore()
	store.Create(ctx, &domain.Sale{ID: "sale-1", Status: domain.StatusPixCreated})

	won, err := store.CompareAndSwapStatus(ctx, "sale-1", domain.StatusPixCreated, domain.StatusApproved)
	if err != nil || !won {
		t.Fatalf("first swap: won=%v err=%v", won, err)
	}

	// Replay with the stale `from` loses without error.
	won, err = store.CompareAndSwapStatus(ctx, "sale-1", domain.StatusPixCreated, domain.StatusApproved)
	if err != nil {
		t.Fatalf("second swap: %v", err)
	}
	if won {
		t.Error("stale swap reported as won")
	}

	if _, err := store.CompareAndSwapStatus(ctx, "missing", domain.StatusPending, domain.StatusApproved); !errors.Is(err, domain.ErrSaleNotFound) {
		t.Errorf("missing sale err = %v, want ErrSaleNotFound", err)
	}
}

func TestCompareAndSwapStatusRace(t *testing.T) {
	ctx := context.Background()
	store := NewSaleStore()
	store.Create(ctx, &domain.Sale{ID: "sale-1", Status: domain.StatusPixCreated})

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := store.CompareAndSwapStatus(ctx, "sale-1", domain.StatusPixCreated, domain.StatusApproved)
			if err != nil {
				t.Errorf("swap: %v", err)
			}
			if won {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("%d goroutines won the swap, want exactly 1", wins)
	}
}

func TestMemberCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewMemberStore()

	access := &domain.MemberAccess{
		Email:         "maria@example.com",
		ProductID:     "prod-1",
		PasswordHash:  "$2a$10$abcdef",
		ProvisionedAt: time.Now(),
	}

	created, err := store.CreateIfAbsent(ctx, access)
	if err != nil || !created {
		t.Fatalf("first insert: created=%v err=%v", created, err)
	}

	created, err = store.CreateIfAbsent(ctx, &domain.MemberAccess{
		Email: "maria@example.com", ProductID: "prod-1", PasswordHash: "other",
	})
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if created {
		t.Error("duplicate (email, product) pair created a second record")
	}

	// The first record survives untouched.
	got, err := store.Get(ctx, "maria@example.com", "prod-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PasswordHash != "$2a$10$abcdef" {
		t.Error("duplicate insert overwrote the original credential hash")
	}

	// Same email, different product is a distinct entitlement.
	created, _ = store.CreateIfAbsent(ctx, &domain.MemberAccess{
		Email: "maria@example.com", ProductID: "prod-2",
	})
	if !created {
		t.Error("distinct product pair was treated as duplicate")
	}
}

func TestMemberCreateIfAbsentRace(t *testing.T) {
	ctx := context.Background()
	store := NewMemberStore()

	var created int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.CreateIfAbsent(ctx, &domain.MemberAccess{
				Email: "maria@example.com", ProductID: "prod-1",
			})
			if err != nil {
				t.Errorf("CreateIfAbsent: %v", err)
			}
			if ok {
				atomic.AddInt32(&created, 1)
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("%d records created for one (email, product) pair, want 1", created)
	}
}

func TestCatalogLookups(t *testing.T) {
	ctx := context.Background()
	store := NewCatalogStore()

	store.SeedProduct(&domain.Product{
		ID:           "prod-1",
		CheckoutHash: "a1b2c3",
		SellerID:     "seller-1",
		Price:        domain.Money(29700),
	})

	p, err := store.GetByCheckoutHash(ctx, "a1b2c3")
	if err != nil || p.ID != "prod-1" {
		t.Fatalf("GetByCheckoutHash: %+v, %v", p, err)
	}
	if _, err := store.GetByCheckoutHash(ctx, "nope"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("unknown hash err = %v, want ErrProductNotFound", err)
	}

	store.SeedCredentials(&domain.Credentials{
		SellerID:  "seller-1",
		Gateway:   domain.GatewayPushinPay,
		PushinPay: &domain.PushinPayCredentials{Token: "t"},
	})
	if _, err := store.GetCredentials(ctx, "seller-1", domain.GatewayPushinPay); err != nil {
		t.Errorf("GetCredentials: %v", err)
	}
	if _, err := store.GetCredentials(ctx, "seller-1", domain.GatewayEfi); !errors.Is(err, domain.ErrGatewayNotConfigured) {
		t.Errorf("unconfigured gateway err = %v, want ErrGatewayNotConfigured", err)
	}
}

func TestSubscriptionScoping(t *testing.T) {
	ctx := context.Background()
	store := NewCatalogStore()

	store.SeedSubscription(&domain.VendorWebhookSubscription{
		ID: "sub-global", SellerID: "seller-1", URL: "https://crm.example.com/hook",
	})
	store.SeedSubscription(&domain.VendorWebhookSubscription{
		ID: "sub-scoped", SellerID: "seller-1", ProductID: "prod-1", URL: "https://utmify.example.com/hook",
	})
	store.SeedSubscription(&domain.VendorWebhookSubscription{
		ID: "sub-other-product", SellerID: "seller-1", ProductID: "prod-2", URL: "https://x.example.com",
	})
	store.SeedSubscription(&domain.VendorWebhookSubscription{
		ID: "sub-other-seller", SellerID: "seller-2", URL: "https://y.example.com",
	})

	subs, err := store.ListForProduct(ctx, "seller-1", "prod-1")
	if err != nil {
		t.Fatalf("ListForProduct: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("got %d subscriptions, want 2 (global + scoped)", len(subs))
	}
	for _, sub := range subs {
		if sub.ID != "sub-global" && sub.ID != "sub-scoped" {
			t.Errorf("unexpected subscription %s", sub.ID)
		}
	}
}
