package memory

import (
	"context"
	"sync"

	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/ports"
)

// CatalogStore is an in-memory ProductRepository, CredentialsRepository and
// SubscriptionRepository. Catalog data is written by an admin surface outside
// this engine, so the store only needs seed helpers plus the read paths.
type CatalogStore struct {
	mu            sync.RWMutex
	products      map[string]*domain.Product
	byHash        map[string]string
	credentials   map[string]*domain.Credentials // sellerID+"/"+gateway
	subscriptions []*domain.VendorWebhookSubscription
}

// NewCatalogStore creates an empty catalog store.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		products:    make(map[string]*domain.Product),
		byHash:      make(map[string]string),
		credentials: make(map[string]*domain.Credentials),
	}
}

// SeedProduct registers a product.
func (s *CatalogStore) SeedProduct(p *domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	s.byHash[p.CheckoutHash] = p.ID
}

// SeedCredentials registers a seller's gateway credentials.
func (s *CatalogStore) SeedCredentials(c *domain.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[c.SellerID+"/"+c.Gateway] = c
}

// SeedSubscription registers a vendor webhook subscription.
func (s *CatalogStore) SeedSubscription(sub *domain.VendorWebhookSubscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions = append(s.subscriptions, sub)
}

// GetByCheckoutHash resolves the public checkout identifier to a product.
func (s *CatalogStore) GetByCheckoutHash(_ context.Context, hash string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHash[hash]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return s.products[id], nil
}

// Get returns a product by id.
func (s *CatalogStore) Get(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

// GetCredentials returns the seller's credentials for one gateway.
func (s *CatalogStore) GetCredentials(_ context.Context, sellerID, gateway string) (*domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.credentials[sellerID+"/"+gateway]
	if !ok {
		return nil, domain.ErrGatewayNotConfigured
	}
	return c, nil
}

// ListForProduct returns the subscriptions scoped to the product plus the
// seller's global ones.
func (s *CatalogStore) ListForProduct(_ context.Context, sellerID, productID string) ([]*domain.VendorWebhookSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.VendorWebhookSubscription
	for _, sub := range s.subscriptions {
		if sub.SellerID != sellerID {
			continue
		}
		if sub.ProductID == "" || sub.ProductID == productID {
			out = append(out, sub)
		}
	}
	return out, nil
}

// credentialsAdapter narrows CatalogStore to ports.CredentialsRepository.
type credentialsAdapter struct{ *CatalogStore }

func (a credentialsAdapter) Get(ctx context.Context, sellerID, gateway string) (*domain.Credentials, error) {
	return a.GetCredentials(ctx, sellerID, gateway)
}

// Credentials returns the store as a ports.CredentialsRepository.
func (s *CatalogStore) Credentials() ports.CredentialsRepository {
	return credentialsAdapter{s}
}

var (
	_ ports.ProductRepository      = (*CatalogStore)(nil)
	_ ports.SubscriptionRepository = (*CatalogStore)(nil)
)
