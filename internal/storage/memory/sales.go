// Package memory provides in-memory repository implementations. They back
// the engine in tests and single-node deployments; the conditional writes
// are atomic under the store mutex, matching what the SQL equivalents do
// with conditional UPDATE ... WHERE status = ? statements.
package memory

import (
	"context"
	"sync"

	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/ports"
)

// SaleStore is an in-memory ports.SaleRepository.
type SaleStore struct {
	mu    sync.RWMutex
	sales map[string]*domain.Sale

	// byProviderTx indexes gateway+"/"+providerTxID -> sale id.
	byProviderTx map[string]string
}

// NewSaleStore creates an empty sale store.
func NewSaleStore() *SaleStore {
	return &SaleStore{
		sales:        make(map[string]*domain.Sale),
		byProviderTx: make(map[string]string),
	}
}

// Create stores a new sale.
func (s *SaleStore) Create(_ context.Context, sale *domain.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sale
	s.sales[sale.ID] = &cp
	return nil
}

// Get returns a copy of the sale.
func (s *SaleStore) Get(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}
	cp := *sale
	return &cp, nil
}

// GetByProviderTx locates the sale a provider webhook refers to.
func (s *SaleStore) GetByProviderTx(_ context.Context, gateway, providerTxID string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byProviderTx[gateway+"/"+providerTxID]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}
	cp := *s.sales[id]
	return &cp, nil
}

// AttachProviderTx records the provider transaction id and the initial
// post-gateway status on a freshly created sale.
func (s *SaleStore) AttachProviderTx(_ context.Context, id, providerTxID string, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[id]
	if !ok {
		return domain.ErrSaleNotFound
	}
	sale.ProviderTxID = providerTxID
	sale.Status = status
	s.byProviderTx[sale.Gateway+"/"+providerTxID] = id
	return nil
}

// CompareAndSwapStatus transitions the sale from exactly `from` to `to`
// under the store lock. Two racing callers cannot both win.
func (s *SaleStore) CompareAndSwapStatus(_ context.Context, id string, from, to domain.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[id]
	if !ok {
		return false, domain.ErrSaleNotFound
	}
	if sale.Status != from {
		return false, nil
	}
	sale.Status = to
	return true, nil
}

// MarkDeliveryEmailPending sets the delivery-email flag. Idempotent.
func (s *SaleStore) MarkDeliveryEmailPending(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[id]
	if !ok {
		return domain.ErrSaleNotFound
	}
	sale.DeliveryEmail = true
	return nil
}

var _ ports.SaleRepository = (*SaleStore)(nil)
