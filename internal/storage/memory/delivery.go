package memory

import (
	"context"
	"sync"

	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/ports"
)

// MemberStore is an in-memory ports.MemberAccessRepository.
type MemberStore struct {
	mu     sync.Mutex
	access map[string]*domain.MemberAccess // email+"/"+productID
}

// NewMemberStore creates an empty member store.
func NewMemberStore() *MemberStore {
	return &MemberStore{access: make(map[string]*domain.MemberAccess)}
}

// CreateIfAbsent inserts the access record unless one already exists for its
// (email, product) pair. The check and the insert happen under one lock, so
// two concurrent approvals create exactly one record.
func (s *MemberStore) CreateIfAbsent(_ context.Context, access *domain.MemberAccess) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := access.Email + "/" + access.ProductID
	if _, exists := s.access[key]; exists {
		return false, nil
	}
	cp := *access
	s.access[key] = &cp
	return true, nil
}

// Get returns the access record for an (email, product) pair.
func (s *MemberStore) Get(_ context.Context, email, productID string) (*domain.MemberAccess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	access, ok := s.access[email+"/"+productID]
	if !ok {
		return nil, domain.ErrAccessNotFound
	}
	cp := *access
	return &cp, nil
}

// NotificationStore is an in-memory ports.NotificationRepository.
type NotificationStore struct {
	mu            sync.Mutex
	notifications []*domain.Notification
}

// NewNotificationStore creates an empty notification store.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{}
}

// Create appends a notification.
func (s *NotificationStore) Create(_ context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.notifications = append(s.notifications, &cp)
	return nil
}

// All returns the stored notifications. Test helper.
func (s *NotificationStore) All() []*domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// EmailQueueStore is an in-memory ports.EmailQueue.
type EmailQueueStore struct {
	mu     sync.Mutex
	queued []*domain.DeliveryEmail
}

// NewEmailQueueStore creates an empty email queue.
func NewEmailQueueStore() *EmailQueueStore {
	return &EmailQueueStore{}
}

// Enqueue appends a delivery email for the mailer worker.
func (s *EmailQueueStore) Enqueue(_ context.Context, email *domain.DeliveryEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *email
	s.queued = append(s.queued, &cp)
	return nil
}

// All returns the queued emails. Test helper.
func (s *EmailQueueStore) All() []*domain.DeliveryEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.DeliveryEmail, len(s.queued))
	copy(out, s.queued)
	return out
}

var (
	_ ports.MemberAccessRepository = (*MemberStore)(nil)
	_ ports.NotificationRepository = (*NotificationStore)(nil)
	_ ports.EmailQueue             = (*EmailQueueStore)(nil)
)
