package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/ports"
)

// EffectsService runs the post-approval side effects of a sale: delivery
// flag, member-area provisioning, owner notification and the delivery
// email. Effects are independent and best-effort: one failing is logged
// and never blocks the others, and every effect is idempotent so a replayed
// approval cannot double-provision or double-notify.
type EffectsService struct {
	sales         ports.SaleRepository
	products      ports.ProductRepository
	members       ports.MemberAccessRepository
	notifications ports.NotificationRepository
	emails        ports.EmailQueue
	logger        *zap.Logger
}

// NewEffectsService creates the post-approval effects dispatcher.
func NewEffectsService(
	sales ports.SaleRepository,
	products ports.ProductRepository,
	members ports.MemberAccessRepository,
	notifications ports.NotificationRepository,
	emails ports.EmailQueue,
	logger *zap.Logger,
) *EffectsService {
	return &EffectsService{
		sales:         sales,
		products:      products,
		members:       members,
		notifications: notifications,
		emails:        emails,
		logger:        logger,
	}
}

// RunPostApproval executes every approval effect for the sale. Called only
// by the transition path that won the swap to approved, so it runs at most
// once per sale in the absence of crashes; the idempotent effects cover the
// crash-replay case.
func (s *EffectsService) RunPostApproval(ctx context.Context, sale *domain.Sale) {
	product, err := s.products.Get(ctx, sale.ProductID)
	if err != nil {
		s.logger.Error("post-approval: product lookup failed",
			zap.String("sale_id", sale.ID),
			zap.String("product_id", sale.ProductID),
			zap.Error(err))
		return
	}

	// Step 1: flag the sale for the delivery email worker.
	if err := s.sales.MarkDeliveryEmailPending(ctx, sale.ID); err != nil {
		s.logger.Error("post-approval: marking delivery email failed",
			zap.String("sale_id", sale.ID), zap.Error(err))
	}

	// Step 2: provision member-area access when the product calls for it.
	var tempPassword string
	if product.Delivery == domain.DeliveryMemberArea {
		tempPassword = s.provisionAccess(ctx, sale, product)
	}

	// Step 3: notify the product owner.
	s.notifyOwner(ctx, sale, product)

	// Step 4: enqueue the delivery email. The temporary credential rides
	// along only when access was minted in this very run.
	s.enqueueEmail(ctx, sale, product, tempPassword)
}

// provisionAccess mints a member-area entitlement for the buyer. Returns the
// plaintext temporary password only when the record was created now; an
// existing entitlement keeps its credential and returns empty.
func (s *EffectsService) provisionAccess(ctx context.Context, sale *domain.Sale, product *domain.Product) string {
	email := strings.ToLower(strings.TrimSpace(sale.Customer.Email))

	tempPassword := uuid.NewString()[:8]
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("post-approval: hashing credential failed",
			zap.String("sale_id", sale.ID), zap.Error(err))
		return ""
	}

	created, err := s.members.CreateIfAbsent(ctx, &domain.MemberAccess{
		Email:         email,
		ProductID:     product.ID,
		PasswordHash:  string(hash),
		ProvisionedAt: time.Now(),
	})
	if err != nil {
		s.logger.Error("post-approval: provisioning access failed",
			zap.String("sale_id", sale.ID), zap.Error(err))
		return ""
	}
	if !created {
		// Buyer already has access to this product; nothing to mint.
		return ""
	}

	s.logger.Info("member access provisioned",
		zap.String("sale_id", sale.ID),
		zap.String("product_id", product.ID))
	return tempPassword
}

// notifyOwner records the internal "sale approved" notification.
func (s *EffectsService) notifyOwner(ctx context.Context, sale *domain.Sale, product *domain.Product) {
	n := &domain.Notification{
		ID:        uuid.NewString(),
		SellerID:  product.SellerID,
		SaleID:    sale.ID,
		Message:   "Venda aprovada: " + product.Name + " (" + sale.Amount.Format() + ")",
		CreatedAt: time.Now(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		s.logger.Error("post-approval: creating notification failed",
			zap.String("sale_id", sale.ID), zap.Error(err))
	}
}

// enqueueEmail hands the delivery message to the mailer queue.
func (s *EffectsService) enqueueEmail(ctx context.Context, sale *domain.Sale, product *domain.Product, tempPassword string) {
	email := &domain.DeliveryEmail{
		SaleID:       sale.ID,
		To:           sale.Customer.Email,
		ProductName:  product.Name,
		TempPassword: tempPassword,
		EnqueuedAt:   time.Now(),
	}
	if err := s.emails.Enqueue(ctx, email); err != nil {
		s.logger.Error("post-approval: enqueuing delivery email failed",
			zap.String("sale_id", sale.ID), zap.Error(err))
	}
}
