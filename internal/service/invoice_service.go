package service

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"shopcore/internal/errors"
	"shopcore/internal/model"
	"shopcore/internal/repository"
)

// InvoiceService exposes invoice reads. Owners see their own invoices;
// accounting and admin roles see everything.
type InvoiceService interface {
	Get(ctx context.Context, invoiceID, requesterID uint, role model.Role) (*model.Invoice, error)
	GetByOrder(ctx context.Context, orderID, requesterID uint, role model.Role) (*model.Invoice, error)
	ListMine(ctx context.Context, userID uint) ([]model.Invoice, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
}

// NewInvoiceService creates a new invoice service.
func NewInvoiceService(invoiceRepo repository.InvoiceRepository) InvoiceService {
	return &invoiceService{invoiceRepo: invoiceRepo}
}

func (s *invoiceService) Get(ctx context.Context, invoiceID, requesterID uint, role model.Role) (*model.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrInvoiceNotFound
		}
		return nil, err
	}
	return s.authorize(invoice, requesterID, role)
}

func (s *invoiceService) GetByOrder(ctx context.Context, orderID, requesterID uint, role model.Role) (*model.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrInvoiceNotFound
		}
		return nil, err
	}
	return s.authorize(invoice, requesterID, role)
}

func (s *invoiceService) ListMine(ctx context.Context, userID uint) ([]model.Invoice, error) {
	return s.invoiceRepo.ListByUser(ctx, userID)
}

func (s *invoiceService) authorize(invoice *model.Invoice, requesterID uint, role model.Role) (*model.Invoice, error) {
	if invoice.UserID == requesterID || role.AtLeast(model.RoleCompta) {
		return invoice, nil
	}
	return nil, errors.ErrForbidden
}
