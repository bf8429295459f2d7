package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockService is the ledger writer: it appends immutable stock movements
// and keeps the variant's cached closing quantity in step with the ledger
// aggregate. The two writes always happen in the same transaction.
//
// Issuing beyond on-hand stock is allowed: insufficient stock logs a
// warning and the movement proceeds (backorder policy). Orders are never
// blocked on stock.
type StockService interface {
	Issue(ctx context.Context, variantID uuid.UUID, qty int, module string, orderID uuid.UUID) error
	Receive(ctx context.Context, variantID uuid.UUID, qty int, module string, userID *uuid.UUID) (*model.DepotProductVariant, error)
	OnHand(ctx context.Context, productID, variantID, depotID uuid.UUID) (int, error)
	VariantsByDepot(ctx context.Context, depotID uuid.UUID, page, limit int) ([]model.DepotProductVariant, int64, error)
}

type stockService struct {
	variantRepo repository.VariantRepository
	ledgerRepo  repository.StockLedgerRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewStockService(
	variantRepo repository.VariantRepository,
	ledgerRepo repository.StockLedgerRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) StockService {
	return &stockService{
		variantRepo: variantRepo,
		ledgerRepo:  ledgerRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// Issue appends a ledger entry with issuedQty = qty and decrements the
// variant's cached closing quantity by the same amount, both inside the
// ambient transaction.
func (s *stockService) Issue(ctx context.Context, variantID uuid.UUID, qty int, module string, orderID uuid.UUID) error {
	if qty <= 0 {
		return fmt.Errorf("%w: issue quantity must be positive", ErrValidation)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		variant, err := s.variantRepo.FindByIDForUpdate(txCtx, variantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("variant %s: %w", variantID, ErrResolution)
			}
			return fmt.Errorf("failed to lock variant: %w", err)
		}

		oid := orderID
		entry := &model.StockLedgerEntry{
			ProductID:  variant.ProductID,
			VariantID:  variant.ID,
			DepotID:    variant.DepotID,
			IssuedQty:  qty,
			Module:     module,
			ForeignKey: &oid,
		}
		if err := s.ledgerRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write stock ledger entry: %w", err)
		}

		newClosing := variant.ClosingQty - qty
		if newClosing < 0 {
			// Backorder-tolerant: issuance may exceed on-hand stock.
			log.Printf("WARNING: variant %s stock went negative (closing %d after issuing %d, module %s, order %s)",
				variant.ID, newClosing, qty, module, orderID)
		}
		if err := s.variantRepo.UpdateClosingQty(txCtx, variant.ID, newClosing); err != nil {
			return fmt.Errorf("failed to update closing quantity: %w", err)
		}

		return nil
	})
}

// Receive appends a ledger entry with receivedQty = qty and increments the
// cached closing quantity. Used by the depot stock-intake flow.
func (s *stockService) Receive(ctx context.Context, variantID uuid.UUID, qty int, module string, userID *uuid.UUID) (*model.DepotProductVariant, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: receive quantity must be positive", ErrValidation)
	}

	var variant *model.DepotProductVariant
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var lockErr error
		variant, lockErr = s.variantRepo.FindByIDForUpdate(txCtx, variantID)
		if lockErr != nil {
			if errors.Is(lockErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("variant %s: %w", variantID, ErrResolution)
			}
			return fmt.Errorf("failed to lock variant: %w", lockErr)
		}

		entry := &model.StockLedgerEntry{
			ProductID:   variant.ProductID,
			VariantID:   variant.ID,
			DepotID:     variant.DepotID,
			ReceivedQty: qty,
			Module:      module,
		}
		if err := s.ledgerRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write stock ledger entry: %w", err)
		}

		variant.ClosingQty += qty
		if err := s.variantRepo.UpdateClosingQty(txCtx, variant.ID, variant.ClosingQty); err != nil {
			return fmt.Errorf("failed to update closing quantity: %w", err)
		}

		s.audit(txCtx, &model.AuditLog{
			UserID:      userID,
			Action:      model.ActionReceiveStock,
			Description: fmt.Sprintf("received %d units of %s", qty, variant.Name),
			NewValue:    fmt.Sprintf(`{"closing_qty": %d}`, variant.ClosingQty),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return variant, nil
}

func (s *stockService) OnHand(ctx context.Context, productID, variantID, depotID uuid.UUID) (int, error) {
	return s.ledgerRepo.OnHand(ctx, productID, variantID, depotID)
}

func (s *stockService) VariantsByDepot(ctx context.Context, depotID uuid.UUID, page, limit int) ([]model.DepotProductVariant, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.variantRepo.ListByDepot(ctx, depotID, page, limit)
}

// audit writes best-effort; failures never abort the owning transaction.
func (s *stockService) audit(ctx context.Context, entry *model.AuditLog) {
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Printf("WARNING: failed to write audit log (%s): %v", entry.Action, err)
	}
}
