package service

import (
	"context"
	"fmt"
	"log"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletService is the wallet ledger: append-only balance-changing
// transactions paired with exactly one balance delta on the member row.
// Both writes commit together or not at all.
type WalletService interface {
	Credit(ctx context.Context, req WalletTxRequest) (*model.WalletTransaction, error)
	Debit(ctx context.Context, req WalletTxRequest) (*model.WalletTransaction, error)
	Balance(ctx context.Context, memberID uuid.UUID) (decimal.Decimal, error)
	Transactions(ctx context.Context, memberID uuid.UUID, page, limit int) ([]model.WalletTransaction, int64, error)
}

// WalletTxRequest describes one balance movement.
type WalletTxRequest struct {
	MemberID      uuid.UUID
	Amount        decimal.Decimal
	PaymentMethod string
	ReferenceNo   string
	Notes         string
	ProcessedByID *uuid.UUID
}

type walletService struct {
	memberRepo repository.MemberRepository
	walletRepo repository.WalletRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewWalletService(
	memberRepo repository.MemberRepository,
	walletRepo repository.WalletRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) WalletService {
	return &walletService{
		memberRepo: memberRepo,
		walletRepo: walletRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
	}
}

// Credit adds funds. No balance precondition: a zero or negative starting
// balance may become positive.
func (s *walletService) Credit(ctx context.Context, req WalletTxRequest) (*model.WalletTransaction, error) {
	return s.apply(ctx, model.WalletTxCredit, req)
}

// Debit removes funds. The balance check runs under a row lock on the
// member inside the same transaction that writes the balance change, so a
// concurrent debit cannot slip between check and write.
func (s *walletService) Debit(ctx context.Context, req WalletTxRequest) (*model.WalletTransaction, error) {
	return s.apply(ctx, model.WalletTxDebit, req)
}

func (s *walletService) apply(ctx context.Context, txType string, req WalletTxRequest) (*model.WalletTransaction, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("wallet %s of %s: %w", txType, req.Amount, ErrInvalidAmount)
	}

	var walletTx *model.WalletTransaction
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		member, err := s.memberRepo.FindByIDForUpdate(txCtx, req.MemberID)
		if err != nil {
			return fmt.Errorf("member not found: %w", err)
		}

		var newBalance decimal.Decimal
		switch txType {
		case model.WalletTxDebit:
			if req.Amount.GreaterThan(member.WalletBalance) {
				return fmt.Errorf("debit %s exceeds balance %s: %w",
					req.Amount, member.WalletBalance, ErrInsufficientFunds)
			}
			newBalance = member.WalletBalance.Sub(req.Amount)
		case model.WalletTxCredit:
			newBalance = member.WalletBalance.Add(req.Amount)
		default:
			return fmt.Errorf("%w: unknown wallet transaction type %q", ErrValidation, txType)
		}

		walletTx = &model.WalletTransaction{
			MemberID:        req.MemberID,
			Amount:          req.Amount,
			Type:            txType,
			Status:          model.WalletTxCompleted,
			PaymentMethod:   req.PaymentMethod,
			ReferenceNumber: req.ReferenceNo,
			Notes:           req.Notes,
			ProcessedByID:   req.ProcessedByID,
		}
		if err := s.walletRepo.Create(txCtx, walletTx); err != nil {
			return fmt.Errorf("failed to write wallet transaction: %w", err)
		}

		if err := s.memberRepo.UpdateWalletBalance(txCtx, member.ID, newBalance); err != nil {
			return fmt.Errorf("failed to update wallet balance: %w", err)
		}

		action := model.ActionWalletCredit
		if txType == model.WalletTxDebit {
			action = model.ActionWalletDebit
		}
		s.audit(txCtx, &model.AuditLog{
			UserID:      req.ProcessedByID,
			Action:      action,
			Description: fmt.Sprintf("%s %s, ref %s", txType, req.Amount.StringFixed(2), req.ReferenceNo),
			OldValue:    fmt.Sprintf(`{"balance": "%s"}`, member.WalletBalance.StringFixed(2)),
			NewValue:    fmt.Sprintf(`{"balance": "%s"}`, newBalance.StringFixed(2)),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return walletTx, nil
}

func (s *walletService) Balance(ctx context.Context, memberID uuid.UUID) (decimal.Decimal, error) {
	member, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("member not found: %w", err)
	}
	return member.WalletBalance, nil
}

func (s *walletService) Transactions(ctx context.Context, memberID uuid.UUID, page, limit int) ([]model.WalletTransaction, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.walletRepo.ListByMember(ctx, memberID, page, limit)
}

func (s *walletService) audit(ctx context.Context, entry *model.AuditLog) {
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Printf("WARNING: failed to write audit log (%s): %v", entry.Action, err)
	}
}
