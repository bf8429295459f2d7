package service

import (
	"context"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	Username    string `json:"username"`
	Action      string `json:"action"`
	Description string `json:"description"`
	OldValue    string `json:"old_value,omitempty"`
	NewValue    string `json:"new_value,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error)
	GetOrderHistory(ctx context.Context, orderID string) ([]AuditLogResponse, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	logs, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	return mapAuditLogs(logs), total, nil
}

// GetOrderHistory returns the full change trail of one order, oldest first.
func (s *auditService) GetOrderHistory(ctx context.Context, orderID string) ([]AuditLogResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid order id", ErrValidation)
	}

	logs, err := s.repo.ListByOrder(ctx, oid)
	if err != nil {
		return nil, err
	}

	return mapAuditLogs(logs), nil
}

func mapAuditLogs(logs []model.AuditLog) []AuditLogResponse {
	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		username := "System"
		if l.User != nil {
			username = l.User.Username
		}

		entry := AuditLogResponse{
			ID:          l.ID.String(),
			Username:    username,
			Action:      l.Action,
			Description: l.Description,
			OldValue:    l.OldValue,
			NewValue:    l.NewValue,
			CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if l.OrderID != nil {
			entry.OrderID = l.OrderID.String()
		}
		if l.UserID != nil {
			entry.UserID = l.UserID.String()
		}

		res = append(res, entry)
	}
	return res
}
