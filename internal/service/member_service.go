package service

import (
	"context"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

type CreateMemberRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
}

type MemberResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email,omitempty"`
	WalletBalance string `json:"wallet_balance"`
	CreatedAt     string `json:"created_at"`
}

type MemberService interface {
	CreateMember(ctx context.Context, req CreateMemberRequest) (MemberResponse, error)
	GetMember(ctx context.Context, id string) (MemberResponse, error)
	ListMembers(ctx context.Context, page, limit int) ([]MemberResponse, int64, error)
}

type memberService struct {
	repo repository.MemberRepository
}

func NewMemberService(repo repository.MemberRepository) MemberService {
	return &memberService{repo: repo}
}

func (s *memberService) CreateMember(ctx context.Context, req CreateMemberRequest) (MemberResponse, error) {
	member := model.Member{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
	}
	if err := s.repo.Create(ctx, &member); err != nil {
		return MemberResponse{}, fmt.Errorf("failed to create member: %w", err)
	}
	return toMemberResponse(member), nil
}

func (s *memberService) GetMember(ctx context.Context, id string) (MemberResponse, error) {
	mid, err := uuid.Parse(id)
	if err != nil {
		return MemberResponse{}, fmt.Errorf("%w: invalid member id", ErrValidation)
	}
	member, err := s.repo.FindByID(ctx, mid)
	if err != nil {
		return MemberResponse{}, fmt.Errorf("member not found: %w", err)
	}
	return toMemberResponse(*member), nil
}

func (s *memberService) ListMembers(ctx context.Context, page, limit int) ([]MemberResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	members, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch members: %w", err)
	}

	result := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		result = append(result, toMemberResponse(m))
	}
	return result, total, nil
}

func toMemberResponse(m model.Member) MemberResponse {
	return MemberResponse{
		ID:            m.ID.String(),
		Name:          m.Name,
		Phone:         m.Phone,
		Email:         m.Email,
		WalletBalance: m.WalletBalance.StringFixed(2),
		CreatedAt:     m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
