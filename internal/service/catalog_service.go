package service

import (
	"context"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateDepotRequest struct {
	Name      string `json:"name" binding:"required"`
	Address   string `json:"address"`
	IsDefault bool   `json:"is_default"`
}

type CreateProductRequest struct {
	Name  string  `json:"name" binding:"required"`
	Unit  string  `json:"unit"`
	Price float64 `json:"price" binding:"min=0"`
}

type CreateVariantRequest struct {
	DepotID   string  `json:"depot_id" binding:"required"`
	ProductID string  `json:"product_id" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	Price     float64 `json:"price" binding:"min=0"`
}

// CatalogService manages depots, products and depot variants. Stock
// movements against variants go through StockService, never through here.
type CatalogService interface {
	CreateDepot(ctx context.Context, req CreateDepotRequest) (*model.Depot, error)
	ListDepots(ctx context.Context) ([]model.Depot, error)
	CreateProduct(ctx context.Context, req CreateProductRequest) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	CreateVariant(ctx context.Context, req CreateVariantRequest) (*model.DepotProductVariant, error)
}

type catalogService struct {
	depotRepo   repository.DepotRepository
	productRepo repository.ProductRepository
	variantRepo repository.VariantRepository
}

func NewCatalogService(
	depotRepo repository.DepotRepository,
	productRepo repository.ProductRepository,
	variantRepo repository.VariantRepository,
) CatalogService {
	return &catalogService{
		depotRepo:   depotRepo,
		productRepo: productRepo,
		variantRepo: variantRepo,
	}
}

func (s *catalogService) CreateDepot(ctx context.Context, req CreateDepotRequest) (*model.Depot, error) {
	depot := model.Depot{
		Name:      req.Name,
		Address:   req.Address,
		IsDefault: req.IsDefault,
	}
	if err := s.depotRepo.Create(ctx, &depot); err != nil {
		return nil, fmt.Errorf("failed to create depot: %w", err)
	}
	return &depot, nil
}

func (s *catalogService) ListDepots(ctx context.Context) ([]model.Depot, error) {
	return s.depotRepo.List(ctx)
}

func (s *catalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*model.Product, error) {
	product := model.Product{
		Name:  req.Name,
		Unit:  req.Unit,
		Price: decimal.NewFromFloat(req.Price).Round(2),
	}
	if err := s.productRepo.Create(ctx, &product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.List(ctx)
}

func (s *catalogService) CreateVariant(ctx context.Context, req CreateVariantRequest) (*model.DepotProductVariant, error) {
	depotID, err := uuid.Parse(req.DepotID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid depot_id", ErrValidation)
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid product_id", ErrValidation)
	}

	if _, err := s.depotRepo.FindByID(ctx, depotID); err != nil {
		return nil, fmt.Errorf("depot %s: %w", req.DepotID, ErrInvalidDepot)
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("product %s: %w", req.ProductID, ErrResolution)
	}

	variant := model.DepotProductVariant{
		DepotID:   depotID,
		ProductID: productID,
		Name:      req.Name,
		Price:     decimal.NewFromFloat(req.Price).Round(2),
	}
	if err := s.variantRepo.Create(ctx, &variant); err != nil {
		return nil, fmt.Errorf("failed to create variant: %w", err)
	}
	return &variant, nil
}
