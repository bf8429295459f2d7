package service

import (
	"fmt"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv wires the full service graph against an in-memory database.
type testEnv struct {
	db          *gorm.DB
	orderSvc    OrderService
	walletSvc   WalletService
	stockSvc    StockService
	invoiceSvc  InvoiceService
	allocator   SequenceAllocator
	memberRepo  repository.MemberRepository
	variantRepo repository.VariantRepository
	ledgerRepo  repository.StockLedgerRepository
	walletRepo  repository.WalletRepository
	orderRepo   repository.OrderRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())),
		&gorm.Config{TranslateError: true},
	)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Member{},
		&model.Depot{},
		&model.Product{},
		&model.DepotProductVariant{},
		&model.Order{},
		&model.OrderItem{},
		&model.StockLedgerEntry{},
		&model.WalletTransaction{},
		&model.SequenceCounter{},
		&model.AuditLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	txManager := repository.NewTransactionManager(db)
	memberRepo := repository.NewMemberRepository(db)
	depotRepo := repository.NewDepotRepository(db)
	productRepo := repository.NewProductRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	ledgerRepo := repository.NewStockLedgerRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	allocator := NewSequenceAllocator(sequenceRepo, "SNF")
	stockSvc := NewStockService(variantRepo, ledgerRepo, auditRepo, txManager)
	walletSvc := NewWalletService(memberRepo, walletRepo, auditRepo, txManager)
	invoiceSvc := NewInvoiceService(orderRepo, auditRepo, allocator, txManager, t.TempDir())
	orderSvc := NewOrderService(
		orderRepo, memberRepo, depotRepo, variantRepo, productRepo, auditRepo,
		allocator, walletSvc, stockSvc, invoiceSvc, txManager,
	)

	return &testEnv{
		db:          db,
		orderSvc:    orderSvc,
		walletSvc:   walletSvc,
		stockSvc:    stockSvc,
		invoiceSvc:  invoiceSvc,
		allocator:   allocator,
		memberRepo:  memberRepo,
		variantRepo: variantRepo,
		ledgerRepo:  ledgerRepo,
		walletRepo:  walletRepo,
		orderRepo:   orderRepo,
	}
}

func seedMember(t *testing.T, env *testEnv, balance string) *model.Member {
	t.Helper()
	b, err := decimal.NewFromString(balance)
	if err != nil {
		t.Fatalf("parse balance: %v", err)
	}
	member := &model.Member{
		Name:          "Test Member",
		Phone:         fmt.Sprintf("9%09d", seedCount(t, env)),
		WalletBalance: b,
	}
	if err := env.db.Create(member).Error; err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return member
}

func seedCount(t *testing.T, env *testEnv) int {
	t.Helper()
	var n int64
	if err := env.db.Model(&model.Member{}).Count(&n).Error; err != nil {
		t.Fatalf("count members: %v", err)
	}
	return int(n)
}

func seedDepot(t *testing.T, env *testEnv, name string, isDefault bool) *model.Depot {
	t.Helper()
	depot := &model.Depot{Name: name, IsDefault: isDefault}
	if err := env.db.Create(depot).Error; err != nil {
		t.Fatalf("seed depot: %v", err)
	}
	return depot
}

func seedProduct(t *testing.T, env *testEnv, name, price string) *model.Product {
	t.Helper()
	p, err := decimal.NewFromString(price)
	if err != nil {
		t.Fatalf("parse price: %v", err)
	}
	product := &model.Product{Name: name, Unit: "kg", Price: p}
	if err := env.db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func seedVariant(t *testing.T, env *testEnv, depot *model.Depot, product *model.Product, price string, closingQty int) *model.DepotProductVariant {
	t.Helper()
	p, err := decimal.NewFromString(price)
	if err != nil {
		t.Fatalf("parse price: %v", err)
	}
	variant := &model.DepotProductVariant{
		DepotID:    depot.ID,
		ProductID:  product.ID,
		Name:       "1kg pack",
		Price:      p,
		ClosingQty: closingQty,
	}
	if err := env.db.Create(variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant
}

func floatPtr(f float64) *float64 { return &f }
