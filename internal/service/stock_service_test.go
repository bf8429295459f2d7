package service

import (
	"context"
	"errors"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
)

func TestStockReceiveAppendsLedgerAndRaisesClosing(t *testing.T) {
	env := newTestEnv(t)
	depot := seedDepot(t, env, "Central", true)
	product := seedProduct(t, env, "Rice", "60.00")
	variant := seedVariant(t, env, depot, product, "60.00", 0)
	ctx := context.Background()

	updated, err := env.stockSvc.Receive(ctx, variant.ID, 20, model.StockModuleDepotReceive, nil)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if updated.ClosingQty != 20 {
		t.Errorf("closing qty = %d, want 20", updated.ClosingQty)
	}

	onHand, err := env.stockSvc.OnHand(ctx, product.ID, variant.ID, depot.ID)
	if err != nil {
		t.Fatalf("on hand: %v", err)
	}
	if onHand != 20 {
		t.Errorf("on hand = %d, want 20", onHand)
	}
}

func TestStockIssueAppendsLedgerAndLowersClosing(t *testing.T) {
	env := newTestEnv(t)
	depot := seedDepot(t, env, "Central", true)
	product := seedProduct(t, env, "Rice", "60.00")
	variant := seedVariant(t, env, depot, product, "60.00", 0)
	ctx := context.Background()
	orderID := uuid.New()

	if _, err := env.stockSvc.Receive(ctx, variant.ID, 20, model.StockModuleDepotReceive, nil); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if err := env.stockSvc.Issue(ctx, variant.ID, 7, model.StockModuleCart, orderID); err != nil {
		t.Fatalf("issue: %v", err)
	}

	var reloaded model.DepotProductVariant
	if err := env.db.First(&reloaded, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("reload variant: %v", err)
	}
	if reloaded.ClosingQty != 13 {
		t.Errorf("closing qty = %d, want 13", reloaded.ClosingQty)
	}

	// Ledger aggregate and cache must agree.
	onHand, err := env.stockSvc.OnHand(ctx, product.ID, variant.ID, depot.ID)
	if err != nil {
		t.Fatalf("on hand: %v", err)
	}
	if onHand != reloaded.ClosingQty {
		t.Errorf("on hand %d != closing qty %d", onHand, reloaded.ClosingQty)
	}

	entries, err := env.ledgerRepo.ListByOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d ledger entries for order, want 1", len(entries))
	}
	if entries[0].IssuedQty != 7 || entries[0].ReceivedQty != 0 {
		t.Errorf("entry issued/received = %d/%d, want 7/0", entries[0].IssuedQty, entries[0].ReceivedQty)
	}
	if entries[0].Module != model.StockModuleCart {
		t.Errorf("entry module = %q, want %q", entries[0].Module, model.StockModuleCart)
	}
}

func TestStockIssueBeyondOnHandProceeds(t *testing.T) {
	env := newTestEnv(t)
	depot := seedDepot(t, env, "Central", true)
	product := seedProduct(t, env, "Rice", "60.00")
	variant := seedVariant(t, env, depot, product, "60.00", 2)
	ctx := context.Background()

	// Backorder policy: issuing past zero is allowed and recorded.
	if err := env.stockSvc.Issue(ctx, variant.ID, 5, model.StockModuleCart, uuid.New()); err != nil {
		t.Fatalf("issue beyond stock: %v", err)
	}

	var reloaded model.DepotProductVariant
	if err := env.db.First(&reloaded, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("reload variant: %v", err)
	}
	if reloaded.ClosingQty != -3 {
		t.Errorf("closing qty = %d, want -3", reloaded.ClosingQty)
	}
}

func TestStockIssueUnknownVariant(t *testing.T) {
	env := newTestEnv(t)

	err := env.stockSvc.Issue(context.Background(), uuid.New(), 1, model.StockModuleCart, uuid.New())
	if !errors.Is(err, ErrResolution) {
		t.Errorf("err = %v, want ErrResolution", err)
	}
}

func TestStockRejectsNonPositiveQuantities(t *testing.T) {
	env := newTestEnv(t)
	depot := seedDepot(t, env, "Central", true)
	product := seedProduct(t, env, "Rice", "60.00")
	variant := seedVariant(t, env, depot, product, "60.00", 10)
	ctx := context.Background()

	if err := env.stockSvc.Issue(ctx, variant.ID, 0, model.StockModuleCart, uuid.New()); !errors.Is(err, ErrValidation) {
		t.Errorf("issue 0: err = %v, want ErrValidation", err)
	}
	if _, err := env.stockSvc.Receive(ctx, variant.ID, -4, model.StockModuleDepotReceive, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("receive -4: err = %v, want ErrValidation", err)
	}
}
