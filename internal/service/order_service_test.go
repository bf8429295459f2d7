package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"backend/internal/model"
	"backend/pkg/fiscal"

	"github.com/shopspring/decimal"
)

func baseOrderRequest() CreateOrderRequest {
	return CreateOrderRequest{
		CustomerName:  "Asha Rao",
		CustomerPhone: "9876543210",
		AddressLine:   "12 Market Street",
		City:          "Pune",
		Pincode:       "411001",
		DeliveryFee:   10,
		Items: []OrderItemSpec{
			{Name: "Organic Wheat", Price: floatPtr(100), Quantity: 2},
		},
	}
}

func TestCreateOrderComputesTotals(t *testing.T) {
	env := newTestEnv(t)

	order, err := env.orderSvc.CreateOrder(context.Background(), "", baseOrderRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if order.Subtotal != "200.00" {
		t.Errorf("subtotal = %s, want 200.00", order.Subtotal)
	}
	if order.TotalAmount != "210.00" {
		t.Errorf("total = %s, want 210.00", order.TotalAmount)
	}
	if order.PayableAmount != "210.00" {
		t.Errorf("payable = %s, want 210.00", order.PayableAmount)
	}
	if order.PaymentStatus != model.PaymentStatusPending {
		t.Errorf("payment status = %s, want PENDING", order.PaymentStatus)
	}

	bucket := fiscal.Bucket(time.Now())
	wantNo := fmt.Sprintf("%s-00001", bucket)
	if order.OrderNo != wantNo {
		t.Errorf("order no = %s, want %s", order.OrderNo, wantNo)
	}
}

func TestCreateOrderBindsInvoice(t *testing.T) {
	env := newTestEnv(t)

	order, err := env.orderSvc.CreateOrder(context.Background(), "", baseOrderRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if order.InvoiceError != "" {
		t.Fatalf("unexpected invoice error: %s", order.InvoiceError)
	}
	if order.InvoiceNo == nil {
		t.Fatal("invoice no not bound")
	}
	bucket := fiscal.Bucket(time.Now())
	wantNo := fmt.Sprintf("SNF-%s-00001", bucket)
	if *order.InvoiceNo != wantNo {
		t.Errorf("invoice no = %s, want %s", *order.InvoiceNo, wantNo)
	}
	if order.InvoicePath == nil {
		t.Fatal("invoice path not bound")
	}
	if _, err := os.Stat(*order.InvoicePath); err != nil {
		t.Errorf("invoice file missing: %v", err)
	}
}

func TestCreateOrderAmountMismatch(t *testing.T) {
	env := newTestEnv(t)

	req := baseOrderRequest()
	req.Subtotal = floatPtr(150) // server computes 200, beyond the 1-unit tolerance

	_, err := env.orderSvc.CreateOrder(context.Background(), "", req)
	if !errors.Is(err, ErrAmountMismatch) {
		t.Errorf("err = %v, want ErrAmountMismatch", err)
	}
}

func TestCreateOrderToleratesRoundingNoise(t *testing.T) {
	env := newTestEnv(t)

	req := baseOrderRequest()
	req.Subtotal = floatPtr(200.40) // within 1 currency unit of 200.00
	req.TotalAmount = floatPtr(210.40)

	if _, err := env.orderSvc.CreateOrder(context.Background(), "", req); err != nil {
		t.Fatalf("create order: %v", err)
	}
}

func TestCreateOrderInvalidDepot(t *testing.T) {
	env := newTestEnv(t)

	req := baseOrderRequest()
	req.DepotID = "0e4ffc37-36f2-4a4c-b116-63bbf867fbde"

	_, err := env.orderSvc.CreateOrder(context.Background(), "", req)
	if !errors.Is(err, ErrInvalidDepot) {
		t.Errorf("err = %v, want ErrInvalidDepot", err)
	}
}

func TestCreateOrderResolvesDefaultDepot(t *testing.T) {
	env := newTestEnv(t)
	seedDepot(t, env, "North", false)
	def := seedDepot(t, env, "Central", true)

	order, err := env.orderSvc.CreateOrder(context.Background(), "", baseOrderRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.DepotID == nil || *order.DepotID != def.ID.String() {
		t.Errorf("depot = %v, want default depot %s", order.DepotID, def.ID)
	}
}

func TestCreateOrderAppliesWallet(t *testing.T) {
	env := newTestEnv(t)
	member := seedMember(t, env, "500.00")

	req := baseOrderRequest()
	req.MemberID = member.ID.String()
	req.WalletAmount = 100

	order, err := env.orderSvc.CreateOrder(context.Background(), "", req)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.PayableAmount != "110.00" {
		t.Errorf("payable = %s, want 110.00", order.PayableAmount)
	}

	balance, err := env.walletSvc.Balance(context.Background(), member.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(400)) {
		t.Errorf("balance = %s, want 400", balance)
	}

	txs, total, err := env.walletSvc.Transactions(context.Background(), member.ID, 1, 10)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if total != 1 {
		t.Fatalf("got %d wallet transactions, want 1", total)
	}
	if txs[0].Type != model.WalletTxDebit {
		t.Errorf("tx type = %s, want DEBIT", txs[0].Type)
	}
	if txs[0].ReferenceNumber != order.OrderNo {
		t.Errorf("tx reference = %s, want %s", txs[0].ReferenceNumber, order.OrderNo)
	}
}

func TestCreateOrderInsufficientFundsLeavesNothing(t *testing.T) {
	env := newTestEnv(t)
	member := seedMember(t, env, "500.00")

	req := baseOrderRequest()
	req.Items = []OrderItemSpec{{Name: "Bulk Hamper", Price: floatPtr(700), Quantity: 1}}
	req.MemberID = member.ID.String()
	req.WalletAmount = 600

	_, err := env.orderSvc.CreateOrder(context.Background(), "", req)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	var orderCount int64
	if err := env.db.Model(&model.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Errorf("found %d orders after failed creation, want 0", orderCount)
	}

	balance, err := env.walletSvc.Balance(context.Background(), member.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("balance = %s, want unchanged 500", balance)
	}
}

func TestCreateOrderIssuesStockPerVariantItem(t *testing.T) {
	env := newTestEnv(t)
	depot := seedDepot(t, env, "Central", true)
	product := seedProduct(t, env, "Rice", "60.00")
	variant := seedVariant(t, env, depot, product, "60.00", 20)

	req := baseOrderRequest()
	req.Items = []OrderItemSpec{{VariantID: variant.ID.String(), Quantity: 2}}

	order, err := env.orderSvc.CreateOrder(context.Background(), "", req)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// Name and price come from the variant when the client omits them.
	if order.Items[0].Name != "Rice" {
		t.Errorf("item name = %s, want Rice", order.Items[0].Name)
	}
	if order.Subtotal != "120.00" {
		t.Errorf("subtotal = %s, want 120.00", order.Subtotal)
	}

	var reloaded model.DepotProductVariant
	if err := env.db.First(&reloaded, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("reload variant: %v", err)
	}
	if reloaded.ClosingQty != 18 {
		t.Errorf("closing qty = %d, want 18", reloaded.ClosingQty)
	}
}

func TestCreateOrderSurvivesMissingVariantReference(t *testing.T) {
	env := newTestEnv(t)

	// A named item pointing at no catalog rows still creates the order;
	// only the stock side effect is skipped.
	req := baseOrderRequest()

	order, err := env.orderSvc.CreateOrder(context.Background(), "", req)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	var ledgerCount int64
	if err := env.db.Model(&model.StockLedgerEntry{}).Count(&ledgerCount).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if ledgerCount != 0 {
		t.Errorf("found %d ledger entries, want 0", ledgerCount)
	}
	if order.PaymentStatus != model.PaymentStatusPending {
		t.Errorf("payment status = %s, want PENDING", order.PaymentStatus)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := baseOrderRequest()
	req.Items = []OrderItemSpec{{Price: floatPtr(10), Quantity: 1}} // no name, no refs
	if _, err := env.orderSvc.CreateOrder(ctx, "", req); !errors.Is(err, ErrValidation) {
		t.Errorf("nameless item: err = %v, want ErrValidation", err)
	}

	req = baseOrderRequest()
	req.Items[0].Price = floatPtr(-5)
	if _, err := env.orderSvc.CreateOrder(ctx, "", req); !errors.Is(err, ErrValidation) {
		t.Errorf("negative price: err = %v, want ErrValidation", err)
	}

	req = baseOrderRequest()
	req.Items[0].Quantity = -1
	if _, err := env.orderSvc.CreateOrder(ctx, "", req); !errors.Is(err, ErrValidation) {
		t.Errorf("negative quantity: err = %v, want ErrValidation", err)
	}

	req = baseOrderRequest()
	req.WalletAmount = 50 // no member attached
	if _, err := env.orderSvc.CreateOrder(ctx, "", req); !errors.Is(err, ErrValidation) {
		t.Errorf("wallet without member: err = %v, want ErrValidation", err)
	}
}

func TestAddItemRecomputesTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.orderSvc.CreateOrder(ctx, "", baseOrderRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	updated, err := env.orderSvc.AddItem(ctx, "", order.ID, AddItemRequest{
		Name:     "Honey Jar",
		Price:    floatPtr(50),
		Quantity: 1,
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	if updated.Subtotal != "250.00" {
		t.Errorf("subtotal = %s, want 250.00", updated.Subtotal)
	}
	if updated.TotalAmount != "260.00" {
		t.Errorf("total = %s, want 260.00", updated.TotalAmount)
	}
	if updated.PayableAmount != "260.00" {
		t.Errorf("payable = %s, want 260.00", updated.PayableAmount)
	}
	if len(updated.Items) != 2 {
		t.Errorf("got %d items, want 2", len(updated.Items))
	}
}

func TestAddItemResolutionError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.orderSvc.CreateOrder(ctx, "", baseOrderRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	_, err = env.orderSvc.AddItem(ctx, "", order.ID, AddItemRequest{Quantity: 1})
	if !errors.Is(err, ErrResolution) {
		t.Errorf("err = %v, want ErrResolution", err)
	}
}

func TestUpdateItemQuantityIssuesDeltaStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	depot := seedDepot(t, env, "Central", true)
	product := seedProduct(t, env, "Rice", "60.00")
	variant := seedVariant(t, env, depot, product, "60.00", 22)

	req := baseOrderRequest()
	req.Items = []OrderItemSpec{{VariantID: variant.ID.String(), Quantity: 2}}
	order, err := env.orderSvc.CreateOrder(ctx, "", req)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	// Creation issued 2: closing 22 -> 20.

	updated, err := env.orderSvc.UpdateItemQuantity(ctx, "", order.ID, order.Items[0].ID, 5)
	if err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if updated.Items[0].Quantity != 5 {
		t.Errorf("quantity = %d, want 5", updated.Items[0].Quantity)
	}
	if updated.Items[0].LineTotal != "300.00" {
		t.Errorf("line total = %s, want 300.00", updated.Items[0].LineTotal)
	}
	if updated.Subtotal != "300.00" {
		t.Errorf("subtotal = %s, want 300.00", updated.Subtotal)
	}

	var reloaded model.DepotProductVariant
	if err := env.db.First(&reloaded, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("reload variant: %v", err)
	}
	if reloaded.ClosingQty != 17 {
		t.Errorf("closing qty = %d, want 17", reloaded.ClosingQty)
	}
}

func TestUpdateItemQuantityDecreaseNeverRestocks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	depot := seedDepot(t, env, "Central", true)
	product := seedProduct(t, env, "Rice", "60.00")
	variant := seedVariant(t, env, depot, product, "60.00", 20)

	req := baseOrderRequest()
	req.Items = []OrderItemSpec{{VariantID: variant.ID.String(), Quantity: 5}}
	order, err := env.orderSvc.CreateOrder(ctx, "", req)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	// Creation issued 5: closing 20 -> 15.

	if _, err := env.orderSvc.UpdateItemQuantity(ctx, "", order.ID, order.Items[0].ID, 2); err != nil {
		t.Fatalf("decrease quantity: %v", err)
	}

	var reloaded model.DepotProductVariant
	if err := env.db.First(&reloaded, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("reload variant: %v", err)
	}
	if reloaded.ClosingQty != 15 {
		t.Errorf("closing qty = %d, want 15 (decreases never restock)", reloaded.ClosingQty)
	}
}

func TestUpdateCancelledItemQuantityRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.orderSvc.CreateOrder(ctx, "", baseOrderRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := env.orderSvc.ToggleItemCancellation(ctx, "", order.ID, order.Items[0].ID, true); err != nil {
		t.Fatalf("cancel item: %v", err)
	}

	_, err = env.orderSvc.UpdateItemQuantity(ctx, "", order.ID, order.Items[0].ID, 3)
	if !errors.Is(err, ErrImmutableCancelledItem) {
		t.Errorf("err = %v, want ErrImmutableCancelledItem", err)
	}
}

func TestToggleItemCancellationExcludesFromTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	depot := seedDepot(t, env, "Central", true)
	product := seedProduct(t, env, "Rice", "60.00")
	variant := seedVariant(t, env, depot, product, "60.00", 20)

	req := baseOrderRequest()
	req.Items = append(req.Items, OrderItemSpec{VariantID: variant.ID.String(), Quantity: 1})
	order, err := env.orderSvc.CreateOrder(ctx, "", req)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.Subtotal != "260.00" {
		t.Fatalf("subtotal = %s, want 260.00", order.Subtotal)
	}

	var ledgerBefore int64
	if err := env.db.Model(&model.StockLedgerEntry{}).Count(&ledgerBefore).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}

	var variantItemID string
	for _, item := range order.Items {
		if item.VariantID != nil {
			variantItemID = item.ID
		}
	}
	updated, err := env.orderSvc.ToggleItemCancellation(ctx, "", order.ID, variantItemID, true)
	if err != nil {
		t.Fatalf("cancel item: %v", err)
	}

	if updated.Subtotal != "200.00" {
		t.Errorf("subtotal = %s, want 200.00 after cancellation", updated.Subtotal)
	}
	for _, item := range updated.Items {
		if item.ID == variantItemID && !item.IsCancelled {
			t.Error("item not flagged cancelled")
		}
	}

	// Cancellation is a totals-only change; no stock movement happens.
	var ledgerAfter int64
	if err := env.db.Model(&model.StockLedgerEntry{}).Count(&ledgerAfter).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if ledgerAfter != ledgerBefore {
		t.Errorf("ledger entries changed from %d to %d on cancellation", ledgerBefore, ledgerAfter)
	}

	// Restoring brings the line back into the totals.
	restored, err := env.orderSvc.ToggleItemCancellation(ctx, "", order.ID, variantItemID, false)
	if err != nil {
		t.Fatalf("restore item: %v", err)
	}
	if restored.Subtotal != "260.00" {
		t.Errorf("subtotal = %s, want 260.00 after restore", restored.Subtotal)
	}
}

func TestMarkPaidTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.orderSvc.CreateOrder(ctx, "", baseOrderRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	paid, err := env.orderSvc.MarkPaid(ctx, "", order.ID, MarkPaidRequest{
		PaymentMode:  "UPI",
		PaymentRefNo: "UPI-778899",
	})
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.PaymentStatus != model.PaymentStatusPaid {
		t.Errorf("payment status = %s, want PAID", paid.PaymentStatus)
	}
	if paid.PaymentDate == nil {
		t.Error("payment date not set")
	}

	// A paid order cannot be marked paid again.
	_, err = env.orderSvc.MarkPaid(ctx, "", order.ID, MarkPaidRequest{PaymentMode: "UPI"})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestUpdateOrderGuardsPaymentTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.orderSvc.CreateOrder(ctx, "", baseOrderRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	cancelled := model.PaymentStatusCancelled
	updated, err := env.orderSvc.UpdateOrder(ctx, "", order.ID, UpdateOrderRequest{PaymentStatus: &cancelled})
	if err != nil {
		t.Fatalf("cancel order: %v", err)
	}
	if updated.PaymentStatus != model.PaymentStatusCancelled {
		t.Errorf("payment status = %s, want CANCELLED", updated.PaymentStatus)
	}

	// Nothing leaves CANCELLED.
	pending := model.PaymentStatusPending
	_, err = env.orderSvc.UpdateOrder(ctx, "", order.ID, UpdateOrderRequest{PaymentStatus: &pending})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestUpdateOrderDeliveryFeeRecomputesTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.orderSvc.CreateOrder(ctx, "", baseOrderRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	updated, err := env.orderSvc.UpdateOrder(ctx, "", order.ID, UpdateOrderRequest{DeliveryFee: floatPtr(25)})
	if err != nil {
		t.Fatalf("update fee: %v", err)
	}
	if updated.TotalAmount != "225.00" {
		t.Errorf("total = %s, want 225.00", updated.TotalAmount)
	}
	if updated.PayableAmount != "225.00" {
		t.Errorf("payable = %s, want 225.00", updated.PayableAmount)
	}
}

func TestOrderNumbersAreSequential(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bucket := fiscal.Bucket(time.Now())

	for i := 1; i <= 3; i++ {
		order, err := env.orderSvc.CreateOrder(ctx, "", baseOrderRequest())
		if err != nil {
			t.Fatalf("create order %d: %v", i, err)
		}
		want := fmt.Sprintf("%s-%05d", bucket, i)
		if order.OrderNo != want {
			t.Errorf("order no = %s, want %s", order.OrderNo, want)
		}
	}
}
