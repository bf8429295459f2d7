package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"backend/internal/repository"

	"github.com/google/uuid"
)

func TestInvoiceGenerateBindsNumberAndFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.orderSvc.CreateOrder(ctx, "", baseOrderRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	orderID, _ := uuid.Parse(order.ID)
	bound, err := env.invoiceSvc.Generate(ctx, orderID, nil)
	if err != nil {
		t.Fatalf("generate invoice: %v", err)
	}

	if !strings.HasPrefix(bound.InvoiceNo, "SNF-") {
		t.Errorf("invoice no = %s, want SNF- prefix", bound.InvoiceNo)
	}
	data, err := os.ReadFile(bound.InvoicePath)
	if err != nil {
		t.Fatalf("read invoice file: %v", err)
	}
	html := string(data)
	if !strings.Contains(html, bound.InvoiceNo) {
		t.Error("invoice file does not show the invoice number")
	}
	if !strings.Contains(html, order.OrderNo) {
		t.Error("invoice file does not show the order number")
	}
	if !strings.Contains(html, "Organic Wheat") {
		t.Error("invoice file does not list the order item")
	}
}

func TestInvoiceRegenerationAllocatesFreshNumber(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.orderSvc.CreateOrder(ctx, "", baseOrderRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	orderID, _ := uuid.Parse(order.ID)

	first, err := env.invoiceSvc.Generate(ctx, orderID, nil)
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	second, err := env.invoiceSvc.Generate(ctx, orderID, nil)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}

	if first.InvoiceNo == second.InvoiceNo {
		t.Errorf("regeneration reused invoice no %s", first.InvoiceNo)
	}
	if first.InvoicePath == second.InvoicePath {
		t.Errorf("regeneration reused invoice path %s", first.InvoicePath)
	}
	if _, err := os.Stat(second.InvoicePath); err != nil {
		t.Errorf("latest invoice file missing: %v", err)
	}

	// The order row points at the latest binding.
	reloaded, err := env.orderSvc.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.InvoiceNo == nil || *reloaded.InvoiceNo != second.InvoiceNo {
		t.Errorf("order invoice no = %v, want %s", reloaded.InvoiceNo, second.InvoiceNo)
	}
}

func TestInvoiceRenderFailureLeavesBindingUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.orderSvc.CreateOrder(ctx, "", baseOrderRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.InvoiceNo == nil || order.InvoicePath == nil {
		t.Fatal("order created without invoice binding")
	}

	// A regular file where the invoice directory should be makes the
	// directory creation fail, so the new document cannot be written.
	occupied := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(occupied, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker file: %v", err)
	}
	broken := NewInvoiceService(
		repository.NewOrderRepository(env.db),
		repository.NewAuditRepository(env.db),
		env.allocator,
		repository.NewTransactionManager(env.db),
		filepath.Join(occupied, "invoices"),
	)

	orderID, _ := uuid.Parse(order.ID)
	if _, err := broken.Generate(ctx, orderID, nil); err == nil {
		t.Fatal("expected render failure")
	}

	// The order still points at the previous, existing document.
	reloaded, err := env.orderSvc.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.InvoiceNo == nil || *reloaded.InvoiceNo != *order.InvoiceNo {
		t.Errorf("invoice no = %v after failed regeneration, want %s", reloaded.InvoiceNo, *order.InvoiceNo)
	}
	if reloaded.InvoicePath == nil || *reloaded.InvoicePath != *order.InvoicePath {
		t.Errorf("invoice path = %v after failed regeneration, want %s", reloaded.InvoicePath, *order.InvoicePath)
	}
	if _, err := os.Stat(*order.InvoicePath); err != nil {
		t.Errorf("previously bound invoice file missing: %v", err)
	}
}

func TestInvoiceCancelledItemsMarked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := baseOrderRequest()
	req.Items = append(req.Items, OrderItemSpec{Name: "Honey Jar", Price: floatPtr(50), Quantity: 1})
	order, err := env.orderSvc.CreateOrder(ctx, "", req)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	var honeyID string
	for _, item := range order.Items {
		if item.Name == "Honey Jar" {
			honeyID = item.ID
		}
	}
	if _, err := env.orderSvc.ToggleItemCancellation(ctx, "", order.ID, honeyID, true); err != nil {
		t.Fatalf("cancel item: %v", err)
	}

	orderID, _ := uuid.Parse(order.ID)
	bound, err := env.invoiceSvc.Generate(ctx, orderID, nil)
	if err != nil {
		t.Fatalf("generate invoice: %v", err)
	}
	data, err := os.ReadFile(bound.InvoicePath)
	if err != nil {
		t.Fatalf("read invoice file: %v", err)
	}
	html := string(data)
	if !strings.Contains(html, "Honey Jar") {
		t.Error("cancelled item dropped from invoice, want it struck through")
	}
	if !strings.Contains(html, `class="cancelled"`) {
		t.Error("cancelled item row not marked with cancelled class")
	}
}
