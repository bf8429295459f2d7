package service

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type InvoiceBindResponse struct {
	OrderID     string `json:"order_id"`
	OrderNo     string `json:"order_no"`
	InvoiceNo   string `json:"invoice_no"`
	InvoicePath string `json:"invoice_path"`
}

// --- Interface ---

// InvoiceService binds invoice numbers to orders and renders the printable
// document. Every invocation allocates a fresh number and file, so a
// download after item edits always reflects the current order state.
type InvoiceService interface {
	Generate(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (InvoiceBindResponse, error)
}

type invoiceService struct {
	orderRepo  repository.OrderRepository
	auditRepo  repository.AuditRepository
	allocator  SequenceAllocator
	txManager  repository.TransactionManager
	invoiceDir string
}

func NewInvoiceService(
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	allocator SequenceAllocator,
	txManager repository.TransactionManager,
	invoiceDir string,
) InvoiceService {
	return &invoiceService{
		orderRepo:  orderRepo,
		auditRepo:  auditRepo,
		allocator:  allocator,
		txManager:  txManager,
		invoiceDir: invoiceDir,
	}
}

// --- Implementation ---

func (s *invoiceService) Generate(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (InvoiceBindResponse, error) {
	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		return InvoiceBindResponse{}, fmt.Errorf("order not found: %w", err)
	}

	var invoiceNo string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoiceNo, err = s.allocator.NextInvoiceNumber(txCtx, time.Now())
		return err
	})
	if err != nil {
		return InvoiceBindResponse{}, err
	}

	// Render before binding so the order never points at a file that does
	// not exist. A render failure wastes the allocated number but leaves
	// any previous binding intact.
	invoicePath := filepath.Join(s.invoiceDir, invoiceFileName(invoiceNo))
	if err := s.render(order, invoiceNo, invoicePath); err != nil {
		return InvoiceBindResponse{}, fmt.Errorf("failed to render invoice %s: %w", invoiceNo, err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			return fmt.Errorf("order not found: %w", err)
		}

		if err := s.orderRepo.UpdateInvoiceRef(txCtx, orderID, invoiceNo, invoicePath); err != nil {
			return fmt.Errorf("failed to record invoice reference: %w", err)
		}

		if err := s.auditRepo.Log(txCtx, &model.AuditLog{
			OrderID:     &orderID,
			UserID:      userID,
			Action:      model.ActionGenerateInvoice,
			Description: fmt.Sprintf("bound invoice %s to order %s", invoiceNo, locked.OrderNo),
		}); err != nil {
			log.Printf("WARNING: failed to write audit log (%s): %v", model.ActionGenerateInvoice, err)
		}

		return nil
	})
	if err != nil {
		return InvoiceBindResponse{}, err
	}

	return InvoiceBindResponse{
		OrderID:     orderID.String(),
		OrderNo:     order.OrderNo,
		InvoiceNo:   invoiceNo,
		InvoicePath: invoicePath,
	}, nil
}

// invoiceFileName maps an invoice number to a filesystem-safe name.
func invoiceFileName(invoiceNo string) string {
	return strings.ReplaceAll(invoiceNo, "/", "-") + ".html"
}

type invoiceLineView struct {
	Name        string
	VariantName string
	Price       string
	Quantity    int
	LineTotal   string
	IsCancelled bool
}

type invoiceView struct {
	InvoiceNo     string
	OrderNo       string
	IssuedAt      string
	CustomerName  string
	CustomerPhone string
	AddressLine   string
	City          string
	Pincode       string
	Items         []invoiceLineView
	Subtotal      string
	DeliveryFee   string
	TotalAmount   string
	WalletAmount  string
	PayableAmount string
	PaymentStatus string
}

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice {{.InvoiceNo}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 6px 10px; text-align: left; }
.cancelled { text-decoration: line-through; color: #999; }
.totals td { border: none; text-align: right; }
</style>
</head>
<body>
<h1>Invoice {{.InvoiceNo}}</h1>
<p>Order {{.OrderNo}} &mdash; issued {{.IssuedAt}}</p>
<p>
{{.CustomerName}}<br>
{{.CustomerPhone}}<br>
{{.AddressLine}}{{if .City}}, {{.City}}{{end}}{{if .Pincode}} {{.Pincode}}{{end}}
</p>
<table>
<tr><th>Item</th><th>Price</th><th>Qty</th><th>Total</th></tr>
{{range .Items}}
<tr{{if .IsCancelled}} class="cancelled"{{end}}>
<td>{{.Name}}{{if .VariantName}} ({{.VariantName}}){{end}}</td>
<td>{{.Price}}</td>
<td>{{.Quantity}}</td>
<td>{{.LineTotal}}</td>
</tr>
{{end}}
</table>
<table class="totals">
<tr><td>Subtotal</td><td>{{.Subtotal}}</td></tr>
<tr><td>Delivery fee</td><td>{{.DeliveryFee}}</td></tr>
<tr><td>Total</td><td>{{.TotalAmount}}</td></tr>
<tr><td>Wallet applied</td><td>{{.WalletAmount}}</td></tr>
<tr><td><strong>Payable</strong></td><td><strong>{{.PayableAmount}}</strong></td></tr>
</table>
<p>Payment status: {{.PaymentStatus}}</p>
</body>
</html>
`))

func (s *invoiceService) render(order *model.Order, invoiceNo, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	view := invoiceView{
		InvoiceNo:     invoiceNo,
		OrderNo:       order.OrderNo,
		IssuedAt:      time.Now().Format("2006-01-02"),
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		AddressLine:   order.AddressLine,
		City:          order.City,
		Pincode:       order.Pincode,
		Subtotal:      order.Subtotal.StringFixed(2),
		DeliveryFee:   order.DeliveryFee.StringFixed(2),
		TotalAmount:   order.TotalAmount.StringFixed(2),
		WalletAmount:  order.WalletAmount.StringFixed(2),
		PayableAmount: order.PayableAmount.StringFixed(2),
		PaymentStatus: order.PaymentStatus,
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, invoiceLineView{
			Name:        item.Name,
			VariantName: item.VariantName,
			Price:       item.Price.StringFixed(2),
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal.StringFixed(2),
			IsCancelled: item.IsCancelled,
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return invoiceTemplate.Execute(f, view)
}
