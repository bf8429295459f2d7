package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// clientAmountTolerance is the accepted divergence between a
// client-submitted total and the server-side recomputation. It guards
// against float rounding noise, not tampering beyond that.
var clientAmountTolerance = decimal.NewFromInt(1)

// --- DTOs ---

type OrderItemSpec struct {
	ProductID   string   `json:"product_id"`
	VariantID   string   `json:"variant_id"`
	Name        string   `json:"name"`
	VariantName string   `json:"variant_name"`
	Price       *float64 `json:"price"`
	Quantity    int      `json:"quantity"`
}

type CreateOrderRequest struct {
	CustomerName  string          `json:"customer_name" binding:"required"`
	CustomerPhone string          `json:"customer_phone" binding:"required"`
	CustomerEmail string          `json:"customer_email" binding:"omitempty,email"`
	AddressLine   string          `json:"address_line" binding:"required"`
	City          string          `json:"city"`
	Pincode       string          `json:"pincode"`
	DepotID       string          `json:"depot_id"`
	MemberID      string          `json:"member_id"`
	Items         []OrderItemSpec `json:"items" binding:"required,min=1,dive"`
	DeliveryFee   float64         `json:"delivery_fee" binding:"min=0"`
	WalletAmount  float64         `json:"wallet_amount" binding:"min=0"` // requested wallet application
	Subtotal      *float64        `json:"subtotal"`                      // client-submitted, cross-checked
	TotalAmount   *float64        `json:"total_amount"`                  // client-submitted, cross-checked
}

type AddItemRequest struct {
	ProductID   string   `json:"product_id"`
	VariantID   string   `json:"variant_id"`
	Name        string   `json:"name"`
	VariantName string   `json:"variant_name"`
	Price       *float64 `json:"price"`
	Quantity    int      `json:"quantity" binding:"required,gt=0"`
}

type MarkPaidRequest struct {
	PaymentMode  string     `json:"payment_mode"`
	PaymentRefNo string     `json:"payment_ref_no"`
	PaymentDate  *time.Time `json:"payment_date"`
}

// UpdateOrderRequest is the generic field update: customer snapshot fields,
// delivery fee (totals recomputed) and guarded payment-status transitions.
type UpdateOrderRequest struct {
	CustomerName  *string  `json:"customer_name"`
	CustomerPhone *string  `json:"customer_phone"`
	CustomerEmail *string  `json:"customer_email"`
	AddressLine   *string  `json:"address_line"`
	City          *string  `json:"city"`
	Pincode       *string  `json:"pincode"`
	DeliveryFee   *float64 `json:"delivery_fee"`
	PaymentStatus *string  `json:"payment_status"`
}

type OrderItemResponse struct {
	ID          string  `json:"id"`
	ProductID   *string `json:"product_id"`
	VariantID   *string `json:"variant_id"`
	Name        string  `json:"name"`
	VariantName string  `json:"variant_name,omitempty"`
	Price       string  `json:"price"`
	Quantity    int     `json:"quantity"`
	LineTotal   string  `json:"line_total"`
	IsCancelled bool    `json:"is_cancelled"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	OrderNo       string              `json:"order_no"`
	MemberID      *string             `json:"member_id"`
	DepotID       *string             `json:"depot_id"`
	CustomerName  string              `json:"customer_name"`
	CustomerPhone string              `json:"customer_phone"`
	CustomerEmail string              `json:"customer_email,omitempty"`
	AddressLine   string              `json:"address_line"`
	City          string              `json:"city,omitempty"`
	Pincode       string              `json:"pincode,omitempty"`
	Subtotal      string              `json:"subtotal"`
	DeliveryFee   string              `json:"delivery_fee"`
	TotalAmount   string              `json:"total_amount"`
	WalletAmount  string              `json:"wallet_amount"`
	PayableAmount string              `json:"payable_amount"`
	PaymentStatus string              `json:"payment_status"`
	PaymentMode   string              `json:"payment_mode,omitempty"`
	PaymentRefNo  string              `json:"payment_ref_no,omitempty"`
	PaymentDate   *string             `json:"payment_date"`
	InvoiceNo     *string             `json:"invoice_no"`
	InvoicePath   *string             `json:"invoice_path"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     string              `json:"created_at"`

	// InvoiceError is a soft-failure flag: invoice generation runs after
	// commit and its failure never affects the created order.
	InvoiceError string `json:"invoice_error,omitempty"`
}

type OrderListFilter struct {
	PaymentStatus string
	MemberID      string
	DepotID       string
	Page          int
	Limit         int
}

// --- Interface ---

type OrderService interface {
	CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (OrderResponse, error)
	AddItem(ctx context.Context, userID string, orderID string, req AddItemRequest) (OrderResponse, error)
	UpdateItemQuantity(ctx context.Context, userID string, orderID, itemID string, newQuantity int) (OrderResponse, error)
	ToggleItemCancellation(ctx context.Context, userID string, orderID, itemID string, isCancelled bool) (OrderResponse, error)
	MarkPaid(ctx context.Context, userID string, orderID string, req MarkPaidRequest) (OrderResponse, error)
	UpdateOrder(ctx context.Context, userID string, orderID string, req UpdateOrderRequest) (OrderResponse, error)
	GetOrder(ctx context.Context, orderID string) (OrderResponse, error)
	ListOrders(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	memberRepo  repository.MemberRepository
	depotRepo   repository.DepotRepository
	variantRepo repository.VariantRepository
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	allocator   SequenceAllocator
	walletSvc   WalletService
	stockSvc    StockService
	invoiceSvc  InvoiceService
	txManager   repository.TransactionManager
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	memberRepo repository.MemberRepository,
	depotRepo repository.DepotRepository,
	variantRepo repository.VariantRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	allocator SequenceAllocator,
	walletSvc WalletService,
	stockSvc StockService,
	invoiceSvc InvoiceService,
	txManager repository.TransactionManager,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		memberRepo:  memberRepo,
		depotRepo:   depotRepo,
		variantRepo: variantRepo,
		productRepo: productRepo,
		auditRepo:   auditRepo,
		allocator:   allocator,
		walletSvc:   walletSvc,
		stockSvc:    stockSvc,
		invoiceSvc:  invoiceSvc,
		txManager:   txManager,
	}
}

// resolvedItem is an item spec after catalog/variant dereferencing.
type resolvedItem struct {
	productID   *uuid.UUID
	variantID   *uuid.UUID
	name        string
	variantName string
	price       decimal.Decimal
	quantity    int
}

// resolveItem fills name and price from, in order of preference: the depot
// variant, the catalog product, the client-supplied fields.
func (s *orderService) resolveItem(ctx context.Context, productID, variantID, name, variantName string, price *float64, quantity int) (resolvedItem, error) {
	item := resolvedItem{name: name, variantName: variantName, quantity: quantity}
	if price != nil {
		item.price = decimal.NewFromFloat(*price).Round(2)
	}

	if variantID != "" {
		vid, err := uuid.Parse(variantID)
		if err != nil {
			return item, fmt.Errorf("%w: invalid variant_id", ErrValidation)
		}
		variant, err := s.variantRepo.FindByID(ctx, vid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return item, fmt.Errorf("variant %s: %w", variantID, ErrResolution)
			}
			return item, fmt.Errorf("failed to look up variant: %w", err)
		}
		item.variantID = &variant.ID
		item.productID = &variant.ProductID
		if item.name == "" && variant.Product != nil {
			item.name = variant.Product.Name
		}
		if item.variantName == "" {
			item.variantName = variant.Name
		}
		if price == nil {
			item.price = variant.Price
		}
	} else if productID != "" {
		pid, err := uuid.Parse(productID)
		if err != nil {
			return item, fmt.Errorf("%w: invalid product_id", ErrValidation)
		}
		product, err := s.productRepo.FindByID(ctx, pid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return item, fmt.Errorf("product %s: %w", productID, ErrResolution)
			}
			return item, fmt.Errorf("failed to look up product: %w", err)
		}
		item.productID = &product.ID
		if item.name == "" {
			item.name = product.Name
		}
		if price == nil {
			item.price = product.Price
		}
	}

	if item.name == "" {
		return item, ErrResolution
	}
	return item, nil
}

func (s *orderService) CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (OrderResponse, error) {
	// Resolve and validate every line before touching the database.
	resolved := make([]resolvedItem, 0, len(req.Items))
	for i, spec := range req.Items {
		if spec.Quantity < 0 {
			return OrderResponse{}, fmt.Errorf("%w: item %d has negative quantity", ErrValidation, i)
		}
		item, err := s.resolveItem(ctx, spec.ProductID, spec.VariantID, spec.Name, spec.VariantName, spec.Price, spec.Quantity)
		if err != nil {
			if errors.Is(err, ErrResolution) {
				return OrderResponse{}, fmt.Errorf("item %d has no name: %w", i, ErrValidation)
			}
			return OrderResponse{}, err
		}
		if item.price.IsNegative() {
			return OrderResponse{}, fmt.Errorf("%w: item %d has negative price", ErrValidation, i)
		}
		resolved = append(resolved, item)
	}

	// Server-side subtotal; never trust the client's outright.
	subtotal := decimal.Zero
	for _, item := range resolved {
		subtotal = subtotal.Add(item.price.Mul(decimal.NewFromInt(int64(item.quantity))))
	}
	subtotal = subtotal.Round(2)
	deliveryFee := decimal.NewFromFloat(req.DeliveryFee).Round(2)
	totalAmount := subtotal.Add(deliveryFee).Round(2)

	if req.Subtotal != nil {
		if subtotal.Sub(decimal.NewFromFloat(*req.Subtotal)).Abs().GreaterThan(clientAmountTolerance) {
			return OrderResponse{}, fmt.Errorf("client subtotal %.2f vs server %s: %w",
				*req.Subtotal, subtotal, ErrAmountMismatch)
		}
	}
	if req.TotalAmount != nil {
		if totalAmount.Sub(decimal.NewFromFloat(*req.TotalAmount)).Abs().GreaterThan(clientAmountTolerance) {
			return OrderResponse{}, fmt.Errorf("client total %.2f vs server %s: %w",
				*req.TotalAmount, totalAmount, ErrAmountMismatch)
		}
	}

	// Resolve the fulfilling depot: explicit id must exist, omitted falls
	// back to the configured default (orders without any depot are allowed).
	var depotID *uuid.UUID
	if req.DepotID != "" {
		did, err := uuid.Parse(req.DepotID)
		if err != nil {
			return OrderResponse{}, fmt.Errorf("%w: invalid depot_id", ErrValidation)
		}
		depot, err := s.depotRepo.FindByID(ctx, did)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return OrderResponse{}, fmt.Errorf("depot %s: %w", req.DepotID, ErrInvalidDepot)
			}
			return OrderResponse{}, fmt.Errorf("failed to look up depot: %w", err)
		}
		depotID = &depot.ID
	} else if depot, err := s.depotRepo.FindDefault(ctx); err == nil {
		depotID = &depot.ID
	}

	walletAmount := decimal.NewFromFloat(req.WalletAmount).Round(2)
	var memberID *uuid.UUID
	if req.MemberID != "" {
		mid, err := uuid.Parse(req.MemberID)
		if err != nil {
			return OrderResponse{}, fmt.Errorf("%w: invalid member_id", ErrValidation)
		}
		member, err := s.memberRepo.FindByID(ctx, mid)
		if err != nil {
			return OrderResponse{}, fmt.Errorf("member not found: %w", err)
		}
		memberID = &member.ID

		// Pre-check before any writes; the debit inside the transaction
		// re-checks under a row lock.
		if walletAmount.IsPositive() && walletAmount.GreaterThan(member.WalletBalance) {
			return OrderResponse{}, fmt.Errorf("wallet request %s exceeds balance %s: %w",
				walletAmount, member.WalletBalance, ErrInsufficientFunds)
		}
	} else if walletAmount.IsPositive() {
		return OrderResponse{}, fmt.Errorf("%w: wallet amount requires a member", ErrValidation)
	}

	payable := totalAmount.Sub(walletAmount)
	if payable.IsNegative() {
		payable = decimal.Zero
	}

	order := model.Order{
		MemberID:      memberID,
		DepotID:       depotID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		AddressLine:   req.AddressLine,
		City:          req.City,
		Pincode:       req.Pincode,
		Subtotal:      subtotal,
		DeliveryFee:   deliveryFee,
		TotalAmount:   totalAmount,
		WalletAmount:  walletAmount,
		PayableAmount: payable,
		PaymentStatus: model.PaymentStatusPending,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		orderNo, err := s.allocator.NextOrderNumber(txCtx, time.Now())
		if err != nil {
			return err
		}
		order.OrderNo = orderNo

		if err := s.orderRepo.Create(txCtx, &order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for _, item := range resolved {
			orderItem := &model.OrderItem{
				OrderID:     order.ID,
				ProductID:   item.productID,
				VariantID:   item.variantID,
				Name:        item.name,
				VariantName: item.variantName,
				Price:       item.price,
				Quantity:    item.quantity,
				LineTotal:   item.price.Mul(decimal.NewFromInt(int64(item.quantity))).Round(2),
			}
			if err := s.orderRepo.CreateItem(txCtx, orderItem); err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}

		if walletAmount.IsPositive() {
			if _, err := s.walletSvc.Debit(txCtx, WalletTxRequest{
				MemberID:      *memberID,
				Amount:        walletAmount,
				PaymentMethod: "WALLET",
				ReferenceNo:   order.OrderNo,
				Notes:         "Applied to order " + order.OrderNo,
			}); err != nil {
				return err
			}
		}

		// Stock issuance is best-effort per item: a missing or invalid
		// variant reference must not abort order creation.
		for _, item := range resolved {
			if item.variantID == nil || item.quantity <= 0 {
				continue
			}
			if err := s.stockSvc.Issue(txCtx, *item.variantID, item.quantity, model.StockModuleCart, order.ID); err != nil {
				log.Printf("WARNING: stock issue failed for variant %s on order %s: %v",
					item.variantID, order.OrderNo, err)
			}
		}

		s.audit(txCtx, userID, &order, model.ActionCreateOrder,
			fmt.Sprintf("created order %s with %d items, total %s", order.OrderNo, len(resolved), totalAmount.StringFixed(2)),
			"", mustJSON(map[string]interface{}{
				"order_no":      order.OrderNo,
				"subtotal":      subtotal.StringFixed(2),
				"total_amount":  totalAmount.StringFixed(2),
				"wallet_amount": walletAmount.StringFixed(2),
			}))

		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	resp, err := s.GetOrder(ctx, order.ID.String())
	if err != nil {
		return OrderResponse{}, err
	}

	// Invoice binding runs outside the atomic boundary; its failure is
	// reported as a soft flag alongside the committed order.
	if invResp, invErr := s.invoiceSvc.Generate(ctx, order.ID, uuidPtrFromString(userID)); invErr != nil {
		log.Printf("WARNING: invoice generation failed for order %s: %v", order.OrderNo, invErr)
		resp.InvoiceError = invErr.Error()
	} else {
		resp.InvoiceNo = &invResp.InvoiceNo
		resp.InvoicePath = &invResp.InvoicePath
	}

	return resp, nil
}

func (s *orderService) AddItem(ctx context.Context, userID string, orderID string, req AddItemRequest) (OrderResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("%w: invalid order id", ErrValidation)
	}
	if req.Quantity < 0 {
		return OrderResponse{}, fmt.Errorf("%w: negative quantity", ErrValidation)
	}

	item, err := s.resolveItem(ctx, req.ProductID, req.VariantID, req.Name, req.VariantName, req.Price, req.Quantity)
	if err != nil {
		return OrderResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, oid)
		if err != nil {
			return fmt.Errorf("order not found: %w", err)
		}

		orderItem := &model.OrderItem{
			OrderID:     order.ID,
			ProductID:   item.productID,
			VariantID:   item.variantID,
			Name:        item.name,
			VariantName: item.variantName,
			Price:       item.price,
			Quantity:    item.quantity,
			LineTotal:   item.price.Mul(decimal.NewFromInt(int64(item.quantity))).Round(2),
		}
		if err := s.orderRepo.CreateItem(txCtx, orderItem); err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}

		if err := s.recomputeTotals(txCtx, order); err != nil {
			return err
		}

		if item.variantID != nil && item.quantity > 0 {
			if err := s.stockSvc.Issue(txCtx, *item.variantID, item.quantity, model.StockModuleCartEdit, order.ID); err != nil {
				log.Printf("WARNING: stock issue failed for variant %s on order %s: %v",
					item.variantID, order.OrderNo, err)
			}
		}

		s.audit(txCtx, userID, order, model.ActionAddOrderItem,
			fmt.Sprintf("added item %q x%d to order %s", item.name, item.quantity, order.OrderNo),
			"", mustJSON(map[string]interface{}{
				"name":       item.name,
				"quantity":   item.quantity,
				"line_total": orderItem.LineTotal.StringFixed(2),
			}))

		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	return s.GetOrder(ctx, orderID)
}

func (s *orderService) UpdateItemQuantity(ctx context.Context, userID string, orderID, itemID string, newQuantity int) (OrderResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("%w: invalid order id", ErrValidation)
	}
	iid, err := uuid.Parse(itemID)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("%w: invalid item id", ErrValidation)
	}
	if newQuantity < 0 {
		return OrderResponse{}, fmt.Errorf("%w: negative quantity", ErrValidation)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, oid)
		if err != nil {
			return fmt.Errorf("order not found: %w", err)
		}
		item, err := s.orderRepo.FindItem(txCtx, oid, iid)
		if err != nil {
			return fmt.Errorf("order item not found: %w", err)
		}
		if item.IsCancelled {
			return fmt.Errorf("item %s: %w", itemID, ErrImmutableCancelledItem)
		}

		oldQuantity := item.Quantity
		delta := newQuantity - oldQuantity

		item.Quantity = newQuantity
		item.LineTotal = item.Price.Mul(decimal.NewFromInt(int64(newQuantity))).Round(2)
		if err := s.orderRepo.SaveItem(txCtx, item); err != nil {
			return fmt.Errorf("failed to update order item: %w", err)
		}

		if err := s.recomputeTotals(txCtx, order); err != nil {
			return err
		}

		// Increases issue additional stock for the delta. Decreases do not
		// restock: stock is never returned once issued.
		if delta > 0 && item.VariantID != nil {
			if err := s.stockSvc.Issue(txCtx, *item.VariantID, delta, model.StockModuleCartEdit, order.ID); err != nil {
				log.Printf("WARNING: stock issue failed for variant %s on order %s: %v",
					item.VariantID, order.OrderNo, err)
			}
		}

		s.audit(txCtx, userID, order, model.ActionUpdateItemQty,
			fmt.Sprintf("changed quantity of %q from %d to %d on order %s", item.Name, oldQuantity, newQuantity, order.OrderNo),
			mustJSON(map[string]interface{}{"quantity": oldQuantity}),
			mustJSON(map[string]interface{}{"quantity": newQuantity, "line_total": item.LineTotal.StringFixed(2)}))

		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	return s.GetOrder(ctx, orderID)
}

func (s *orderService) ToggleItemCancellation(ctx context.Context, userID string, orderID, itemID string, isCancelled bool) (OrderResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("%w: invalid order id", ErrValidation)
	}
	iid, err := uuid.Parse(itemID)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("%w: invalid item id", ErrValidation)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, oid)
		if err != nil {
			return fmt.Errorf("order not found: %w", err)
		}
		item, err := s.orderRepo.FindItem(txCtx, oid, iid)
		if err != nil {
			return fmt.Errorf("order item not found: %w", err)
		}

		wasCancelled := item.IsCancelled
		item.IsCancelled = isCancelled
		if err := s.orderRepo.SaveItem(txCtx, item); err != nil {
			return fmt.Errorf("failed to update order item: %w", err)
		}

		// Cancellation never reverses stock; the line stays for audit.
		if err := s.recomputeTotals(txCtx, order); err != nil {
			return err
		}

		s.audit(txCtx, userID, order, model.ActionToggleItemCancel,
			fmt.Sprintf("set cancelled=%t for item %q on order %s", isCancelled, item.Name, order.OrderNo),
			mustJSON(map[string]interface{}{"is_cancelled": wasCancelled}),
			mustJSON(map[string]interface{}{"is_cancelled": isCancelled}))

		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	return s.GetOrder(ctx, orderID)
}

func (s *orderService) MarkPaid(ctx context.Context, userID string, orderID string, req MarkPaidRequest) (OrderResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("%w: invalid order id", ErrValidation)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, oid)
		if err != nil {
			return fmt.Errorf("order not found: %w", err)
		}
		if order.PaymentStatus != model.PaymentStatusPending {
			return fmt.Errorf("order is %s: %w", order.PaymentStatus, ErrInvalidTransition)
		}

		priorStatus := order.PaymentStatus
		order.PaymentStatus = model.PaymentStatusPaid
		order.PaymentMode = req.PaymentMode
		order.PaymentRefNo = req.PaymentRefNo
		if req.PaymentDate != nil {
			order.PaymentDate = req.PaymentDate
		} else {
			now := time.Now()
			order.PaymentDate = &now
		}

		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		s.audit(txCtx, userID, order, model.ActionMarkOrderPaid,
			fmt.Sprintf("marked order %s paid via %s", order.OrderNo, req.PaymentMode),
			mustJSON(map[string]interface{}{"payment_status": priorStatus}),
			mustJSON(map[string]interface{}{"payment_status": order.PaymentStatus, "payment_ref_no": req.PaymentRefNo}))

		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	return s.GetOrder(ctx, orderID)
}

func (s *orderService) UpdateOrder(ctx context.Context, userID string, orderID string, req UpdateOrderRequest) (OrderResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("%w: invalid order id", ErrValidation)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, oid)
		if err != nil {
			return fmt.Errorf("order not found: %w", err)
		}
		oldValues := mustJSON(map[string]interface{}{
			"delivery_fee":   order.DeliveryFee.StringFixed(2),
			"payment_status": order.PaymentStatus,
		})

		if req.CustomerName != nil {
			order.CustomerName = *req.CustomerName
		}
		if req.CustomerPhone != nil {
			order.CustomerPhone = *req.CustomerPhone
		}
		if req.CustomerEmail != nil {
			order.CustomerEmail = *req.CustomerEmail
		}
		if req.AddressLine != nil {
			order.AddressLine = *req.AddressLine
		}
		if req.City != nil {
			order.City = *req.City
		}
		if req.Pincode != nil {
			order.Pincode = *req.Pincode
		}
		if req.PaymentStatus != nil && *req.PaymentStatus != order.PaymentStatus {
			if !model.CanTransitionPayment(order.PaymentStatus, *req.PaymentStatus) {
				return fmt.Errorf("%s -> %s: %w", order.PaymentStatus, *req.PaymentStatus, ErrInvalidTransition)
			}
			order.PaymentStatus = *req.PaymentStatus
		}

		if req.DeliveryFee != nil {
			order.DeliveryFee = decimal.NewFromFloat(*req.DeliveryFee).Round(2)
			if err := s.recomputeTotals(txCtx, order); err != nil {
				return err
			}
		} else if err := s.orderRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		s.audit(txCtx, userID, order, model.ActionUpdateOrder,
			fmt.Sprintf("updated order %s", order.OrderNo),
			oldValues,
			mustJSON(map[string]interface{}{
				"delivery_fee":   order.DeliveryFee.StringFixed(2),
				"payment_status": order.PaymentStatus,
			}))

		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	return s.GetOrder(ctx, orderID)
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (OrderResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("%w: invalid order id", ErrValidation)
	}
	order, err := s.orderRepo.FindByIDWithItems(ctx, oid)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("order not found: %w", err)
	}
	return toOrderResponse(*order), nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.OrderListFilter{
		PaymentStatus: filter.PaymentStatus,
		Page:          filter.Page,
		Limit:         filter.Limit,
	}
	if filter.MemberID != "" {
		if mid, err := uuid.Parse(filter.MemberID); err == nil {
			repoFilter.MemberID = &mid
		}
	}
	if filter.DepotID != "" {
		if did, err := uuid.Parse(filter.DepotID); err == nil {
			repoFilter.DepotID = &did
		}
	}

	orders, total, err := s.orderRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	result := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		result = append(result, toOrderResponse(o))
	}
	return result, total, nil
}

// recomputeTotals re-derives the order's monetary fields from its
// non-cancelled items and persists them. Every mutating operation calls
// this before its transaction commits, which is what keeps the totals
// invariants true at all times.
func (s *orderService) recomputeTotals(ctx context.Context, order *model.Order) error {
	withItems, err := s.orderRepo.FindByIDWithItems(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to reload order items: %w", err)
	}

	subtotal := decimal.Zero
	for _, item := range withItems.Items {
		if item.IsCancelled {
			continue
		}
		subtotal = subtotal.Add(item.LineTotal)
	}

	order.Subtotal = subtotal.Round(2)
	order.TotalAmount = order.Subtotal.Add(order.DeliveryFee).Round(2)
	payable := order.TotalAmount.Sub(order.WalletAmount)
	if payable.IsNegative() {
		payable = decimal.Zero
	}
	order.PayableAmount = payable

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return fmt.Errorf("failed to persist order totals: %w", err)
	}
	return nil
}

// audit writes best-effort; failures are logged and swallowed.
func (s *orderService) audit(ctx context.Context, userID string, order *model.Order, action, description, oldValue, newValue string) {
	entry := &model.AuditLog{
		OrderID:     &order.ID,
		UserID:      uuidPtrFromString(userID),
		Action:      action,
		Description: description,
		OldValue:    oldValue,
		NewValue:    newValue,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Printf("WARNING: failed to write audit log (%s): %v", action, err)
	}
}

// --- Helpers ---

func uuidPtrFromString(s string) *uuid.UUID {
	if parsed, err := uuid.Parse(s); err == nil {
		return &parsed
	}
	return nil
}

func mustJSON(v interface{}) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func toOrderResponse(o model.Order) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID.String(),
		OrderNo:       o.OrderNo,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		CustomerEmail: o.CustomerEmail,
		AddressLine:   o.AddressLine,
		City:          o.City,
		Pincode:       o.Pincode,
		Subtotal:      o.Subtotal.StringFixed(2),
		DeliveryFee:   o.DeliveryFee.StringFixed(2),
		TotalAmount:   o.TotalAmount.StringFixed(2),
		WalletAmount:  o.WalletAmount.StringFixed(2),
		PayableAmount: o.PayableAmount.StringFixed(2),
		PaymentStatus: o.PaymentStatus,
		PaymentMode:   o.PaymentMode,
		PaymentRefNo:  o.PaymentRefNo,
		InvoiceNo:     o.InvoiceNo,
		InvoicePath:   o.InvoicePath,
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
	}

	if o.MemberID != nil {
		s := o.MemberID.String()
		resp.MemberID = &s
	}
	if o.DepotID != nil {
		s := o.DepotID.String()
		resp.DepotID = &s
	}
	if o.PaymentDate != nil {
		s := o.PaymentDate.Format(time.RFC3339)
		resp.PaymentDate = &s
	}

	resp.Items = make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		ir := OrderItemResponse{
			ID:          item.ID.String(),
			Name:        item.Name,
			VariantName: item.VariantName,
			Price:       item.Price.StringFixed(2),
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal.StringFixed(2),
			IsCancelled: item.IsCancelled,
		}
		if item.ProductID != nil {
			s := item.ProductID.String()
			ir.ProductID = &s
		}
		if item.VariantID != nil {
			s := item.VariantID.String()
			ir.VariantID = &s
		}
		resp.Items = append(resp.Items, ir)
	}

	return resp
}
