package model

import (
	"time"

	"github.com/google/uuid"
)

// ProductRanking is one row of a top-selling-products report.
type ProductRanking struct {
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	TotalQuantity int64     `json:"total_quantity"`
	TotalValue    float64   `json:"total_value"`
}

// StatisticsResponse aggregates sales metrics over a time range.
type StatisticsResponse struct {
	TimeRangeStartDate time.Time        `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time        `json:"time_range_end_date"`
	OrderCount         int64            `json:"order_count"`
	PaidOrderCount     int64            `json:"paid_order_count"`
	TotalRevenue       float64          `json:"total_revenue"`
	WalletApplied      float64          `json:"wallet_applied"`
	TopSoldItems       []ProductRanking `json:"top_sold_items"`
}
