package service

import (
	"context"
	"time"

	"backend/internal/model"

	"gorm.io/gorm"
)

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetStatistics aggregates sales metrics over the given time bracket.
// Cancelled lines are excluded from revenue and rankings.
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error) {
	var response model.StatisticsResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	s.db.WithContext(ctx).Model(&model.Order{}).
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Count(&response.OrderCount)

	s.db.WithContext(ctx).Model(&model.Order{}).
		Where("payment_status = ? AND created_at >= ? AND created_at <= ?", model.PaymentStatusPaid, startDate, endDate).
		Count(&response.PaidOrderCount)

	var revenue struct {
		Total  float64
		Wallet float64
	}
	s.db.WithContext(ctx).Model(&model.Order{}).
		Select("COALESCE(SUM(total_amount), 0) as total, COALESCE(SUM(wallet_amount), 0) as wallet").
		Where("payment_status = ? AND created_at >= ? AND created_at <= ?", model.PaymentStatusPaid, startDate, endDate).
		Scan(&revenue)
	response.TotalRevenue = revenue.Total
	response.WalletApplied = revenue.Wallet

	var topSold []model.ProductRanking
	s.db.WithContext(ctx).Table("order_items").
		Select("products.id as product_id, products.name as product_name, SUM(order_items.quantity) as total_quantity, SUM(order_items.line_total) as total_value").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.is_cancelled = ? AND orders.created_at >= ? AND orders.created_at <= ?", false, startDate, endDate).
		Group("products.id, products.name").
		Order("total_quantity DESC").
		Limit(5).
		Scan(&topSold)
	response.TopSoldItems = topSold

	return response, nil
}
