package database

import (
	"log"

	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM.
// TranslateError maps driver unique-constraint violations onto
// gorm.ErrDuplicatedKey, which the sequence allocator relies on for its
// optimistic retry.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
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
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
