package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sequence names. Order numbers and invoice numbers draw from independent
// bucket spaces.
const (
	SequenceOrder   = "order"
	SequenceInvoice = "invoice"
)

// SequenceCounter holds the last allocated value for one (name, bucket)
// pair, e.g. ("order", "2526"). The row is incremented under a row lock
// inside the transaction that inserts the owning record, so concurrent
// allocations serialize instead of computing the same next value.
type SequenceCounter struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_sequence_name_bucket" json:"name"`
	Bucket    string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_sequence_name_bucket" json:"bucket"`
	Value     int64     `gorm:"type:bigint;not null;default:0" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *SequenceCounter) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
