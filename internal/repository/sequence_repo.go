package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSequenceConflict is returned when the allocator's retry budget is
// exhausted by concurrent counter creation.
var ErrSequenceConflict = errors.New("sequence allocation conflict")

// sequenceMaxAttempts bounds optimistic retries when two transactions race
// to create the same counter row.
const sequenceMaxAttempts = 5

type SequenceRepository interface {
	Next(ctx context.Context, name, bucket string) (int64, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next increments and returns the counter for (name, bucket), creating it
// at 1 on first use. The counter row is read under a FOR UPDATE lock inside
// the ambient transaction, so concurrent allocations in the same bucket
// serialize on this row instead of both computing the same next value.
// If two transactions race to create a missing counter, the loser's insert
// resolves with ON CONFLICT DO NOTHING rather than a unique violation, which
// would poison the enclosing transaction on postgres. It then re-reads the
// winner's row under lock, bounded by sequenceMaxAttempts.
func (r *sequenceRepository) Next(ctx context.Context, name, bucket string) (int64, error) {
	db := GetDB(ctx, r.db)

	for attempt := 0; attempt < sequenceMaxAttempts; attempt++ {
		var counter model.SequenceCounter
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ? AND bucket = ?", name, bucket).
			First(&counter).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			counter = model.SequenceCounter{Name: name, Bucket: bucket, Value: 1}
			res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&counter)
			if res.Error != nil {
				return 0, res.Error
			}
			if res.RowsAffected > 0 {
				return 1, nil
			}
			continue // lost the creation race, re-read the winner's row under lock
		}
		if err != nil {
			return 0, err
		}

		counter.Value++
		if err := db.Model(&model.SequenceCounter{}).Where("id = ?", counter.ID).
			Update("value", counter.Value).Error; err != nil {
			return 0, err
		}
		return counter.Value, nil
	}

	return 0, ErrSequenceConflict
}
