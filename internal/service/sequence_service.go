package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/fiscal"
)

// SequenceAllocator hands out human-readable order and invoice numbers,
// unique and monotonically increasing within a fiscal-year bucket.
// Allocation must run inside the transaction that inserts the owning
// record; the counter row lock is what serializes concurrent callers.
type SequenceAllocator interface {
	NextOrderNumber(ctx context.Context, at time.Time) (string, error)
	NextInvoiceNumber(ctx context.Context, at time.Time) (string, error)
}

type sequenceAllocator struct {
	sequenceRepo repository.SequenceRepository
	// invoicePrefix is the optional sub-ledger prefix for invoice numbers,
	// e.g. "SNF" yields SNF-2526-00001.
	invoicePrefix string
}

func NewSequenceAllocator(sequenceRepo repository.SequenceRepository, invoicePrefix string) SequenceAllocator {
	return &sequenceAllocator{sequenceRepo: sequenceRepo, invoicePrefix: invoicePrefix}
}

// NextOrderNumber returns e.g. "2526-00001" for the fiscal year containing at.
func (a *sequenceAllocator) NextOrderNumber(ctx context.Context, at time.Time) (string, error) {
	bucket := fiscal.Bucket(at)
	seq, err := a.sequenceRepo.Next(ctx, model.SequenceOrder, bucket)
	if err != nil {
		return "", fmt.Errorf("failed to allocate order number: %w", err)
	}
	return fmt.Sprintf("%s-%05d", bucket, seq), nil
}

// NextInvoiceNumber returns e.g. "SNF-2526-00001". The invoice counter is
// an independent bucket space from the order counter.
func (a *sequenceAllocator) NextInvoiceNumber(ctx context.Context, at time.Time) (string, error) {
	bucket := fiscal.Bucket(at)
	seq, err := a.sequenceRepo.Next(ctx, model.SequenceInvoice, bucket)
	if err != nil {
		return "", fmt.Errorf("failed to allocate invoice number: %w", err)
	}
	if a.invoicePrefix == "" {
		return fmt.Sprintf("%s-%05d", bucket, seq), nil
	}
	return fmt.Sprintf("%s-%s-%05d", a.invoicePrefix, bucket, seq), nil
}
