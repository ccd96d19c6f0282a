package store

import (
	"context"
	"testing"
	"time"

	"verigate/internal/payment"
	dErrors "verigate/pkg/domain-errors"
)

func newTransaction(reference string, createdAt time.Time) payment.Transaction {
	return payment.Transaction{
		Reference: reference,
		Email:     "payer@example.com",
		Amount:    2500,
		Currency:  "NGN",
		Status:    payment.StatusInitialized,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestMemorySaveFindUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	now := time.Now()

	if err := s.Save(ctx, newTransaction("ref-1", now)); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Find(ctx, "ref-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != payment.StatusInitialized {
		t.Fatalf("unexpected status %q", got.Status)
	}

	later := now.Add(time.Minute)
	if err := s.UpdateStatus(ctx, "ref-1", payment.StatusVerified, later); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, err = s.Find(ctx, "ref-1")
	if err != nil {
		t.Fatalf("find after update: %v", err)
	}
	if got.Status != payment.StatusVerified || !got.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected transaction %+v", got)
	}
}

func TestMemoryFindMissing(t *testing.T) {
	s := NewInMemory()
	if _, err := s.Find(context.Background(), "nope"); !dErrors.HasCode(err, dErrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryUpdateMissing(t *testing.T) {
	s := NewInMemory()
	err := s.UpdateStatus(context.Background(), "nope", payment.StatusVerified, time.Now())
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemorySaveRequiresReference(t *testing.T) {
	s := NewInMemory()
	err := s.Save(context.Background(), payment.Transaction{})
	if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestMemoryListRecentOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	base := time.Now()

	for i, ref := range []string{"ref-old", "ref-mid", "ref-new"} {
		if err := s.Save(ctx, newTransaction(ref, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("save %s: %v", ref, err)
		}
	}

	got, err := s.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got))
	}
	if got[0].Reference != "ref-new" || got[1].Reference != "ref-mid" {
		t.Fatalf("unexpected order: %s, %s", got[0].Reference, got[1].Reference)
	}
}
