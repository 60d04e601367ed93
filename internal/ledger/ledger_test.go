package ledger

import (
	"testing"

	"school-service/internal/model"
)

func TestRecalculateFullPaymentSequence(t *testing.T) {
	// total 1000, payments 400 then 600 -> paid, nothing due
	totals := Recalculate(1000, []int64{400, 600})
	if totals.Paid != 1000 {
		t.Fatalf("paid = %d, want 1000", totals.Paid)
	}
	if totals.Due != 0 {
		t.Fatalf("due = %d, want 0", totals.Due)
	}
	if totals.Status != model.FeeStatusPaid {
		t.Fatalf("status = %q, want %q", totals.Status, model.FeeStatusPaid)
	}
}

func TestRecalculatePartialPayment(t *testing.T) {
	totals := Recalculate(1000, []int64{400})
	if totals.Paid != 400 || totals.Due != 600 {
		t.Fatalf("got paid=%d due=%d, want 400/600", totals.Paid, totals.Due)
	}
	if totals.Status != model.FeeStatusPending {
		t.Fatalf("status = %q, want %q", totals.Status, model.FeeStatusPending)
	}
}

func TestRecalculateEmptyHistory(t *testing.T) {
	totals := Recalculate(1000, nil)
	if totals.Paid != 0 || totals.Due != 1000 || totals.Status != model.FeeStatusPending {
		t.Fatalf("unexpected totals for empty history: %+v", totals)
	}
}

func TestRecalculateOverpayment(t *testing.T) {
	totals := Recalculate(1000, []int64{700, 500})
	if totals.Paid != 1200 {
		t.Fatalf("paid = %d, want 1200", totals.Paid)
	}
	if totals.Due != -200 {
		t.Fatalf("due = %d, want -200", totals.Due)
	}
	if totals.Status != model.FeeStatusPaid {
		t.Fatalf("status = %q, want %q", totals.Status, model.FeeStatusPaid)
	}
}

func TestRecalculateIdempotent(t *testing.T) {
	history := []int64{250, 250, 300}
	first := Recalculate(1000, history)
	second := Recalculate(1000, history)
	if first != second {
		t.Fatalf("recompute not idempotent: %+v vs %+v", first, second)
	}
}

func TestRecalculateZeroTotal(t *testing.T) {
	// A zero-amount fee is immediately paid
	totals := Recalculate(0, nil)
	if totals.Status != model.FeeStatusPaid {
		t.Fatalf("status = %q, want %q", totals.Status, model.FeeStatusPaid)
	}
}
