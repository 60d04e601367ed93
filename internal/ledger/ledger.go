// Package ledger owns fee payment recording and the derivation of a fee's
// paid/due totals. Totals are always recomputed by resumming the full
// payment history, so replaying the computation is idempotent; incremental
// additions are never used.
package ledger

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"school-service/internal/model"
	"school-service/internal/tenant"
)

var (
	// ErrFeeNotFound covers both a missing fee and a fee outside the
	// caller's school; the two are indistinguishable on purpose.
	ErrFeeNotFound = errors.New("fee not found")
	// ErrInvalidAmount rejects zero or negative payments
	ErrInvalidAmount = errors.New("payment amount must be positive")
)

// Totals is the derived state of a fee
type Totals struct {
	Paid   int64
	Due    int64
	Status string
}

// PaymentInput describes one payment to record
type PaymentInput struct {
	Amount    int64
	Mode      string
	Reference string
	PaidAt    time.Time
}

// Recalculate derives totals from the complete payment history. Paid is the
// plain sum, due is total minus paid, and status is paid iff paid >= total.
func Recalculate(total int64, payments []int64) Totals {
	var paid int64
	for _, p := range payments {
		paid += p
	}
	status := model.FeeStatusPending
	if paid >= total {
		status = model.FeeStatusPaid
	}
	return Totals{Paid: paid, Due: total - paid, Status: status}
}

// RecordPayment appends an immutable history row for the fee and recomputes
// the fee's totals, all inside one transaction holding a row lock on the fee
// so concurrent payments cannot lose updates. The locked lookup is scoped,
// so a fee in another school reports not found.
func RecordPayment(db *gorm.DB, scope tenant.Scope, feeID uint, in PaymentInput) (*model.Fee, *model.PaymentHistory, error) {
	if in.Amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	if in.PaidAt.IsZero() {
		in.PaidAt = time.Now()
	}

	var fee model.Fee
	var entry model.PaymentHistory

	err := db.Transaction(func(tx *gorm.DB) error {
		locked := scope.Apply(tx.Clauses(clause.Locking{Strength: "UPDATE"}))
		if err := locked.First(&fee, feeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFeeNotFound
			}
			return err
		}

		entry = model.PaymentHistory{
			FeeID:     fee.ID,
			SchoolID:  fee.SchoolID,
			Amount:    in.Amount,
			Mode:      in.Mode,
			Reference: in.Reference,
			PaidAt:    in.PaidAt,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		return applyTotals(tx, &fee)
	})
	if err != nil {
		return nil, nil, err
	}
	return &fee, &entry, nil
}

// Rebuild recomputes a fee's totals from its history with the row locked.
// Used by repair paths; recording and rebuilding converge on the same state.
func Rebuild(db *gorm.DB, feeID uint) (*model.Fee, error) {
	var fee model.Fee
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&fee, feeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFeeNotFound
			}
			return err
		}
		return applyTotals(tx, &fee)
	})
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

func applyTotals(tx *gorm.DB, fee *model.Fee) error {
	var amounts []int64
	if err := tx.Model(&model.PaymentHistory{}).
		Where("fee_id = ?", fee.ID).
		Order("id asc").
		Pluck("amount", &amounts).Error; err != nil {
		return err
	}

	totals := Recalculate(fee.TotalAmount, amounts)
	fee.PaidAmount = totals.Paid
	fee.DueAmount = totals.Due
	fee.Status = totals.Status

	return tx.Model(fee).Updates(map[string]interface{}{
		"paid_amount": totals.Paid,
		"due_amount":  totals.Due,
		"status":      totals.Status,
	}).Error
}
