package service

import (
	"context"
	"time"

	billingdomain "github.com/openstay/rentledger/internal/billing/domain"
	"github.com/openstay/rentledger/internal/notification"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func (s *Service) RecordPayment(ctx context.Context, req billingdomain.RecordPaymentRequest) (*billingdomain.MonthlyBill, error) {
	if req.BillID == 0 {
		return nil, billingdomain.ErrBillNotFound
	}
	if req.Amount <= 0 {
		return nil, billingdomain.ErrInvalidAmount
	}

	// Resolve the tenant outside the lock; the bill is re-read inside the
	// transaction before any arithmetic.
	probe, err := s.repo.FindBill(ctx, s.db, req.BillID)
	if err != nil {
		return nil, err
	}
	if probe == nil {
		return nil, billingdomain.ErrBillNotFound
	}

	var bill *billingdomain.MonthlyBill
	err = s.locks.WithLock(probe.TenantID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			bill, err = s.repo.FindBill(ctx, tx, req.BillID)
			if err != nil {
				return err
			}
			if bill == nil {
				return billingdomain.ErrBillNotFound
			}

			now := s.clock.Now()
			if err := s.applyPayment(ctx, tx, bill, req.Amount, req.Mode, req.Note, req.Meta, now); err != nil {
				return err
			}

			return s.dirRepo.UpdateTenantOutstanding(ctx, tx, bill.TenantID, bill.RemainingDue, now)
		})
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PaymentsRecorded.Inc()
	}
	if err := s.notify.Dispatch(ctx, notification.Message{
		Event:    notification.EventPaymentRecorded,
		OwnerID:  bill.OwnerID,
		TenantID: bill.TenantID,
		BillID:   bill.ID,
		Amount:   req.Amount,
	}); err != nil {
		s.log.Warn("payment notification failed", zap.Error(err), zap.String("bill_id", bill.ID.String()))
	}

	s.log.Info("payment recorded",
		zap.String("bill_id", bill.ID.String()),
		zap.Int64("amount", req.Amount),
		zap.Int64("remaining_due", bill.RemainingDue),
		zap.String("status", string(bill.Status)),
	)
	return s.hydrate(ctx, bill)
}

// applyPayment appends one payment row and recomputes the bill's totals.
// remaining_due is always total - paid; the status is derived, never guessed
// from the previous status.
func (s *Service) applyPayment(ctx context.Context, tx *gorm.DB, bill *billingdomain.MonthlyBill, amount int64, mode, note string, meta map[string]any, now time.Time) error {
	if amount <= 0 {
		return billingdomain.ErrInvalidAmount
	}
	if amount > bill.RemainingDue {
		return billingdomain.ErrOverpayment
	}
	if mode == "" {
		mode = "cash"
	}

	payment := &billingdomain.BillPayment{
		ID:        s.genID.Generate(),
		BillID:    bill.ID,
		TenantID:  bill.TenantID,
		Amount:    amount,
		Mode:      mode,
		Note:      note,
		PaidOn:    now,
		Metadata:  datatypes.JSONMap(meta),
		CreatedAt: now,
	}
	if err := s.repo.InsertPayment(ctx, tx, payment); err != nil {
		return err
	}

	bill.AmountPaid += amount
	bill.RemainingDue = bill.TotalAmount - bill.AmountPaid
	bill.Status = billingdomain.StatusFor(bill.TotalAmount, bill.AmountPaid)
	bill.UpdatedAt = now

	return s.repo.UpdatePaymentTotals(ctx, tx, bill.ID, bill.AmountPaid, bill.RemainingDue, bill.Status, now)
}
