package service

import (
	"context"
	"testing"
	"time"

	billingdomain "github.com/openstay/rentledger/internal/billing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPayment_Lifecycle(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()

	tenant := env.occupiedTenant(t, 4700, 0, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC))

	// rent 4700 + water 300 = 5000
	bill, err := env.billSvc.GenerateBill(ctx, billingdomain.GenerateBillRequest{TenantID: tenant.ID, Month: 1, Year: 2026})
	require.NoError(t, err)
	require.Equal(t, int64(5000), bill.TotalAmount)

	env.clock.Advance(time.Hour)

	partial, err := env.billSvc.RecordPayment(ctx, billingdomain.RecordPaymentRequest{
		BillID: bill.ID,
		Amount: 3000,
		Mode:   "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), partial.AmountPaid)
	assert.Equal(t, int64(2000), partial.RemainingDue)
	assert.Equal(t, billingdomain.BillStatusPartial, partial.Status)

	env.clock.Advance(time.Hour)

	paid, err := env.billSvc.RecordPayment(ctx, billingdomain.RecordPaymentRequest{
		BillID: bill.ID,
		Amount: 2000,
		Mode:   "upi",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), paid.RemainingDue)
	assert.Equal(t, billingdomain.BillStatusPaid, paid.Status)
	assert.Len(t, paid.Payments, 2)

	// A settled bill accepts nothing further.
	_, err = env.billSvc.RecordPayment(ctx, billingdomain.RecordPaymentRequest{BillID: bill.ID, Amount: 1})
	assert.ErrorIs(t, err, billingdomain.ErrOverpayment)

	stored, err := env.dirSvc.GetTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.OutstandingBalance)
}

func TestRecordPayment_OverpaymentCommitsNothing(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()

	tenant := env.occupiedTenant(t, 4700, 0, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC))
	bill, err := env.billSvc.GenerateBill(ctx, billingdomain.GenerateBillRequest{TenantID: tenant.ID, Month: 1, Year: 2026})
	require.NoError(t, err)

	_, err = env.billSvc.RecordPayment(ctx, billingdomain.RecordPaymentRequest{
		BillID: bill.ID,
		Amount: bill.TotalAmount + 1,
	})
	require.ErrorIs(t, err, billingdomain.ErrOverpayment)

	reloaded, err := env.billSvc.GetBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reloaded.AmountPaid)
	assert.Equal(t, billingdomain.BillStatusPending, reloaded.Status)
	assert.Empty(t, reloaded.Payments)
}

func TestRecordPayment_InvalidAmount(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()

	tenant := env.occupiedTenant(t, 4700, 0, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC))
	bill, err := env.billSvc.GenerateBill(ctx, billingdomain.GenerateBillRequest{TenantID: tenant.ID, Month: 1, Year: 2026})
	require.NoError(t, err)

	_, err = env.billSvc.RecordPayment(ctx, billingdomain.RecordPaymentRequest{BillID: bill.ID, Amount: 0})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidAmount)

	_, err = env.billSvc.RecordPayment(ctx, billingdomain.RecordPaymentRequest{BillID: bill.ID, Amount: -10})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidAmount)
}

func TestSetStatus_OverrideDoesNotTouchTotals(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()

	tenant := env.occupiedTenant(t, 4700, 0, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC))
	bill, err := env.billSvc.GenerateBill(ctx, billingdomain.GenerateBillRequest{TenantID: tenant.ID, Month: 1, Year: 2026})
	require.NoError(t, err)

	updated, err := env.billSvc.SetStatus(ctx, bill.ID, billingdomain.BillStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, billingdomain.BillStatusPaid, updated.Status)
	assert.Equal(t, bill.TotalAmount, updated.RemainingDue)
	assert.Equal(t, int64(0), updated.AmountPaid)

	_, err = env.billSvc.SetStatus(ctx, bill.ID, billingdomain.BillStatus("BOGUS"))
	assert.ErrorIs(t, err, billingdomain.ErrInvalidStatus)
}
