package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/openstay/rentledger/pkg/db/pagination"
)

type Service interface {
	// GenerateBill composes and persists a monthly bill. Composition is
	// all-or-nothing: any failure leaves no partial bill behind.
	GenerateBill(ctx context.Context, req GenerateBillRequest) (*MonthlyBill, error)

	GetBill(ctx context.Context, id snowflake.ID) (*MonthlyBill, error)

	// CurrentBill resolves "the bill for this period" as the one with the
	// latest created_at; periods are intentionally not unique.
	CurrentBill(ctx context.Context, tenantID snowflake.ID, month, year int) (*MonthlyBill, error)

	ListBills(ctx context.Context, req ListBillsRequest) (ListBillsResponse, error)

	// RecordPayment appends to the bill's payment history. Paying more than
	// the remaining due fails with ErrOverpayment and commits nothing.
	RecordPayment(ctx context.Context, req RecordPaymentRequest) (*MonthlyBill, error)

	// SetStatus is an administrative override. It does not touch the payment
	// totals and may leave status out of sync with them by design.
	SetStatus(ctx context.Context, billID snowflake.ID, status BillStatus) (*MonthlyBill, error)
}

// Overrides replace derived electricity figures on the manual correction
// path. The non-negativity floor on usage still applies.
type Overrides struct {
	Usage          *int64 `json:"usage,omitempty"`
	CurrentReading *int64 `json:"current_reading,omitempty"`
}

type GenerateBillRequest struct {
	TenantID  snowflake.ID
	Month     int        `json:"month"`
	Year      int        `json:"year"`
	Overrides *Overrides `json:"overrides,omitempty"`

	// InitialPayment, when set, is recorded against the bill in the same
	// transaction that creates it.
	InitialPayment *PaymentInput `json:"initial_payment,omitempty"`
}

type PaymentInput struct {
	Amount int64  `json:"amount"`
	Mode   string `json:"mode"`
	Note   string `json:"note"`
}

type RecordPaymentRequest struct {
	BillID snowflake.ID
	Amount int64          `json:"amount"`
	Mode   string         `json:"mode"`
	Note   string         `json:"note"`
	Meta   map[string]any `json:"metadata,omitempty"`
}

type ListBillsRequest struct {
	TenantID snowflake.ID
	pagination.Pagination
}

type ListBillsResponse struct {
	pagination.PageInfo
	Bills []MonthlyBill `json:"bills"`
}

var (
	ErrInvalidTenant     = errors.New("invalid_tenant")
	ErrInvalidPeriod     = errors.New("invalid_billing_period")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrBillNotFound      = errors.New("bill_not_found")
	ErrTenantNotOccupied = errors.New("tenant_not_occupied")
	ErrOverpayment       = errors.New("overpayment")
)
