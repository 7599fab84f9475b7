// Package notification delivers bill lifecycle events to the owner. Delivery
// runs after the owning transaction commits; a failed dispatch is logged and
// never rolls the bill back.
package notification

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

type Event string

const (
	EventBillGenerated   Event = "bill.generated"
	EventPaymentRecorded Event = "payment.recorded"
)

type Message struct {
	Event    Event
	OwnerID  snowflake.ID
	TenantID snowflake.ID
	BillID   snowflake.ID
	Amount   int64
}

type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

type logDispatcher struct {
	log *zap.Logger
}

// NewLogDispatcher returns a dispatcher that records events in the service
// log. Push channels (SMS, WhatsApp) plug in behind the same interface.
func NewLogDispatcher(log *zap.Logger) Dispatcher {
	return &logDispatcher{log: log.Named("notification")}
}

func (d *logDispatcher) Dispatch(_ context.Context, msg Message) error {
	d.log.Info("event dispatched",
		zap.String("event", string(msg.Event)),
		zap.String("owner_id", msg.OwnerID.String()),
		zap.String("tenant_id", msg.TenantID.String()),
		zap.String("bill_id", msg.BillID.String()),
		zap.Int64("amount", msg.Amount),
	)
	return nil
}
