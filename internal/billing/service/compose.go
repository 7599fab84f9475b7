package service

import (
	"context"
	"math"
	"time"

	billingdomain "github.com/openstay/rentledger/internal/billing/domain"
	directorydomain "github.com/openstay/rentledger/internal/directory/domain"
	"github.com/openstay/rentledger/internal/notification"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// roomCharge is one room's share of the bill before persistence.
type roomCharge struct {
	room       directorydomain.Room
	startUnits int64
	endUnits   int64
	usage      int64
	rent       int64
}

func (s *Service) GenerateBill(ctx context.Context, req billingdomain.GenerateBillRequest) (*billingdomain.MonthlyBill, error) {
	if req.TenantID == 0 {
		return nil, billingdomain.ErrInvalidTenant
	}
	if !validPeriod(req.Month, req.Year) {
		return nil, billingdomain.ErrInvalidPeriod
	}
	if req.InitialPayment != nil && req.InitialPayment.Amount <= 0 {
		return nil, billingdomain.ErrInvalidAmount
	}

	var bill *billingdomain.MonthlyBill
	err := s.locks.WithLock(req.TenantID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			tenant, err := s.dirRepo.FindTenant(ctx, tx, req.TenantID)
			if err != nil {
				return err
			}
			if tenant == nil {
				return directorydomain.ErrTenantNotFound
			}
			if tenant.StartDate == nil {
				return billingdomain.ErrTenantNotOccupied
			}

			settings, err := s.settings.Get(ctx, tenant.OwnerID)
			if err != nil {
				return err
			}

			rooms, err := s.dirRepo.ListRoomsByTenant(ctx, tx, tenant.ID)
			if err != nil {
				return err
			}

			now := s.clock.Now()
			days := daysOccupied(req.Month, req.Year, tenant)

			var charges []roomCharge
			if len(rooms) > 1 {
				charges, err = s.composeMultiRoom(ctx, tx, tenant, rooms, req.Month, req.Year, days)
			} else {
				charges, err = s.composeSingleRoom(ctx, tx, tenant, rooms, req.Month, req.Year, days, req.Overrides)
			}
			if err != nil {
				return err
			}

			var startUnits, endUnits, usage, rent int64
			for _, c := range charges {
				startUnits += c.startUnits
				endUnits += c.endUnits
				usage += c.usage
				rent += c.rent
			}

			rate := settings.ElectricityRatePerUnit
			water := settings.FixedWaterBill
			electricity := usage * rate

			previousDue, err := s.repo.SumOpenDues(ctx, tx, tenant.ID, req.Month, req.Year)
			if err != nil {
				return err
			}

			total := rent + water + electricity + previousDue

			bill = &billingdomain.MonthlyBill{
				ID:                 s.genID.Generate(),
				OwnerID:            tenant.OwnerID,
				TenantID:           tenant.ID,
				BillMonth:          req.Month,
				BillYear:           req.Year,
				MeterStartUnits:    startUnits,
				MeterEndUnits:      endUnits,
				MeterUnitsConsumed: usage,
				RatePerUnit:        rate,
				WaterCharge:        water,
				RentAmount:         rent,
				PreviousDue:        previousDue,
				ElectricityAmount:  electricity,
				TotalAmount:        total,
				AmountPaid:         0,
				RemainingDue:       total,
				Status:             billingdomain.BillStatusPending,
				CreatedAt:          now,
				UpdatedAt:          now,
			}

			details := make([]billingdomain.BillRoomDetail, 0, len(charges))
			for _, c := range charges {
				details = append(details, billingdomain.BillRoomDetail{
					ID:                s.genID.Generate(),
					BillID:            bill.ID,
					RoomID:            c.room.ID,
					StartUnits:        c.startUnits,
					EndUnits:          c.endUnits,
					UnitsConsumed:     c.usage,
					RentAmount:        c.rent,
					ElectricityAmount: c.usage * rate,
					CreatedAt:         now,
				})
			}

			if err := s.repo.InsertBill(ctx, tx, bill, details); err != nil {
				return err
			}
			bill.RoomDetails = details

			if req.InitialPayment != nil {
				if err := s.applyPayment(ctx, tx, bill, req.InitialPayment.Amount, req.InitialPayment.Mode, req.InitialPayment.Note, nil, now); err != nil {
					return err
				}
			}

			return s.dirRepo.UpdateTenantOutstanding(ctx, tx, tenant.ID, bill.RemainingDue, now)
		})
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BillsGenerated.Inc()
	}
	if err := s.notify.Dispatch(ctx, notification.Message{
		Event:    notification.EventBillGenerated,
		OwnerID:  bill.OwnerID,
		TenantID: bill.TenantID,
		BillID:   bill.ID,
		Amount:   bill.TotalAmount,
	}); err != nil {
		s.log.Warn("bill notification failed", zap.Error(err), zap.String("bill_id", bill.ID.String()))
	}

	s.log.Info("bill generated",
		zap.String("tenant_id", bill.TenantID.String()),
		zap.Int("month", bill.BillMonth),
		zap.Int("year", bill.BillYear),
		zap.Int64("total_amount", bill.TotalAmount),
	)
	return bill, nil
}

// composeSingleRoom derives the bill line from the tenant ledger. The previous
// boundary is the end units of the tenant's last bill in this occupancy, else
// the occupancy baseline; the current boundary is the latest ledger entry,
// else the previous boundary (no reading this month means zero usage).
func (s *Service) composeSingleRoom(ctx context.Context, tx *gorm.DB, tenant *directorydomain.Tenant, rooms []directorydomain.Room, month, year, days int, overrides *billingdomain.Overrides) ([]roomCharge, error) {
	prev := tenant.MeterReadingStart
	lastBill, err := s.repo.FindLatestSince(ctx, tx, tenant.ID, *tenant.StartDate)
	if err != nil {
		return nil, err
	}
	if lastBill != nil {
		prev = lastBill.MeterEndUnits
	}

	cur := prev
	latest, err := s.meterRep.FindLatest(ctx, tx, tenant.ID, *tenant.StartDate)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		cur = latest.Value
	}

	if overrides != nil && overrides.CurrentReading != nil {
		cur = *overrides.CurrentReading
	}

	usage := cur - prev
	if overrides != nil && overrides.Usage != nil {
		usage = *overrides.Usage
	}
	if usage < 0 {
		usage = 0
	}

	baseRent := tenant.BaseRent
	var room directorydomain.Room
	if len(rooms) == 1 {
		room = rooms[0]
		if baseRent == 0 {
			baseRent = room.BaseRent
		}
	}

	return []roomCharge{{
		room:       room,
		startUnits: prev,
		endUnits:   cur,
		usage:      usage,
		rent:       proRate(baseRent, month, year, days),
	}}, nil
}

// composeMultiRoom bills each room off its own boundary chain: the last bill
// detail for that room, else the room's earliest ledger entry in this
// occupancy, else zero usage.
func (s *Service) composeMultiRoom(ctx context.Context, tx *gorm.DB, tenant *directorydomain.Tenant, rooms []directorydomain.Room, month, year, days int) ([]roomCharge, error) {
	charges := make([]roomCharge, 0, len(rooms))
	for _, room := range rooms {
		charge := roomCharge{
			room: room,
			rent: proRate(room.BaseRent, month, year, days),
		}

		var prev *int64
		detail, err := s.repo.FindLatestRoomDetail(ctx, tx, tenant.ID, room.ID)
		if err != nil {
			return nil, err
		}
		if detail != nil {
			prev = &detail.EndUnits
		} else {
			earliest, err := s.meterRep.FindEarliestForRoom(ctx, tx, tenant.ID, room.ID, *tenant.StartDate)
			if err != nil {
				return nil, err
			}
			if earliest != nil {
				prev = &earliest.PreviousValue
			}
		}

		if prev != nil {
			charge.startUnits = *prev
			charge.endUnits = *prev

			latest, err := s.meterRep.FindLatestForRoom(ctx, tx, tenant.ID, room.ID, *tenant.StartDate)
			if err != nil {
				return nil, err
			}
			if latest != nil && latest.Value > charge.startUnits {
				charge.endUnits = latest.Value
			}
			charge.usage = charge.endUnits - charge.startUnits
		}

		charges = append(charges, charge)
	}
	return charges, nil
}

// proRate charges a whole month's rent when the tenant occupied every day of
// the period, otherwise a rounded per-day fraction.
func proRate(baseRent int64, month, year, days int) int64 {
	inMonth := daysInMonth(month, year)
	if days >= inMonth {
		return baseRent
	}
	if days <= 0 {
		return 0
	}
	return int64(math.Round(float64(baseRent) * float64(days) / float64(inMonth)))
}

func daysInMonth(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// daysOccupied counts the inclusive overlap in days between the billing
// period and the tenant's occupancy window.
func daysOccupied(month, year int, tenant *directorydomain.Tenant) int {
	periodStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, -1)

	start := periodStart
	if ts := truncateDay(*tenant.StartDate); ts.After(start) {
		start = ts
	}

	end := periodEnd
	if !tenant.IsActive && tenant.EndDate != nil {
		if te := truncateDay(*tenant.EndDate); te.Before(end) {
			end = te
		}
	}

	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
