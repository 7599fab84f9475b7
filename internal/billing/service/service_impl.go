package service

import (
	"context"
	"strconv"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/openstay/rentledger/internal/billing/domain"
	"github.com/openstay/rentledger/internal/clock"
	directorydomain "github.com/openstay/rentledger/internal/directory/domain"
	meteringdomain "github.com/openstay/rentledger/internal/metering/domain"
	"github.com/openstay/rentledger/internal/notification"
	obsmetrics "github.com/openstay/rentledger/internal/observability/metrics"
	settingsdomain "github.com/openstay/rentledger/internal/settings/domain"
	"github.com/openstay/rentledger/internal/tenantlock"
	"github.com/openstay/rentledger/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     billingdomain.Repository
	DirRepo  directorydomain.Repository
	MeterRep meteringdomain.Repository
	Settings settingsdomain.Service
	Locks    *tenantlock.Keyed
	Notify   notification.Dispatcher
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     billingdomain.Repository
	dirRepo  directorydomain.Repository
	meterRep meteringdomain.Repository
	settings settingsdomain.Service
	locks    *tenantlock.Keyed
	notify   notification.Dispatcher
	metrics  *obsmetrics.Metrics
}

func New(p Params) billingdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("billing.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		dirRepo:  p.DirRepo,
		meterRep: p.MeterRep,
		settings: p.Settings,
		locks:    p.Locks,
		notify:   p.Notify,
		metrics:  p.Metrics,
	}
}

func validPeriod(month, year int) bool {
	return month >= 1 && month <= 12 && year >= 2000 && year <= 9999
}

func (s *Service) GetBill(ctx context.Context, id snowflake.ID) (*billingdomain.MonthlyBill, error) {
	bill, err := s.repo.FindBill(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, billingdomain.ErrBillNotFound
	}
	return s.hydrate(ctx, bill)
}

func (s *Service) CurrentBill(ctx context.Context, tenantID snowflake.ID, month, year int) (*billingdomain.MonthlyBill, error) {
	if tenantID == 0 {
		return nil, billingdomain.ErrInvalidTenant
	}
	if !validPeriod(month, year) {
		return nil, billingdomain.ErrInvalidPeriod
	}

	bill, err := s.repo.FindCurrentForPeriod(ctx, s.db, tenantID, month, year)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, billingdomain.ErrBillNotFound
	}
	return s.hydrate(ctx, bill)
}

func (s *Service) ListBills(ctx context.Context, req billingdomain.ListBillsRequest) (billingdomain.ListBillsResponse, error) {
	if req.TenantID == 0 {
		return billingdomain.ListBillsResponse{}, billingdomain.ErrInvalidTenant
	}

	limit := req.PageSize
	if limit <= 0 {
		limit = 25
	}

	var afterID snowflake.ID
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return billingdomain.ListBillsResponse{}, err
		}
		parsed, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return billingdomain.ListBillsResponse{}, err
		}
		afterID = parsed
	}

	rows, err := s.repo.List(ctx, s.db, req.TenantID, limit+1, afterID)
	if err != nil {
		return billingdomain.ListBillsResponse{}, err
	}

	rows, pageInfo := pagination.BuildCursorPageInfo(rows, limit, func(b *billingdomain.MonthlyBill) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: strconv.FormatInt(b.ID.Int64(), 10)})
		return token
	})

	bills := make([]billingdomain.MonthlyBill, 0, len(rows))
	for _, row := range rows {
		bills = append(bills, *row)
	}

	return billingdomain.ListBillsResponse{
		PageInfo: *pageInfo,
		Bills:    bills,
	}, nil
}

func (s *Service) SetStatus(ctx context.Context, billID snowflake.ID, status billingdomain.BillStatus) (*billingdomain.MonthlyBill, error) {
	if !billingdomain.ValidStatus(status) {
		return nil, billingdomain.ErrInvalidStatus
	}

	bill, err := s.repo.FindBill(ctx, s.db, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, billingdomain.ErrBillNotFound
	}

	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, s.db, bill.ID, status, now); err != nil {
		return nil, err
	}

	s.log.Info("bill status overridden",
		zap.String("bill_id", bill.ID.String()),
		zap.String("from", string(bill.Status)),
		zap.String("to", string(status)),
	)

	bill.Status = status
	bill.UpdatedAt = now
	return bill, nil
}

func (s *Service) hydrate(ctx context.Context, bill *billingdomain.MonthlyBill) (*billingdomain.MonthlyBill, error) {
	details, err := s.repo.LoadRoomDetails(ctx, s.db, bill.ID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.LoadPayments(ctx, s.db, bill.ID)
	if err != nil {
		return nil, err
	}
	bill.RoomDetails = details
	bill.Payments = payments
	return bill, nil
}
