package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/openstay/rentledger/internal/authscope"
	directorydomain "github.com/openstay/rentledger/internal/directory/domain"
	"github.com/openstay/rentledger/internal/tenantlock"
	"github.com/openstay/rentledger/pkg/db/option"
	"github.com/openstay/rentledger/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        directorydomain.Repository
	RoomStore   repository.Repository[directorydomain.Room]
	TenantStore repository.Repository[directorydomain.Tenant]
	Locks       *tenantlock.Keyed
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        directorydomain.Repository
	roomStore   repository.Repository[directorydomain.Room]
	tenantStore repository.Repository[directorydomain.Tenant]
	locks       *tenantlock.Keyed
}

func New(p Params) directorydomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("directory.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		roomStore:   p.RoomStore,
		tenantStore: p.TenantStore,
		locks:       p.Locks,
	}
}

const listLimit = 500

func (s *Service) ListRooms(ctx context.Context, actor authscope.Actor) ([]*directorydomain.Room, error) {
	return s.roomStore.Find(ctx, &directorydomain.Room{},
		option.WithScope(authscope.Scope(actor)),
		option.WithOrder("id ASC"),
		option.WithLimit(listLimit),
	)
}

func (s *Service) ListTenants(ctx context.Context, actor authscope.Actor) ([]*directorydomain.Tenant, error) {
	return s.tenantStore.Find(ctx, &directorydomain.Tenant{},
		option.WithScope(authscope.Scope(actor)),
		option.WithOrder("id ASC"),
		option.WithLimit(listLimit),
	)
}

func (s *Service) CreateRoom(ctx context.Context, req directorydomain.CreateRoomRequest) (*directorydomain.Room, error) {
	if req.OwnerID == 0 {
		return nil, directorydomain.ErrInvalidOwner
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, directorydomain.ErrInvalidName
	}
	if req.BaseRent < 0 {
		return nil, directorydomain.ErrInvalidRent
	}

	now := time.Now().UTC()
	room := &directorydomain.Room{
		ID:        s.genID.Generate(),
		OwnerID:   req.OwnerID,
		Name:      name,
		BaseRent:  req.BaseRent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertRoom(ctx, s.db, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *Service) CreateTenant(ctx context.Context, req directorydomain.CreateTenantRequest) (*directorydomain.Tenant, error) {
	if req.OwnerID == 0 {
		return nil, directorydomain.ErrInvalidOwner
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, directorydomain.ErrInvalidName
	}
	if req.BaseRent < 0 {
		return nil, directorydomain.ErrInvalidRent
	}

	now := time.Now().UTC()
	tenant := &directorydomain.Tenant{
		ID:        s.genID.Generate(),
		OwnerID:   req.OwnerID,
		Name:      name,
		BaseRent:  req.BaseRent,
		IsActive:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertTenant(ctx, s.db, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *Service) GetRoom(ctx context.Context, id snowflake.ID) (*directorydomain.Room, error) {
	room, err := s.repo.FindRoom(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, directorydomain.ErrRoomNotFound
	}
	return room, nil
}

func (s *Service) GetTenant(ctx context.Context, id snowflake.ID) (*directorydomain.Tenant, error) {
	tenant, err := s.repo.FindTenant(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, directorydomain.ErrTenantNotFound
	}
	return tenant, nil
}

func (s *Service) Occupy(ctx context.Context, req directorydomain.OccupyRequest) (*directorydomain.Tenant, error) {
	if req.StartDate.IsZero() {
		return nil, directorydomain.ErrInvalidStartDate
	}
	if req.MeterReadingStart < 0 {
		return nil, directorydomain.ErrInvalidBaseline
	}

	var tenant *directorydomain.Tenant
	err := s.locks.WithLock(req.TenantID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			tenant, err = s.repo.FindTenant(ctx, tx, req.TenantID)
			if err != nil {
				return err
			}
			if tenant == nil {
				return directorydomain.ErrTenantNotFound
			}

			room, err := s.repo.FindRoom(ctx, tx, req.RoomID)
			if err != nil {
				return err
			}
			if room == nil {
				return directorydomain.ErrRoomNotFound
			}
			if room.CurrentTenantID != nil && *room.CurrentTenantID != tenant.ID {
				return directorydomain.ErrRoomOccupied
			}

			now := time.Now().UTC()
			roomID := room.ID
			tenant.RoomID = &roomID
			tenant.UpdatedAt = now
			if !tenant.IsActive || tenant.StartDate == nil {
				// New occupancy window: the baseline and start date reset.
				// Assigning a further room to an already-active tenant keeps
				// the existing window.
				start := req.StartDate.UTC()
				tenant.MeterReadingStart = req.MeterReadingStart
				tenant.StartDate = &start
			}
			tenant.EndDate = nil
			tenant.IsActive = true

			return s.repo.SetOccupancy(ctx, tx, tenant, room)
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("tenant occupied room",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("room_id", req.RoomID.String()),
		zap.Int64("meter_reading_start", req.MeterReadingStart),
	)
	return tenant, nil
}

func (s *Service) Vacate(ctx context.Context, tenantID snowflake.ID, endDate time.Time) (*directorydomain.Tenant, error) {
	if endDate.IsZero() {
		return nil, directorydomain.ErrInvalidEndDate
	}

	var tenant *directorydomain.Tenant
	err := s.locks.WithLock(tenantID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			tenant, err = s.repo.FindTenant(ctx, tx, tenantID)
			if err != nil {
				return err
			}
			if tenant == nil {
				return directorydomain.ErrTenantNotFound
			}
			if !tenant.IsActive {
				return directorydomain.ErrTenantInactive
			}
			if tenant.StartDate != nil && endDate.Before(*tenant.StartDate) {
				return directorydomain.ErrInvalidEndDate
			}

			end := endDate.UTC()
			tenant.EndDate = &end
			tenant.IsActive = false
			tenant.UpdatedAt = time.Now().UTC()

			return s.repo.ClearOccupancy(ctx, tx, tenant, end)
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("tenant vacated", zap.String("tenant_id", tenantID.String()))
	return tenant, nil
}
