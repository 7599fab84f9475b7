package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/openstay/rentledger/internal/config"
	settingsdomain "github.com/openstay/rentledger/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       settingsdomain.Repository
	BillingCfg *config.BillingConfigHolder
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       settingsdomain.Repository
	billingCfg *config.BillingConfigHolder
}

func New(p Params) settingsdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("settings.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		billingCfg: p.BillingCfg,
	}
}

func (s *Service) Get(ctx context.Context, ownerID snowflake.ID) (*settingsdomain.OwnerSettings, error) {
	if ownerID == 0 {
		return nil, settingsdomain.ErrInvalidOwner
	}

	settings, err := s.repo.FindByOwner(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}

	defaults := s.billingCfg.Get()
	return &settingsdomain.OwnerSettings{
		OwnerID:                ownerID,
		FixedWaterBill:         defaults.DefaultWaterCharge,
		ElectricityRatePerUnit: defaults.DefaultRatePerUnit,
		Currency:               defaults.DefaultCurrency,
	}, nil
}

func (s *Service) Update(ctx context.Context, req settingsdomain.UpdateRequest) (*settingsdomain.OwnerSettings, error) {
	if req.OwnerID == 0 {
		return nil, settingsdomain.ErrInvalidOwner
	}

	current, err := s.Get(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}

	if req.FixedWaterBill != nil {
		if *req.FixedWaterBill < 0 {
			return nil, settingsdomain.ErrInvalidWater
		}
		current.FixedWaterBill = *req.FixedWaterBill
	}
	if req.ElectricityRatePerUnit != nil {
		if *req.ElectricityRatePerUnit < 0 {
			return nil, settingsdomain.ErrInvalidRate
		}
		current.ElectricityRatePerUnit = *req.ElectricityRatePerUnit
	}
	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if currency == "" {
			return nil, settingsdomain.ErrInvalidCurrency
		}
		current.Currency = currency
	}

	now := time.Now().UTC()
	if current.ID == 0 {
		current.ID = s.genID.Generate()
		current.CreatedAt = now
	}
	current.UpdatedAt = now

	if err := s.repo.Upsert(ctx, s.db, current); err != nil {
		return nil, err
	}

	return current, nil
}
