package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Get returns the owner's settings, falling back to configured defaults
	// when no row exists.
	Get(ctx context.Context, ownerID snowflake.ID) (*OwnerSettings, error)
	Update(ctx context.Context, req UpdateRequest) (*OwnerSettings, error)
}

type UpdateRequest struct {
	OwnerID                snowflake.ID
	FixedWaterBill         *int64  `json:"fixed_water_bill,omitempty"`
	ElectricityRatePerUnit *int64  `json:"electricity_rate_per_unit,omitempty"`
	Currency               *string `json:"currency,omitempty"`
}

var (
	ErrInvalidOwner    = errors.New("invalid_owner")
	ErrInvalidRate     = errors.New("invalid_rate_per_unit")
	ErrInvalidWater    = errors.New("invalid_water_bill")
	ErrInvalidCurrency = errors.New("invalid_currency")
)
