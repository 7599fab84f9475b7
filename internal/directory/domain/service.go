package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/openstay/rentledger/internal/authscope"
)

type Service interface {
	CreateRoom(ctx context.Context, req CreateRoomRequest) (*Room, error)
	CreateTenant(ctx context.Context, req CreateTenantRequest) (*Tenant, error)
	GetRoom(ctx context.Context, id snowflake.ID) (*Room, error)
	GetTenant(ctx context.Context, id snowflake.ID) (*Tenant, error)

	// ListRooms and ListTenants return the rows visible to the actor.
	ListRooms(ctx context.Context, actor authscope.Actor) ([]*Room, error)
	ListTenants(ctx context.Context, actor authscope.Actor) ([]*Tenant, error)

	// Occupy assigns the tenant to a room, opening a new occupancy window.
	// The tenant's meter baseline is reset to req.MeterReadingStart. Fails
	// with ErrRoomOccupied when another active tenant holds the room.
	Occupy(ctx context.Context, req OccupyRequest) (*Tenant, error)

	// Vacate closes the tenant's occupancy window and frees the room.
	Vacate(ctx context.Context, tenantID snowflake.ID, endDate time.Time) (*Tenant, error)
}

type CreateRoomRequest struct {
	OwnerID  snowflake.ID
	Name     string `json:"name"`
	BaseRent int64  `json:"base_rent"`
}

type CreateTenantRequest struct {
	OwnerID  snowflake.ID
	Name     string `json:"name"`
	BaseRent int64  `json:"base_rent"`
}

type OccupyRequest struct {
	TenantID          snowflake.ID
	RoomID            snowflake.ID
	StartDate         time.Time `json:"start_date"`
	MeterReadingStart int64     `json:"meter_reading_start"`
}

var (
	ErrInvalidOwner     = errors.New("invalid_owner")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidRent      = errors.New("invalid_base_rent")
	ErrInvalidStartDate = errors.New("invalid_start_date")
	ErrInvalidEndDate   = errors.New("invalid_end_date")
	ErrInvalidBaseline  = errors.New("invalid_meter_reading_start")
	ErrTenantNotFound   = errors.New("tenant_not_found")
	ErrRoomNotFound     = errors.New("room_not_found")
	ErrTenantInactive   = errors.New("tenant_inactive")
	ErrRoomOccupied     = errors.New("room_occupied")
)
