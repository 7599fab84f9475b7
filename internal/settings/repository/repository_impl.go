package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	settingsdomain "github.com/openstay/rentledger/internal/settings/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() settingsdomain.Repository {
	return &repo{}
}

func (r *repo) FindByOwner(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) (*settingsdomain.OwnerSettings, error) {
	var settings settingsdomain.OwnerSettings
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, fixed_water_bill, electricity_rate_per_unit, currency, created_at, updated_at
		 FROM owner_settings WHERE owner_id = ?`,
		ownerID,
	).Scan(&settings).Error
	if err != nil {
		return nil, err
	}
	if settings.ID == 0 {
		return nil, nil
	}
	return &settings, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, settings *settingsdomain.OwnerSettings) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE owner_settings
		 SET fixed_water_bill = ?, electricity_rate_per_unit = ?, currency = ?, updated_at = ?
		 WHERE owner_id = ?`,
		settings.FixedWaterBill,
		settings.ElectricityRatePerUnit,
		settings.Currency,
		settings.UpdatedAt,
		settings.OwnerID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO owner_settings (id, owner_id, fixed_water_bill, electricity_rate_per_unit, currency, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		settings.ID,
		settings.OwnerID,
		settings.FixedWaterBill,
		settings.ElectricityRatePerUnit,
		settings.Currency,
		settings.CreatedAt,
		settings.UpdatedAt,
	).Error
}
