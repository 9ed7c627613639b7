package models

import (
	"context"
	"time"

	"github.com/reboothq/reboot_backend/config"
	"github.com/reboothq/reboot_backend/utils"
	"github.com/shopspring/decimal"
)

// ShopItem is a purchasable reward. The catalog is owned by Airtable; rows
// here are a pulled mirror keyed by AirtableId.
type ShopItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	AirtableId  *string         `gorm:"size:32;uniqueIndex" json:"airtable_id"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	ImageUrl    string          `gorm:"size:500" json:"image_url"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock       *int            `json:"stock"`
	Enabled     *bool           `gorm:"not null;default:true" json:"enabled"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetEnabledShopItems(ctx context.Context) ([]*ShopItem, error) {
	db := config.GetDB()
	var results []*ShopItem

	err := db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("price").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetShopItem(ctx context.Context, id int) (*ShopItem, error) {
	db := config.GetDB()
	var result ShopItem

	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}
