package models

import (
	"context"
	"time"

	"github.com/reboothq/reboot_backend/config"
	"github.com/shopspring/decimal"
)

type ShopOrder struct {
	ID         int             `gorm:"primary_key" json:"id"`
	UserId     int             `gorm:"not null;index" json:"user_id"`
	User       *User           `json:"user,omitempty"`
	ShopItemId int             `gorm:"not null;index" json:"shop_item_id"`
	ShopItem   *ShopItem       `json:"shop_item,omitempty"`
	Quantity   int             `gorm:"not null;default:1" json:"quantity"`
	// Unit price captured at purchase time so later catalog edits do not
	// change what the order cost.
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Status    OrderStatus     `gorm:"type:enum('pending','fulfilled','rejected');default:pending;index" json:"status"`

	AirtableId *string    `gorm:"size:32;index" json:"airtable_id"`
	SyncedAt   *time.Time `gorm:"index" json:"synced_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewShopOrder struct {
	ShopItemId int `json:"shop_item_id" binding:"required"`
	Quantity   int `json:"quantity"`
}

func GetOrdersByUser(ctx context.Context, userId int) ([]*ShopOrder, error) {
	db := config.GetDB()
	var results []*ShopOrder

	err := db.WithContext(ctx).
		Preload("ShopItem").
		Where("user_id = ?", userId).
		Order("id DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
