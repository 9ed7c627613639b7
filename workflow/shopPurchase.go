package workflow

import (
	"context"

	"github.com/reboothq/reboot_backend/config"
	"github.com/reboothq/reboot_backend/models"
	"github.com/reboothq/reboot_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderEnqueue is called after a purchase commits so the new order reaches
// the remote orders table promptly. Wired to the sync dispatcher in main.
var OrderEnqueue = func() {}

// Purchase debits the buyer and creates the order in one transaction; both
// happen or neither does. Stock is decremented locally as a guard between
// catalog pulls, the remote catalog stays the source of truth.
func Purchase(ctx context.Context, userId int, input *models.NewShopOrder) (*models.ShopOrder, error) {
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, utils.NewValidationError("Quantity must be positive")
	}

	db := config.GetDB()
	var order models.ShopOrder

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, userId).Error; err != nil {
			return utils.ErrorRecordNotFound
		}

		var item models.ShopItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&item, input.ShopItemId).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		if item.Enabled != nil && !*item.Enabled {
			return utils.NewValidationError("Item is not available")
		}
		if item.Stock != nil && *item.Stock < quantity {
			return utils.NewValidationError("Insufficient stock")
		}

		total := item.Price.Mul(decimal.NewFromInt(int64(quantity)))
		if user.Balance.LessThan(total) {
			return utils.NewValidationError("Insufficient balance")
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("balance", gorm.Expr("balance - ?", total)).Error; err != nil {
			return err
		}
		if item.Stock != nil {
			if err := tx.Model(&models.ShopItem{}).
				Where("id = ?", item.ID).
				Update("stock", gorm.Expr("stock - ?", quantity)).Error; err != nil {
				return err
			}
		}

		order = models.ShopOrder{
			UserId:     user.ID,
			ShopItemId: item.ID,
			Quantity:   quantity,
			UnitPrice:  item.Price,
			Total:      total,
			Status:     models.OrderStatusPending,
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}

	OrderEnqueue()

	var committed models.ShopOrder
	if err := db.WithContext(ctx).Preload("ShopItem").First(&committed, order.ID).Error; err != nil {
		return nil, err
	}
	return &committed, nil
}
