package airtable

import (
	"context"
	"time"

	"github.com/reboothq/reboot_backend/config"
	"github.com/reboothq/reboot_backend/models"
	"gorm.io/gorm"
)

const (
	KindUserSync       = "user_sync"
	KindShopOrderSync  = "shop_order_sync"
	KindShopItemPull   = "shop_item_pull"
	KindSubmissionSync = "submission_sync"
)

// DefaultKinds wires the four sync kinds to their tables, batch sources and
// mappers. Users, shop orders and approved submissions are pushed; the shop
// item catalog is pulled.
func DefaultKinds() []*EntitySync {
	return []*EntitySync{
		userSync(),
		shopOrderSync(),
		shopItemPull(),
		submissionSync(),
	}
}

func userSync() *EntitySync {
	return &EntitySync{
		Kind:  KindUserSync,
		Table: config.AirtableUsersTable,
		Quota: DefaultQuota,
		Mark:  MarkAttempted,
		SelectBatch: func(ctx context.Context, limit int) ([]SyncTarget, error) {
			var users []models.User
			err := SelectDue(func() *gorm.DB {
				return config.GetDB().WithContext(ctx).Model(&models.User{})
			}, "synced_at", limit, &users)
			if err != nil {
				return nil, err
			}
			targets := make([]SyncTarget, 0, len(users))
			for i := range users {
				targets = append(targets, SyncTarget{
					LocalID:    users[i].ID,
					ExternalID: externalID(users[i].AirtableId),
					Fields:     MapUser(&users[i]),
				})
			}
			return targets, nil
		},
		SetExternalID: setColumn(&models.User{}, "airtable_id"),
		MarkSynced:    markColumn(&models.User{}, "synced_at"),
	}
}

func shopOrderSync() *EntitySync {
	return &EntitySync{
		Kind:  KindShopOrderSync,
		Table: config.AirtableOrdersTable,
		Quota: DefaultQuota,
		Mark:  MarkAttempted,
		SelectBatch: func(ctx context.Context, limit int) ([]SyncTarget, error) {
			var orders []models.ShopOrder
			err := SelectDue(func() *gorm.DB {
				return config.GetDB().WithContext(ctx).
					Model(&models.ShopOrder{}).
					Preload("User").
					Preload("ShopItem")
			}, "synced_at", limit, &orders)
			if err != nil {
				return nil, err
			}
			targets := make([]SyncTarget, 0, len(orders))
			for i := range orders {
				targets = append(targets, SyncTarget{
					LocalID:    orders[i].ID,
					ExternalID: externalID(orders[i].AirtableId),
					Fields:     MapShopOrder(&orders[i]),
				})
			}
			return targets, nil
		},
		SetExternalID: setColumn(&models.ShopOrder{}, "airtable_id"),
		MarkSynced:    markColumn(&models.ShopOrder{}, "synced_at"),
	}
}

// submissionSync pushes projects that have ever been approved. The remote
// pointer lives in its own column pair so a project row can later grow other
// sync destinations without colliding.
func submissionSync() *EntitySync {
	return &EntitySync{
		Kind:  KindSubmissionSync,
		Table: config.AirtableSubmissionsTable,
		Quota: DefaultQuota,
		Mark:  MarkAttempted,
		SelectBatch: func(ctx context.Context, limit int) ([]SyncTarget, error) {
			var projects []models.Project
			err := SelectDue(func() *gorm.DB {
				return config.GetDB().WithContext(ctx).
					Model(&models.Project{}).
					Preload("User").
					Where("approval_reason IS NOT NULL")
			}, "ysws_synced_at", limit, &projects)
			if err != nil {
				return nil, err
			}
			targets := make([]SyncTarget, 0, len(projects))
			for i := range projects {
				targets = append(targets, SyncTarget{
					LocalID:    projects[i].ID,
					ExternalID: externalID(projects[i].YswsAirtableId),
					Fields:     MapSubmission(&projects[i]),
				})
			}
			return targets, nil
		},
		SetExternalID: setColumn(&models.Project{}, "ysws_airtable_id"),
		MarkSynced:    markColumn(&models.Project{}, "ysws_synced_at"),
	}
}

func shopItemPull() *EntitySync {
	return &EntitySync{
		Kind:  KindShopItemPull,
		Table: config.AirtableShopItemsTable,
		Pull: func(ctx context.Context, client RecordClient, table string) error {
			records, err := client.List(ctx, table)
			if err != nil {
				return err
			}
			db := config.GetDB()
			var lastErr error
			for _, rec := range records {
				attrs := shopItemAttrs(rec)
				attrs["airtable_id"] = rec.ID
				var item models.ShopItem
				err := db.WithContext(ctx).
					Where("airtable_id = ?", rec.ID).
					Assign(attrs).
					FirstOrCreate(&item).Error
				if err != nil {
					// keep going; one bad row must not block the catalog
					config.LogError(config.GetLogger(), "airtable", "shopItemPull", rec.ID, attrs, err)
					lastErr = err
				}
			}
			return lastErr
		},
	}
}

func externalID(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}

// setColumn writes the external pointer with UpdateColumn so sync
// bookkeeping never bumps updated_at.
func setColumn(model interface{}, column string) func(ctx context.Context, localID int, externalID *string) error {
	return func(ctx context.Context, localID int, externalID *string) error {
		return config.GetDB().WithContext(ctx).
			Model(model).
			Where("id = ?", localID).
			UpdateColumn(column, externalID).Error
	}
}

func markColumn(model interface{}, column string) func(ctx context.Context, localIDs []int, at time.Time) error {
	return func(ctx context.Context, localIDs []int, at time.Time) error {
		return config.GetDB().WithContext(ctx).
			Model(model).
			Where("id IN ?", localIDs).
			UpdateColumn(column, at).Error
	}
}
