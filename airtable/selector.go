package airtable

import (
	"gorm.io/gorm"
)

// DefaultQuota bounds remote writes per run regardless of table size.
const DefaultQuota = 10

// SelectDue fills dest with up to limit due rows using the two-tier policy:
// never-attempted rows (synced_at IS NULL) first, then the stalest attempted
// rows oldest synced_at first. newQuery must return a fresh query each call;
// gorm accumulates conditions on reused ones.
func SelectDue(newQuery func() *gorm.DB, syncedAtCol string, limit int, dest interface{}) error {
	var nullCount int64
	if err := newQuery().Where(syncedAtCol + " IS NULL").Count(&nullCount).Error; err != nil {
		return err
	}

	// Enough never-attempted rows to fill the quota: skip the staleness tier.
	if nullCount >= int64(limit) {
		return newQuery().
			Where(syncedAtCol + " IS NULL").
			Limit(limit).
			Find(dest).Error
	}

	return newQuery().
		Order(syncedAtCol + " IS NULL DESC, " + syncedAtCol + " ASC").
		Limit(limit).
		Find(dest).Error
}
