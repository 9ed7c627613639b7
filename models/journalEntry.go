package models

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/reboothq/reboot_backend/config"
	"github.com/reboothq/reboot_backend/utils"
	"github.com/shopspring/decimal"
)

// JournalEntry is one devlog line on a project. Hours are self reported and
// only become credits once a reviewer approves the project with an hour count.
type JournalEntry struct {
	ID        int             `gorm:"primary_key" json:"id"`
	ProjectId int             `gorm:"not null;index" json:"project_id"`
	UserId    int             `gorm:"not null;index" json:"user_id"`
	Summary   string          `gorm:"type:text;not null" json:"summary" binding:"required"`
	Hours     decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"hours"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewJournalEntry struct {
	ProjectId int             `json:"project_id" binding:"required"`
	Summary   string          `json:"summary" binding:"required"`
	Hours     decimal.Decimal `json:"hours" binding:"required"`
}

func CreateJournalEntry(ctx context.Context, userId int, input *NewJournalEntry) (*JournalEntry, error) {
	db := config.GetDB()

	var project Project
	if err := db.WithContext(ctx).First(&project, input.ProjectId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if project.UserId != userId {
		return nil, utils.ErrorRecordNotFound
	}
	if project.Status == ProjectStatusInReview {
		return nil, utils.NewValidationError("Project is locked while in review")
	}
	if input.Hours.LessThanOrEqual(decimal.Zero) {
		return nil, utils.NewValidationError("Hours must be positive")
	}
	if input.Hours.GreaterThan(decimal.NewFromInt(24)) {
		return nil, utils.NewValidationError("Hours cannot exceed 24 per entry")
	}

	entry := JournalEntry{
		ProjectId: input.ProjectId,
		UserId:    userId,
		Summary:   html.EscapeString(strings.TrimSpace(input.Summary)),
		Hours:     input.Hours,
	}
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func DeleteJournalEntry(ctx context.Context, userId int, entryId int) error {
	db := config.GetDB()

	var entry JournalEntry
	if err := db.WithContext(ctx).First(&entry, entryId).Error; err != nil {
		return utils.ErrorRecordNotFound
	}
	if entry.UserId != userId {
		return utils.ErrorRecordNotFound
	}
	var project Project
	if err := db.WithContext(ctx).First(&project, entry.ProjectId).Error; err != nil {
		return utils.ErrorRecordNotFound
	}
	if project.Status == ProjectStatusInReview {
		return utils.NewValidationError("Project is locked while in review")
	}
	return db.WithContext(ctx).Delete(&entry).Error
}

func GetJournalEntriesByProject(ctx context.Context, projectId int) ([]*JournalEntry, error) {
	db := config.GetDB()
	var results []*JournalEntry

	err := db.WithContext(ctx).
		Where("project_id = ?", projectId).
		Order("created_at").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
