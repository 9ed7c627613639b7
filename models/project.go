package models

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/reboothq/reboot_backend/config"
	"github.com/reboothq/reboot_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Project struct {
	ID            int           `gorm:"primary_key" json:"id"`
	UserId        int           `gorm:"not null;index" json:"user_id"`
	User          *User         `json:"user,omitempty"`
	Title         string        `gorm:"size:255;not null" json:"title" binding:"required"`
	Description   *string       `gorm:"type:text" json:"description"`
	CodeUrl       *string       `gorm:"size:500" json:"code_url"`
	PlayableUrl   *string       `gorm:"size:500" json:"playable_url"`
	ScreenshotUrl *string       `gorm:"size:500" json:"screenshot_url"`
	Status        ProjectStatus `gorm:"type:enum('pending','in_review','approved','rejected');default:pending;index" json:"status"`

	// Review outcome. ApprovedHours survives a later rejection so a
	// re-approval credits only the delta against it. ApprovalReason stays
	// nil until the first approval ever.
	ApprovedHours  decimal.Decimal `gorm:"type:decimal(8,2);not null;default:0" json:"approved_hours"`
	ApprovalReason *string         `gorm:"type:text" json:"approval_reason"`
	UserReason     *string         `gorm:"type:text" json:"user_reason"`
	SubmittedAt    *time.Time      `json:"submitted_at"`
	ReviewedAt     *time.Time      `json:"reviewed_at"`

	// Remote row id and attempt mark for the submission push.
	YswsAirtableId *string    `gorm:"size:32;index" json:"ysws_airtable_id"`
	YswsSyncedAt   *time.Time `gorm:"index" json:"ysws_synced_at"`

	JournalEntries []JournalEntry `json:"journal_entries,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProject struct {
	Title         string  `json:"title" binding:"required"`
	Description   *string `json:"description"`
	CodeUrl       *string `json:"code_url"`
	PlayableUrl   *string `json:"playable_url"`
	ScreenshotUrl *string `json:"screenshot_url"`
}

// ReadyToShip reports whether every field a reviewer needs is filled in.
func (p *Project) ReadyToShip() bool {
	return !utils.IsBlank(p.Description) &&
		!utils.IsBlank(p.CodeUrl) &&
		!utils.IsBlank(p.PlayableUrl) &&
		!utils.IsBlank(p.ScreenshotUrl)
}

// CanRequestReview is a status check only; field completeness is ReadyToShip.
func (p *Project) CanRequestReview() bool {
	return p.Status == ProjectStatusPending || p.Status == ProjectStatusRejected
}

// TotalHours sums the project's journal entries.
func (p *Project) TotalHours(ctx context.Context) (decimal.Decimal, error) {
	db := config.GetDB()
	var total decimal.NullDecimal
	err := db.WithContext(ctx).Model(&JournalEntry{}).
		Where("project_id = ?", p.ID).
		Select("SUM(hours)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func CreateProject(ctx context.Context, userId int, input *NewProject) (*Project, error) {
	db := config.GetDB()

	project := Project{
		UserId:        userId,
		Title:         html.EscapeString(strings.TrimSpace(input.Title)),
		Description:   input.Description,
		CodeUrl:       input.CodeUrl,
		PlayableUrl:   input.PlayableUrl,
		ScreenshotUrl: input.ScreenshotUrl,
		Status:        ProjectStatusPending,
	}

	if err := db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func GetProject(ctx context.Context, id int) (*Project, error) {
	db := config.GetDB()
	var result Project

	err := db.WithContext(ctx).Preload("JournalEntries").First(&result, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

func GetProjectsByUser(ctx context.Context, userId int) ([]*Project, error) {
	db := config.GetDB()
	var results []*Project

	err := db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("id DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetProjectsByStatus(ctx context.Context, status ProjectStatus) ([]*Project, error) {
	db := config.GetDB()
	var results []*Project

	err := db.WithContext(ctx).
		Preload("User").
		Where("status = ?", status).
		Order("updated_at").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateProjectFields edits the shippable fields. Editing is only allowed
// before review starts; approved and in-review projects are frozen.
func (p *Project) UpdateProjectFields(ctx context.Context, input *NewProject) (*Project, error) {
	if p.Status == ProjectStatusInReview || p.Status == ProjectStatusApproved {
		return nil, utils.NewValidationError("Project cannot be edited in its current status")
	}

	db := config.GetDB()
	updates := map[string]interface{}{
		"title":          html.EscapeString(strings.TrimSpace(input.Title)),
		"description":    input.Description,
		"code_url":       input.CodeUrl,
		"playable_url":   input.PlayableUrl,
		"screenshot_url": input.ScreenshotUrl,
	}
	if err := db.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProject removes a project and its journal entries. Only projects
// that never earned credits can be deleted; in-review and approved projects
// are permanent records.
func DeleteProject(ctx context.Context, userId int, projectId int) error {
	db := config.GetDB()

	var project Project
	if err := db.WithContext(ctx).First(&project, projectId).Error; err != nil {
		return utils.ErrorRecordNotFound
	}
	if project.UserId != userId {
		return utils.ErrorRecordNotFound
	}
	if project.Status == ProjectStatusInReview || project.Status == ProjectStatusApproved {
		return utils.NewValidationError("Project cannot be deleted in its current status")
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectId).Delete(&JournalEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&project).Error
	})
}
