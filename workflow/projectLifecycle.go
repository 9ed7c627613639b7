package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/reboothq/reboot_backend/config"
	"github.com/reboothq/reboot_backend/models"
	"github.com/reboothq/reboot_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmissionEnqueue is called after an approval commits when the project is
// due for a submission push. main wires it to the sync dispatcher; tests
// swap in a recorder.
var SubmissionEnqueue = func() {}

// RequestReview ships a project: pending or rejected -> in_review. The
// shippable fields must all be present before a reviewer sees it.
func RequestReview(ctx context.Context, userId int, projectId int) (*models.Project, error) {
	db := config.GetDB()

	var project models.Project
	if err := db.WithContext(ctx).First(&project, projectId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if project.UserId != userId {
		return nil, utils.ErrorRecordNotFound
	}

	if !project.CanRequestReview() {
		return nil, utils.NewInvalidStateTransition("request_review", string(project.Status), "Project cannot be shipped")
	}
	if !project.ReadyToShip() {
		return nil, utils.NewValidationError("Please fill in all required fields: description, code URL, playable URL, screenshot URL")
	}

	now := time.Now().UTC()
	err := db.WithContext(ctx).Model(&project).Updates(map[string]interface{}{
		"status":       models.ProjectStatusInReview,
		"submitted_at": &now,
	}).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Approve moves an in-review project to approved and credits the owner the
// hour delta in the same transaction. An already approved project may be
// approved again to correct the hour count: the balance effect is always
// against the previous approved total, so a downward correction debits.
func Approve(ctx context.Context, projectId int, hours decimal.Decimal, reason string, userReason *string) (*models.Project, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, utils.NewValidationError("Hour justification is required")
	}
	if hours.IsNegative() {
		return nil, utils.NewValidationError("Approved hours cannot be negative")
	}

	db := config.GetDB()
	var project models.Project
	var firstApproval bool

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&project, projectId).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		if project.Status != models.ProjectStatusInReview && project.Status != models.ProjectStatusApproved {
			return utils.NewInvalidStateTransition("approve", string(project.Status), "Project is not in review")
		}

		firstApproval = project.ApprovalReason == nil
		delta := CreditDelta(project.ApprovedHours, hours, config.CurrencyPerHour())

		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, project.UserId).Error; err != nil {
			return err
		}
		if !delta.IsZero() {
			if err := tx.Model(&models.User{}).
				Where("id = ?", user.ID).
				Update("balance", gorm.Expr("balance + ?", delta)).Error; err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status":          models.ProjectStatusApproved,
			"approved_hours":  hours,
			"approval_reason": reason,
			"reviewed_at":     &now,
		}
		if !utils.IsBlank(userReason) {
			updates["user_reason"] = strings.TrimSpace(*userReason)
		}
		return tx.Model(&project).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	// Enqueue after commit only. Skipped solely for the degenerate case of a
	// re-approval whose first submission push never happened.
	if firstApproval || project.YswsAirtableId != nil {
		SubmissionEnqueue()
	}

	var committed models.Project
	if err := db.WithContext(ctx).Preload("User").First(&committed, projectId).Error; err != nil {
		return nil, err
	}
	committed.User.PrepareGive()
	return &committed, nil
}

// Reject moves an in-review project back to rejected with a user-facing
// reason. No balance effect; the owner may revise and re-ship.
func Reject(ctx context.Context, projectId int, userReason string) (*models.Project, error) {
	userReason = strings.TrimSpace(userReason)
	if userReason == "" {
		return nil, utils.NewValidationError("User reason is required")
	}

	db := config.GetDB()
	var project models.Project
	if err := db.WithContext(ctx).First(&project, projectId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if project.Status != models.ProjectStatusInReview {
		return nil, utils.NewInvalidStateTransition("reject", string(project.Status), "Project is not in review")
	}

	now := time.Now().UTC()
	err := db.WithContext(ctx).Model(&project).Updates(map[string]interface{}{
		"status":      models.ProjectStatusRejected,
		"user_reason": userReason,
		"reviewed_at": &now,
	}).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}
