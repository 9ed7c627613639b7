package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reboothq/reboot_backend/models"
	"github.com/reboothq/reboot_backend/utils"
	"github.com/reboothq/reboot_backend/workflow"
	"github.com/shopspring/decimal"
)

type approveRequest struct {
	Hours      decimal.Decimal `json:"hours" binding:"required"`
	Reason     string          `json:"reason"`
	UserReason *string         `json:"user_reason"`
}

type rejectRequest struct {
	UserReason string `json:"user_reason"`
}

// AdminListProjects lists the review queue, or any status via ?status=.
func AdminListProjects(c *gin.Context) {
	status := models.ProjectStatus(c.DefaultQuery("status", string(models.ProjectStatusInReview)))
	switch status {
	case models.ProjectStatusPending, models.ProjectStatusInReview,
		models.ProjectStatusApproved, models.ProjectStatusRejected:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	projects, err := models.GetProjectsByStatus(c.Request.Context(), status)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func ApproveProjectHandler(c *gin.Context) {
	projectId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ProcessValidationErrors(err))
		return
	}

	project, err := workflow.Approve(c.Request.Context(), projectId, req.Hours, req.Reason, req.UserReason)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

func RejectProjectHandler(c *gin.Context) {
	projectId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ProcessValidationErrors(err))
		return
	}

	project, err := workflow.Reject(c.Request.Context(), projectId, req.UserReason)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}
