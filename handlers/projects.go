package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reboothq/reboot_backend/models"
	"github.com/reboothq/reboot_backend/utils"
	"github.com/reboothq/reboot_backend/workflow"
)

func ListProjects(c *gin.Context) {
	userId, _ := currentUserId(c)
	projects, err := models.GetProjectsByUser(c.Request.Context(), userId)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func CreateProjectHandler(c *gin.Context) {
	userId, _ := currentUserId(c)

	var input models.NewProject
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ProcessValidationErrors(err))
		return
	}

	project, err := models.CreateProject(c.Request.Context(), userId, &input)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": project})
}

func GetProjectHandler(c *gin.Context) {
	project, ok := ownedProject(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

func UpdateProjectHandler(c *gin.Context) {
	project, ok := ownedProject(c)
	if !ok {
		return
	}

	var input models.NewProject
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ProcessValidationErrors(err))
		return
	}

	updated, err := project.UpdateProjectFields(c.Request.Context(), &input)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": updated})
}

func DeleteProjectHandler(c *gin.Context) {
	userId, _ := currentUserId(c)
	projectId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	if err := models.DeleteProject(c.Request.Context(), userId, projectId); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestReviewHandler ships the project into the review queue.
func RequestReviewHandler(c *gin.Context) {
	userId, _ := currentUserId(c)
	projectId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	project, err := workflow.RequestReview(c.Request.Context(), userId, projectId)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// ownedProject loads the :id project and enforces ownership. Admins may read
// any project. Writes false after responding on failure.
func ownedProject(c *gin.Context) (*models.Project, bool) {
	projectId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return nil, false
	}

	project, err := models.GetProject(c.Request.Context(), projectId)
	if err != nil {
		renderError(c, err)
		return nil, false
	}

	userId, _ := currentUserId(c)
	role, _ := utils.GetUserRoleFromContext(c.Request.Context())
	if project.UserId != userId && role != string(models.UserRoleAdmin) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return project, true
}
