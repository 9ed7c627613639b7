package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reboothq/reboot_backend/models"
	"github.com/reboothq/reboot_backend/utils"
)

func CreateJournalEntryHandler(c *gin.Context) {
	userId, _ := currentUserId(c)

	var input models.NewJournalEntry
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ProcessValidationErrors(err))
		return
	}

	entry, err := models.CreateJournalEntry(c.Request.Context(), userId, &input)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"journal_entry": entry})
}

func DeleteJournalEntryHandler(c *gin.Context) {
	userId, _ := currentUserId(c)
	entryId, err := strconv.Atoi(c.Param("entryId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	if err := models.DeleteJournalEntry(c.Request.Context(), userId, entryId); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func ListJournalEntriesHandler(c *gin.Context) {
	project, ok := ownedProject(c)
	if !ok {
		return
	}

	entries, err := models.GetJournalEntriesByProject(c.Request.Context(), project.ID)
	if err != nil {
		renderError(c, err)
		return
	}
	total, err := project.TotalHours(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"journal_entries": entries, "total_hours": total})
}
