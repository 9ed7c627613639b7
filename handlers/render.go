package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reboothq/reboot_backend/airtable"
	"github.com/reboothq/reboot_backend/config"
	"github.com/reboothq/reboot_backend/utils"
)

// dispatcher is set once from main before routes are served.
var dispatcher *airtable.Dispatcher

func Init(d *airtable.Dispatcher) {
	dispatcher = d
}

// renderError maps the error taxonomy onto status codes. Validation failures
// and disallowed transitions carry their message to the caller verbatim;
// everything else is logged and hidden behind a 500.
func renderError(c *gin.Context, err error) {
	var ve *utils.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ve.Message})
		return
	}
	var te *utils.InvalidStateTransitionError
	if errors.As(err, &te) {
		c.JSON(http.StatusConflict, gin.H{"error": te.Error()})
		return
	}
	if errors.Is(err, utils.ErrorRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	config.LogError(config.GetLogger(), "handlers", "renderError", c.FullPath(), nil, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func currentUserId(c *gin.Context) (int, bool) {
	return utils.GetUserIdFromContext(c.Request.Context())
}
