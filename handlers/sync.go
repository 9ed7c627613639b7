package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reboothq/reboot_backend/config"
)

// TriggerSyncHandler runs one sync kind synchronously. Admin only; a run
// already in flight makes this a quiet no-op.
func TriggerSyncHandler(c *gin.Context) {
	kind := c.Param("kind")
	if !dispatcher.Runner.HasKind(kind) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown sync kind"})
		return
	}
	if err := dispatcher.RunNow(c.Request.Context(), kind); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "kind": kind})
}

// pushEnvelope is the Pub/Sub push delivery wrapper; Data is base64 and gin's
// json binding decodes it into the raw message bytes.
type pushEnvelope struct {
	Message struct {
		Data      []byte `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// PubSubPushHandler receives sync trigger messages. Malformed payloads and
// unknown kinds are acked so Pub/Sub stops redelivering them; a failed run
// returns 500 so delivery retries.
func PubSubPushHandler(c *gin.Context) {
	var envelope pushEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "discarded"})
		return
	}

	var msg config.SyncTriggerMessage
	if err := json.Unmarshal(envelope.Message.Data, &msg); err != nil {
		config.LogError(config.GetLogger(), "handlers", "PubSubPushHandler", envelope.Message.MessageID, nil, err)
		c.JSON(http.StatusOK, gin.H{"status": "discarded"})
		return
	}
	if !dispatcher.Runner.HasKind(msg.Kind) {
		c.JSON(http.StatusOK, gin.H{"status": "discarded", "kind": msg.Kind})
		return
	}

	if err := dispatcher.RunNow(c.Request.Context(), msg.Kind); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync run failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "kind": msg.Kind})
}
