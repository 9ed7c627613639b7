package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reboothq/reboot_backend/models"
	"github.com/reboothq/reboot_backend/utils"
	"github.com/reboothq/reboot_backend/workflow"
)

func ListShopItems(c *gin.Context) {
	items, err := models.GetEnabledShopItems(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func PurchaseHandler(c *gin.Context) {
	userId, _ := currentUserId(c)

	var input models.NewShopOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ProcessValidationErrors(err))
		return
	}

	order, err := workflow.Purchase(c.Request.Context(), userId, &input)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func ListOrders(c *gin.Context) {
	userId, _ := currentUserId(c)
	orders, err := models.GetOrdersByUser(c.Request.Context(), userId)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
