package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"toolcabinet-backend/app"
	"toolcabinet-backend/models"
)

type SubscriptionController struct{ *Srv }

func NewSubscriptionController(s *Srv) *SubscriptionController {
	return &SubscriptionController{Srv: s}
}

type putSubscriptionInput struct {
	CityID   string `json:"cityId" binding:"required"`
	Endpoint string `json:"endpoint" binding:"required"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

// Put registers or replaces a manager's browser push subscription.
func (sc *SubscriptionController) Put(c *gin.Context) {
	var in putSubscriptionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "validation", "message": err.Error()})
		return
	}
	if !sc.requireManager(c, in.CityID) {
		return
	}

	sub := &models.ManagerSubscription{
		Endpoint: in.Endpoint,
		P256DH:   in.P256DH,
		Auth:     in.Auth,
		CityID:   in.CityID,
	}
	if err := sc.Repo.UpsertSubscription(c.Request.Context(), sub); err != nil {
		renderErr(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

type deleteSubscriptionInput struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

func (sc *SubscriptionController) Delete(c *gin.Context) {
	var in deleteSubscriptionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "validation", "message": err.Error()})
		return
	}
	if err := sc.Repo.DeleteSubscription(c.Request.Context(), in.Endpoint); err != nil {
		renderErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
