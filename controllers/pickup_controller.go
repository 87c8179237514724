package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"toolcabinet-backend/app"
	"toolcabinet-backend/db"
	"toolcabinet-backend/models"
)

type PickupController struct{ *Srv }

func NewPickupController(s *Srv) *PickupController { return &PickupController{Srv: s} }

type confirmPickupInput struct {
	Token     string `json:"token" binding:"required"`
	Signature string `json:"signature"`
}

// Confirm turns an approved request into borrow records and opens the
// cabinet. All inventory effects happen inside one transaction in the repo;
// everything after it is a side effect that cannot undo the pickup.
func (pc *PickupController) Confirm(c *gin.Context) {
	var in confirmPickupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "validation", "message": err.Error()})
		return
	}

	result, err := pc.Repo.ConfirmPickup(c.Request.Context(), in.Token, in.Signature, time.Now().UTC())
	if err != nil {
		renderErr(c, err)
		return
	}

	pc.audit(c.Request.Context(), result)
	pc.checkLowStock(result)

	c.JSON(http.StatusOK, app.H{
		"ok":      true,
		"status":  models.RequestPickedUp,
		"borrows": result.Borrows,
	})
}

func (pc *PickupController) audit(ctx context.Context, result *db.PickupResult) {
	reqID := result.Request.ID
	if _, err := pc.Repo.LogUnlock(ctx, &models.UnlockLog{
		CityID:     result.Request.CityID,
		RequestID:  &reqID,
		ActorName:  result.Request.RequesterName,
		ActorPhone: result.Request.RequesterPhone,
		Source:     models.UnlockSourcePickup,
	}); err != nil {
		log.Printf("unlock audit for request %s: %v", reqID, err)
	}
}

// checkLowStock mails the city manager when a pickup drained an item to its
// threshold. The redis throttle keeps a busy cabinet from repeating the same
// alert all day; a failed mail never touches the pickup.
func (pc *PickupController) checkLowStock(result *db.PickupResult) {
	var lines []string
	for _, s := range result.Stocks {
		if s.MinQuantity <= 0 || s.Quantity > s.MinQuantity {
			continue
		}
		if !pc.Throttle.Allow(context.Background(), "lowstock:"+s.ID) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %d left (threshold %d)", s.Name, s.Quantity, s.MinQuantity))
	}
	if len(lines) == 0 {
		return
	}
	city := result.City
	go func() {
		if err := pc.Mailer.NotifyLowStock(context.Background(), city.ManagerEmail, city.Name, lines); err != nil {
			log.Printf("low stock mail for city %s: %v", city.ID, err)
		}
	}()
}
