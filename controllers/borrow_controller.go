package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"toolcabinet-backend/app"
	"toolcabinet-backend/apperr"
	"toolcabinet-backend/models"
)

type BorrowController struct{ *Srv }

func NewBorrowController(s *Srv) *BorrowController { return &BorrowController{Srv: s} }

// ListBorrows lists a city's borrow records for its manager.
func (bc *BorrowController) ListBorrows(c *gin.Context) {
	cityID := c.Query("cityId")
	if cityID == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "validation", "message": "cityId is required"})
		return
	}
	if !bc.requireManager(c, cityID) {
		return
	}
	rows, err := bc.Repo.ListBorrows(c.Request.Context(), cityID, c.Query("status"))
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": rows})
}

// Return closes a loan and restores its quantity to the shelf.
func (bc *BorrowController) Return(c *gin.Context) {
	borrowID := c.Param("id")
	// Load first so we know which city's manager must sign off.
	borrow, err := bc.findBorrow(c, borrowID)
	if err != nil {
		renderErr(c, err)
		return
	}
	if !bc.requireManager(c, borrow.CityID) {
		return
	}

	updated, err := bc.Repo.ReturnBorrow(c.Request.Context(), borrowID, time.Now().UTC())
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (bc *BorrowController) findBorrow(c *gin.Context, id string) (*models.BorrowRecord, error) {
	var b models.BorrowRecord
	err := bc.Repo.DB.WithContext(c.Request.Context()).First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("borrow %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

type unlockInput struct {
	CityID string  `json:"cityId" binding:"required"`
	Reason *string `json:"reason"`
}

// Unlock records a manual cabinet unlock. The lock hardware is driven by the
// cabinet firmware; this endpoint is the audit trail and the manager gate.
func (bc *BorrowController) Unlock(c *gin.Context) {
	var in unlockInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "validation", "message": "need unlock reason"})
		return
	}
	if !bc.requireManager(c, in.CityID) {
		return
	}

	entry, err := bc.Repo.LogUnlock(c.Request.Context(), &models.UnlockLog{
		CityID: in.CityID,
		Source: models.UnlockSourceManual,
		Reason: in.Reason,
	})
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "unlockLog": entry})
}
