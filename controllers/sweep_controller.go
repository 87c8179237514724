package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"toolcabinet-backend/sweep"
)

type SweepController struct {
	Sweeper *sweep.Service
}

func NewSweepController(sweeper *sweep.Service) *SweepController {
	return &SweepController{Sweeper: sweeper}
}

// RunOverdue executes one overdue sweep and returns the per-record outcomes.
// An external scheduler hits this on a fixed cadence.
func (sc *SweepController) RunOverdue(c *gin.Context) {
	summary, err := sc.Sweeper.Run(c.Request.Context(), time.Now().UTC())
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
