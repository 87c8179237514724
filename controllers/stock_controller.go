package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"toolcabinet-backend/app"
)

type StockController struct{ *Srv }

func NewStockController(s *Srv) *StockController { return &StockController{Srv: s} }

func (sc *StockController) ListCities(c *gin.Context) {
	cities, err := sc.Repo.ListActiveCities(c.Request.Context())
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"cities": cities})
}

func (sc *StockController) ListCityStock(c *gin.Context) {
	cityID := c.Param("id")
	if _, err := sc.Repo.FindCityByID(c.Request.Context(), cityID); err != nil {
		renderErr(c, err)
		return
	}
	stocks, err := sc.Repo.ListCityStocks(c.Request.Context(), cityID)
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": stocks})
}
