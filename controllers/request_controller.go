package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"toolcabinet-backend/app"
	"toolcabinet-backend/apperr"
	"toolcabinet-backend/db"
	"toolcabinet-backend/geo"
	"toolcabinet-backend/models"
	"toolcabinet-backend/token"
)

type RequestController struct{ *Srv }

func NewRequestController(s *Srv) *RequestController { return &RequestController{Srv: s} }

type createRequestItem struct {
	StockID  string `json:"stockId" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

type createRequestInput struct {
	CityID         string              `json:"cityId" binding:"required"`
	RequesterName  string              `json:"requesterName" binding:"required"`
	RequesterPhone string              `json:"requesterPhone" binding:"required"`
	CallID         *string             `json:"callId"`
	Lat            *float64            `json:"lat"`
	Lng            *float64            `json:"lng"`
	Items          []createRequestItem `json:"items" binding:"required,min=1,dive"`
}

// Create files a new equipment request and hands the requester a one-time
// pickup token. Inventory is validated here but not reserved; stock is only
// committed at pickup so an abandoned request holds nothing hostage.
func (rc *RequestController) Create(c *gin.Context) {
	var in createRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "validation", "message": err.Error()})
		return
	}
	ctx := c.Request.Context()
	now := time.Now().UTC()

	city, err := rc.Repo.FindCityByID(ctx, in.CityID)
	if err != nil {
		renderErr(c, err)
		return
	}
	if !city.Active {
		renderErr(c, apperr.NotFound("city %s is not active", city.Name))
		return
	}
	if city.Mode != models.CityModeRequest {
		renderErr(c, apperr.InvalidState("city %s does not take requests", city.Name))
		return
	}
	if city.RequireCallID && (in.CallID == nil || *in.CallID == "") {
		renderErr(c, apperr.Validation("this city requires a call id"))
		return
	}

	// Overdue lockout: a borrower holding overdue equipment anywhere cannot
	// file a new request, and gets told exactly what is blocking them.
	openOverdue, err := rc.Repo.FindOpenBorrowsByPhone(ctx, in.RequesterPhone, now.Add(-rc.Lifecycle.OverdueAfter()))
	if err != nil {
		renderErr(c, err)
		return
	}
	if len(openOverdue) > 0 {
		items := make([]apperr.OverdueItem, 0, len(openOverdue))
		for _, b := range openOverdue {
			items = append(items, apperr.OverdueItem{Name: b.EquipmentName, BorrowedAt: b.BorrowedAt})
		}
		renderErr(c, apperr.Eligibility(items))
		return
	}

	if err := checkGeofence(city, in.Lat, in.Lng); err != nil {
		renderErr(c, err)
		return
	}

	items, err := rc.validateItems(ctx, city.ID, in.Items)
	if err != nil {
		renderErr(c, err)
		return
	}

	raw, hash, expiresAt := token.Issue(rc.Lifecycle.TokenWindow())
	req := &models.EquipmentRequest{
		ID:             uuid.NewString(),
		CityID:         city.ID,
		RequesterName:  in.RequesterName,
		RequesterPhone: in.RequesterPhone,
		CallID:         in.CallID,
		Lat:            in.Lat,
		Lng:            in.Lng,
		TokenHash:      hash,
		ExpiresAt:      expiresAt,
		Status:         models.RequestPending,
	}
	if err := rc.Repo.CreateRequestWithItems(ctx, req, items); err != nil {
		renderErr(c, err)
		return
	}

	rc.notifyNewRequest(city, req, items)

	c.JSON(http.StatusCreated, app.H{
		"requestId": req.ID,
		"token":     raw,
		"expiresAt": expiresAt,
	})
}

// checkGeofence applies the city's distance limit when one is configured.
// A limit without cabinet coordinates is a configuration gap: logged,
// never a block.
func checkGeofence(city *models.City, lat, lng *float64) error {
	if city.MaxDistanceKM == nil {
		return nil
	}
	if city.CabinetLat == nil || city.CabinetLng == nil {
		log.Printf("city %s has a distance limit but no cabinet coordinates, skipping geofence", city.ID)
		return nil
	}
	if lat == nil || lng == nil {
		return apperr.Validation("this city requires your location")
	}
	dist := geo.DistanceKM(*lat, *lng, *city.CabinetLat, *city.CabinetLng)
	if dist > *city.MaxDistanceKM {
		return apperr.Geofence(dist, *city.MaxDistanceKM)
	}
	return nil
}

// validateItems judges every line item against one batched stock read.
func (rc *RequestController) validateItems(ctx context.Context, cityID string, in []createRequestItem) ([]models.RequestItem, error) {
	ids := make([]string, 0, len(in))
	for _, it := range in {
		ids = append(ids, it.StockID)
	}
	stocks, err := rc.Repo.GetCityStocks(ctx, cityID, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.RequestItem, 0, len(in))
	for _, it := range in {
		s, ok := stocks[it.StockID]
		if !ok {
			return nil, apperr.NotFound("equipment %s not found in this city", it.StockID)
		}
		if !s.Working {
			return nil, apperr.Unavailable("%s is marked faulty", s.Name)
		}
		if s.Consumable {
			if it.Quantity > s.Quantity {
				return nil, apperr.InsufficientStock("only %d of %s in stock", s.Quantity, s.Name)
			}
		} else {
			if it.Quantity != 1 {
				return nil, apperr.Validation("%s is not consumable, quantity must be 1", s.Name)
			}
			if s.Quantity < 1 {
				return nil, apperr.Unavailable("%s is out of stock", s.Name)
			}
		}
		items = append(items, models.RequestItem{StockID: it.StockID, Quantity: it.Quantity})
	}
	return items, nil
}

// notifyNewRequest tells the city's managers a request is waiting. Push is
// queued, mail goes out on its own goroutine; neither can fail the response.
func (rc *RequestController) notifyNewRequest(city *models.City, req *models.EquipmentRequest, items []models.RequestItem) {
	rc.Pusher.Notify(city.ID,
		"New equipment request",
		fmt.Sprintf("%s requested %d item(s)", req.RequesterName, len(items)),
		"/requests/"+req.ID)

	lines := []string{
		fmt.Sprintf("Requester: %s (%s)", req.RequesterName, req.RequesterPhone),
		fmt.Sprintf("Items: %d", len(items)),
		fmt.Sprintf("Expires: %s", req.ExpiresAt.Format(time.RFC3339)),
	}
	go func() {
		if err := rc.Mailer.NotifyManagers(context.Background(), city.ManagerEmail, city.Name, "new equipment request", lines); err != nil {
			log.Printf("mail managers for city %s: %v", city.ID, err)
		}
	}()
}

// Verify answers what a presented token is currently good for. Expiry is
// evaluated here, at read time; nothing rewrites the row.
func (rc *RequestController) Verify(c *gin.Context) {
	raw := c.Query("token")
	if raw == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "validation", "message": "token is required"})
		return
	}
	req, err := rc.Repo.FindRequestByTokenHash(c.Request.Context(), token.Hash(raw))
	if err != nil {
		renderErr(c, err)
		return
	}
	if !token.Verify(raw, req.TokenHash) {
		renderErr(c, apperr.NotFound("no request for this token"))
		return
	}
	c.JSON(http.StatusOK, app.H{
		"requestId": req.ID,
		"status":    db.EffectiveStatus(req, time.Now().UTC()),
		"expiresAt": req.ExpiresAt,
		"items":     req.Items,
	})
}

// manager-gated transitions ---------------------------------------------

func (rc *RequestController) Approve(c *gin.Context) {
	req, ok := rc.loadForManager(c)
	if !ok {
		return
	}
	now := time.Now().UTC()
	if db.EffectiveStatus(req, now) == models.RequestExpired {
		renderErr(c, apperr.InvalidState("request token expired"))
		return
	}
	if err := rc.Repo.ApproveRequest(c.Request.Context(), req.ID, now); err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "status": models.RequestApproved})
}

func (rc *RequestController) Reject(c *gin.Context) {
	req, ok := rc.loadForManager(c)
	if !ok {
		return
	}
	if err := rc.Repo.RejectRequest(c.Request.Context(), req.ID, time.Now().UTC()); err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "status": models.RequestRejected})
}

func (rc *RequestController) Cancel(c *gin.Context) {
	req, ok := rc.loadForManager(c)
	if !ok {
		return
	}
	if err := rc.Repo.CancelRequest(c.Request.Context(), req.ID, time.Now().UTC()); err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "status": models.RequestCancelled})
}

// Extend recomputes the expiry window from now. Deliberately works on an
// already-expired row: that is what a manager extension is for.
func (rc *RequestController) Extend(c *gin.Context) {
	req, ok := rc.loadForManager(c)
	if !ok {
		return
	}
	newExpiry, err := rc.Repo.ExtendRequest(c.Request.Context(), req.ID, time.Now().UTC(), rc.Lifecycle.ExtendWindow())
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "expiresAt": newExpiry})
}

// loadForManager fetches the request and checks the caller manages its city.
func (rc *RequestController) loadForManager(c *gin.Context) (*models.EquipmentRequest, bool) {
	req, err := rc.Repo.FindRequestByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderErr(c, err)
		return nil, false
	}
	if !rc.requireManager(c, req.CityID) {
		return nil, false
	}
	return req, true
}
