package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"toolcabinet-backend/apperr"
	"toolcabinet-backend/models"
	"toolcabinet-backend/token"
)

// PickupResult is what a confirmed pickup produced, for the response body and
// the post-commit side effects (unlock audit, low-stock alerts).
type PickupResult struct {
	Request *models.EquipmentRequest
	City    *models.City
	Borrows []models.BorrowRecord
	// Stock rows re-read after the decrement, for low-stock evaluation.
	Stocks []models.EquipmentStock
}

// ConfirmPickup converts an approved request into borrow records, decrements
// inventory, and flips the request to picked_up, all inside one transaction.
//
// The status flip is a conditional update on the previous status and runs
// first inside the transaction, so of two concurrent confirmations for the
// same token exactly one proceeds past it. Stock decrements are likewise
// conditional on remaining quantity; stock may have drifted since the request
// was created and the re-check at commit time is mandatory.
func (r *Repo) ConfirmPickup(ctx context.Context, rawToken, signature string, now time.Time) (*PickupResult, error) {
	if signature == "" {
		return nil, apperr.Validation("signature is required")
	}

	req, err := r.FindRequestByTokenHash(ctx, token.Hash(rawToken))
	if err != nil {
		return nil, err
	}
	if !token.Verify(rawToken, req.TokenHash) {
		return nil, apperr.NotFound("no request for this token")
	}
	if req.Status != models.RequestApproved {
		return nil, apperr.InvalidState("request is %s, not approved", EffectiveStatus(req, now))
	}
	if token.Expired(req.ExpiresAt, now) {
		return nil, apperr.InvalidState("token expired at %s", req.ExpiresAt.Format(time.RFC3339))
	}

	city, err := r.FindCityByID(ctx, req.CityID)
	if err != nil {
		return nil, err
	}

	result := &PickupResult{Request: req, City: city}
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// One-shot gate: condition the flip on the prior status so a
		// replayed or concurrent confirmation loses here.
		res := tx.Model(&models.EquipmentRequest{}).
			Where("id = ? AND status = ?", req.ID, models.RequestApproved).
			Updates(map[string]any{"status": models.RequestPickedUp, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.InvalidState("request already picked up or no longer approved")
		}

		stockIDs := make([]string, 0, len(req.Items))
		for _, it := range req.Items {
			stockIDs = append(stockIDs, it.StockID)
		}
		var stocks []models.EquipmentStock
		if err := tx.Where("id IN ?", stockIDs).Find(&stocks).Error; err != nil {
			return err
		}
		stockByID := make(map[string]models.EquipmentStock, len(stocks))
		for _, s := range stocks {
			stockByID[s.ID] = s
		}

		for _, it := range req.Items {
			s, ok := stockByID[it.StockID]
			if !ok {
				return apperr.NotFound("equipment %s no longer exists", it.StockID)
			}
			if err := decrementStock(tx, it.StockID, it.Quantity); err != nil {
				if e, is := apperr.As(err); is {
					e.Message = "not enough " + s.Name + " left in the cabinet"
				}
				return err
			}
			reqID := req.ID
			result.Borrows = append(result.Borrows, models.BorrowRecord{
				ID:              uuid.NewString(),
				CityID:          req.CityID,
				CityName:        city.Name,
				BorrowerName:    req.RequesterName,
				BorrowerPhone:   req.RequesterPhone,
				NormalizedPhone: NormalizePhone(req.RequesterPhone),
				StockID:         it.StockID,
				EquipmentName:   s.Name,
				Quantity:        it.Quantity,
				Status:          models.BorrowBorrowed,
				BorrowedAt:      now,
				Signature:       signature,
				RequestID:       &reqID,
			})
		}
		if err := tx.Create(&result.Borrows).Error; err != nil {
			return err
		}

		// Re-read for the low-stock check against post-decrement values.
		if err := tx.Where("id IN ?", stockIDs).Find(&result.Stocks).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		result.Borrows = nil
		return nil, err
	}

	req.Status = models.RequestPickedUp
	return result, nil
}

// EffectiveStatus is the expire-on-read view of a request: a pending or
// approved row past its expiry answers as expired even though no sweep ever
// rewrites it.
func EffectiveStatus(req *models.EquipmentRequest, now time.Time) string {
	if (req.Status == models.RequestPending || req.Status == models.RequestApproved) &&
		token.Expired(req.ExpiresAt, now) {
		return models.RequestExpired
	}
	return req.Status
}
