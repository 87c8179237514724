package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"toolcabinet-backend/apperr"
	"toolcabinet-backend/models"
)

// CreateRequestWithItems persists the request row and its line items as one
// transaction. A failed item insert rolls the request row back; no pending
// request ever exists with zero items.
func (r *Repo) CreateRequestWithItems(ctx context.Context, req *models.EquipmentRequest, items []models.RequestItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(req).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].RequestID = req.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		req.Items = items
		return nil
	})
}

// FindRequestByTokenHash loads a request and its items by the stored token
// hash. The raw token never reaches the database layer.
func (r *Repo) FindRequestByTokenHash(ctx context.Context, hash string) (*models.EquipmentRequest, error) {
	var req models.EquipmentRequest
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("token_hash = ?", hash).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no request for this token")
		}
		return nil, err
	}
	return &req, nil
}

func (r *Repo) FindRequestByID(ctx context.Context, id string) (*models.EquipmentRequest, error) {
	var req models.EquipmentRequest
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("request %s not found", id)
		}
		return nil, err
	}
	return &req, nil
}

// ApproveRequest flips pending → approved. The status guard makes concurrent
// or repeated approvals lose with an invalid-state error.
func (r *Repo) ApproveRequest(ctx context.Context, id string, now time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.EquipmentRequest{}).
		Where("id = ? AND status = ?", id, models.RequestPending).
		Updates(map[string]any{
			"status":      models.RequestApproved,
			"approved_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.InvalidState("request is not pending")
	}
	return nil
}

func (r *Repo) RejectRequest(ctx context.Context, id string, now time.Time) error {
	return r.terminalFromPending(ctx, id, models.RequestRejected, now)
}

func (r *Repo) CancelRequest(ctx context.Context, id string, now time.Time) error {
	return r.terminalFromPending(ctx, id, models.RequestCancelled, now)
}

func (r *Repo) terminalFromPending(ctx context.Context, id, status string, now time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.EquipmentRequest{}).
		Where("id = ? AND status = ?", id, models.RequestPending).
		Updates(map[string]any{"status": status, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.InvalidState("request is not pending")
	}
	return nil
}

// ExtendRequest pushes the expiry window out from now. Allowed while the
// request is still live (pending or approved); no inventory is held either
// way, so there is nothing else to touch.
func (r *Repo) ExtendRequest(ctx context.Context, id string, now time.Time, window time.Duration) (time.Time, error) {
	newExpiry := now.Add(window)
	res := r.DB.WithContext(ctx).Model(&models.EquipmentRequest{}).
		Where("id = ? AND status IN ?", id, []string{models.RequestPending, models.RequestApproved}).
		Updates(map[string]any{"expires_at": newExpiry, "updated_at": now})
	if res.Error != nil {
		return time.Time{}, res.Error
	}
	if res.RowsAffected == 0 {
		return time.Time{}, apperr.InvalidState("request is no longer open")
	}
	return newExpiry, nil
}
