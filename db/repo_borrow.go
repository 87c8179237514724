package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"toolcabinet-backend/apperr"
	"toolcabinet-backend/models"
)

// FindOpenBorrowsByPhone returns the borrower's open loans older than the
// given cutoff, across all cities. Used by the overdue lockout check.
func (r *Repo) FindOpenBorrowsByPhone(ctx context.Context, phone string, borrowedBefore time.Time) ([]models.BorrowRecord, error) {
	var rows []models.BorrowRecord
	err := r.DB.WithContext(ctx).
		Where("normalized_phone = ? AND status = ? AND borrowed_at < ?",
			NormalizePhone(phone), models.BorrowBorrowed, borrowedBefore).
		Order("borrowed_at").
		Find(&rows).Error
	return rows, err
}

// ListOverdueBorrows returns every open loan past the cutoff, for the sweep.
func (r *Repo) ListOverdueBorrows(ctx context.Context, borrowedBefore time.Time) ([]models.BorrowRecord, error) {
	var rows []models.BorrowRecord
	err := r.DB.WithContext(ctx).
		Where("status = ? AND borrowed_at < ?", models.BorrowBorrowed, borrowedBefore).
		Order("borrowed_at").
		Find(&rows).Error
	return rows, err
}

// StampReminder records that a reminder went out. The guard keeps the stamp
// monotonic: a slower concurrent sweep cannot move it backwards.
func (r *Repo) StampReminder(ctx context.Context, borrowID string, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.BorrowRecord{}).
		Where("id = ? AND (last_reminder_at IS NULL OR last_reminder_at < ?)", borrowID, at).
		Update("last_reminder_at", at).Error
}

// ReturnBorrow closes an open loan and puts the quantity back on the shelf.
// The status guard makes a double return a no-op failure instead of a double
// increment.
func (r *Repo) ReturnBorrow(ctx context.Context, borrowID string, now time.Time) (*models.BorrowRecord, error) {
	var b models.BorrowRecord
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", borrowID).First(&b).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFound("borrow %s not found", borrowID)
			}
			return err
		}
		res := tx.Model(&models.BorrowRecord{}).
			Where("id = ? AND status = ?", borrowID, models.BorrowBorrowed).
			Updates(map[string]any{
				"status":      models.BorrowReturned,
				"returned_at": now,
				"updated_at":  now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.InvalidState("borrow is not open")
		}
		if b.StockID != "" {
			if err := incrementStock(tx, b.StockID, b.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.Status = models.BorrowReturned
	b.ReturnedAt = &now
	return &b, nil
}

func (r *Repo) ListBorrows(ctx context.Context, cityID, status string) ([]models.BorrowRecord, error) {
	q := r.DB.WithContext(ctx).Model(&models.BorrowRecord{}).Order("borrowed_at DESC")
	if cityID != "" {
		q = q.Where("city_id = ?", cityID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var rows []models.BorrowRecord
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
