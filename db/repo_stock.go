package db

import (
	"context"

	"gorm.io/gorm"

	"toolcabinet-backend/apperr"
	"toolcabinet-backend/models"
)

// Stock reads are batched: request validation fetches every referenced row in
// one query so all line items are judged against the same snapshot.

func (r *Repo) GetCityStocks(ctx context.Context, cityID string, stockIDs []string) (map[string]models.EquipmentStock, error) {
	var rows []models.EquipmentStock
	if err := r.DB.WithContext(ctx).
		Where("city_id = ? AND id IN ?", cityID, stockIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	m := make(map[string]models.EquipmentStock, len(rows))
	for _, s := range rows {
		m[s.ID] = s
	}
	return m, nil
}

func (r *Repo) ListCityStocks(ctx context.Context, cityID string) ([]models.EquipmentStock, error) {
	var rows []models.EquipmentStock
	err := r.DB.WithContext(ctx).
		Where("city_id = ?", cityID).
		Order("name").
		Find(&rows).Error
	return rows, err
}

// decrementStock takes qty off a stock row only when enough remains at the
// moment of the write. Returning apperr on a miss lets the caller abort the
// surrounding transaction.
func decrementStock(tx *gorm.DB, stockID string, qty int) error {
	res := tx.Model(&models.EquipmentStock{}).
		Where("id = ? AND quantity >= ?", stockID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.InsufficientStock("stock %s has fewer than %d left", stockID, qty)
	}
	return nil
}

// incrementStock restores qty on return. No upper guard; the row it undoes
// was decremented by the same amount.
func incrementStock(tx *gorm.DB, stockID string, qty int) error {
	return tx.Model(&models.EquipmentStock{}).
		Where("id = ?", stockID).
		Update("quantity", gorm.Expr("quantity + ?", qty)).Error
}
