package db

import (
	"context"

	"gorm.io/gorm/clause"

	"toolcabinet-backend/models"
)

func (r *Repo) UpsertSubscription(ctx context.Context, sub *models.ManagerSubscription) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "city_id"}),
	}).Create(sub).Error
}

func (r *Repo) DeleteSubscription(ctx context.Context, endpoint string) error {
	return r.DB.WithContext(ctx).
		Delete(&models.ManagerSubscription{Endpoint: endpoint}).Error
}

func (r *Repo) ListCitySubscriptions(ctx context.Context, cityID string) ([]models.ManagerSubscription, error) {
	var subs []models.ManagerSubscription
	err := r.DB.WithContext(ctx).
		Where("city_id = ?", cityID).
		Find(&subs).Error
	return subs, err
}
