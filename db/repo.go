package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"toolcabinet-backend/apperr"
	"toolcabinet-backend/models"
)

type Repo struct{ DB *gorm.DB }

func NewRepo(conn *gorm.DB) *Repo { return &Repo{DB: conn} }

// Cities

func (r *Repo) FindCityByID(ctx context.Context, id string) (*models.City, error) {
	var c models.City
	if err := r.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("city %s not found", id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repo) ListActiveCities(ctx context.Context) ([]models.City, error) {
	var cs []models.City
	err := r.DB.WithContext(ctx).
		Where("active = ?", true).
		Order("name").
		Find(&cs).Error
	return cs, err
}
