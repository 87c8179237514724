package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"toolcabinet-backend/models"
)

func (r *Repo) LogUnlock(ctx context.Context, entry *models.UnlockLog) (*models.UnlockLog, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := r.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("insert unlock log: %w", err)
	}
	return entry, nil
}
