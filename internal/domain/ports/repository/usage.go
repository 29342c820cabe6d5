package repository

import (
	"context"
	"time"

	"estate-crm/internal/domain/model"
)

// UsageRepository counts rows a user owns for plan-limit purposes.
// since is only applied to monthly resources.
type UsageRepository interface {
	Count(ctx context.Context, tx Tx, userID string, r model.Resource, since time.Time) (int64, error)
}
