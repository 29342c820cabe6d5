package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"estate-crm/internal/domain/model"
	"estate-crm/internal/domain/ports/repository"
)

var _ repository.NotificationRepository = (*notificationRepo)(nil)

type notificationRepo struct{ pool *pgxpool.Pool }

func NewNotificationRepo(pool *pgxpool.Pool) *notificationRepo {
	return &notificationRepo{pool: pool}
}

func (r *notificationRepo) Create(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	const q = `
INSERT INTO notifications (id, user_id, type, title, message, action_url, read, created_at)
VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,$8);`
	_, err := execSQL(ctx, r.pool, tx, q, n.ID, n.UserID, n.Type, n.Title, n.Message, n.ActionURL, n.Read, n.CreatedAt)
	return err
}

func (r *notificationRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, user_id, type, title, message, COALESCE(action_url,''), read, created_at
FROM notifications WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.ActionURL, &n.Read, &n.CreatedAt); err != nil {
			return nil, mapError(err)
		}
		out = append(out, &n)
	}
	return out, mapError(rows.Err())
}
