package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"estate-crm/internal/domain"
	"estate-crm/internal/domain/model"
	"estate-crm/internal/domain/ports/repository"
)

var _ repository.UsageRepository = (*usageRepo)(nil)

type usageRepo struct{ pool *pgxpool.Pool }

func NewUsageRepo(pool *pgxpool.Pool) *usageRepo {
	return &usageRepo{pool: pool}
}

// usageQueries take $1 = user id and, for monthly resources, $2 = window start.
var usageQueries = map[model.Resource]string{
	model.ResourceProperties:  `SELECT COUNT(*) FROM properties WHERE user_id=$1`,
	model.ResourceLeads:       `SELECT COUNT(*) FROM leads WHERE user_id=$1`,
	model.ResourceDocuments:   `SELECT COUNT(*) FROM documents WHERE user_id=$1`,
	model.ResourceTeamMembers: `SELECT COUNT(*) FROM team_members m JOIN teams t ON t.id = m.team_id WHERE t.owner_id=$1`,
	model.ResourceEmailsPerMonth: `
SELECT COUNT(*) FROM email_logs l JOIN email_campaigns c ON c.id = l.campaign_id
WHERE c.user_id=$1 AND l.created_at >= $2`,
	model.ResourceAIScoresPerMonth: `
SELECT COUNT(*) FROM lead_scores s JOIN leads l ON l.id = s.lead_id
WHERE l.user_id=$1 AND s.calculated_at >= $2`,
	model.ResourceCustomTemplates: `SELECT COUNT(*) FROM email_templates WHERE user_id=$1`,
}

func (r *usageRepo) Count(ctx context.Context, tx repository.Tx, userID string, res model.Resource, since time.Time) (int64, error) {
	q, ok := usageQueries[res]
	if !ok {
		return 0, fmt.Errorf("%w: resource %q", domain.ErrInvalidArgument, res)
	}
	args := []interface{}{userID}
	if res.Monthly() {
		args = append(args, since)
	}
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, mapError(err)
	}
	return n, nil
}
