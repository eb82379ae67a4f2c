package repository

import (
	"context"
)

// TeamRepository reads teams. Team management itself lives outside this
// service.
type TeamRepository interface {
	GetByIDs(ctx context.Context, organizationID string, ids []string) ([]TeamRow, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]TeamRow, error)
}

type teamRepository struct {
	db DBTX
}

// NewTeamRepository constructs repository.
func NewTeamRepository(db DBTX) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) GetByIDs(ctx context.Context, organizationID string, ids []string) ([]TeamRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, organization_id, name, icon, color, created_at
        FROM teams WHERE organization_id=$1 AND id = ANY($2)`
	return r.list(ctx, query, organizationID, ids)
}

func (r *teamRepository) ListByOrganization(ctx context.Context, organizationID string) ([]TeamRow, error) {
	const query = `
        SELECT id, organization_id, name, icon, color, created_at
        FROM teams WHERE organization_id=$1 ORDER BY name`
	return r.list(ctx, query, organizationID)
}

func (r *teamRepository) list(ctx context.Context, query string, args ...any) ([]TeamRow, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TeamRow
	for rows.Next() {
		var team TeamRow
		if err := rows.Scan(&team.ID, &team.OrganizationID, &team.Name, &team.Icon, &team.Color, &team.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, team)
	}
	return result, rows.Err()
}
