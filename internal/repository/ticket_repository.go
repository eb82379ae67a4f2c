package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *TicketRow) error
	Update(ctx context.Context, ticket *TicketRow) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*TicketRow, error)
	// GetForUpdate loads the ticket and holds its row lock until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*TicketRow, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]TicketRow, error)
	// SetTeams replaces the ticket's team associations, keeping order.
	SetTeams(ctx context.Context, ticketID string, teamIDs []string) error
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `
        t.id, t.organization_id, t.team_id, t.title, t.description, t.category, t.priority, t.status,
        t.reporter_email, t.reporter_name, t.assignee_id, t.assignee_name, t.assignee_email, t.tags,
        t.created_at, t.updated_at,
        lt.id, lt.organization_id, lt.name, lt.icon, lt.color, lt.created_at
    FROM tickets t
    LEFT JOIN teams lt ON lt.id = t.team_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *TicketRow) error {
	const query = `
        INSERT INTO tickets (id, organization_id, team_id, title, description, category, priority, status,
            reporter_email, reporter_name, assignee_id, assignee_name, assignee_email, tags, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	_, err := r.db.Exec(ctx, query,
		ticket.ID,
		ticket.OrganizationID,
		ticket.TeamID,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.ReporterEmail,
		ticket.ReporterName,
		ticket.AssigneeID,
		ticket.AssigneeName,
		ticket.AssigneeEmail,
		ticket.Tags,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	return err
}

func (r *ticketRepository) Update(ctx context.Context, ticket *TicketRow) error {
	const query = `
        UPDATE tickets SET team_id=$1, category=$2, priority=$3, status=$4,
            assignee_id=$5, assignee_name=$6, assignee_email=$7, tags=$8, updated_at=$9
        WHERE id=$10`
	cmd, err := r.db.Exec(ctx, query,
		ticket.TeamID,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.AssigneeID,
		ticket.AssigneeName,
		ticket.AssigneeEmail,
		ticket.Tags,
		ticket.UpdatedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*TicketRow, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` WHERE t.id=$1`, id)
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*TicketRow, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` WHERE t.id=$1 FOR UPDATE OF t`, id)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*TicketRow, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, pgx.ErrNoRows
	}
	if err := r.loadTeams(ctx, tickets); err != nil {
		return nil, err
	}
	return &tickets[0], nil
}

func (r *ticketRepository) ListByOrganization(ctx context.Context, organizationID string) ([]TicketRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+ticketColumns+` WHERE t.organization_id=$1 ORDER BY t.created_at DESC`, organizationID)
	if err != nil {
		return nil, err
	}
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadTeams(ctx, tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *ticketRepository) SetTeams(ctx context.Context, ticketID string, teamIDs []string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM ticket_teams WHERE ticket_id=$1`, ticketID); err != nil {
		return err
	}
	for i, teamID := range teamIDs {
		if _, err := r.db.Exec(ctx,
			`INSERT INTO ticket_teams (ticket_id, team_id, position) VALUES ($1,$2,$3)`,
			ticketID, teamID, i,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *ticketRepository) loadTeams(ctx context.Context, tickets []TicketRow) error {
	if len(tickets) == 0 {
		return nil
	}
	ids := make([]string, len(tickets))
	index := make(map[string]int, len(tickets))
	for i := range tickets {
		ids[i] = tickets[i].ID
		index[tickets[i].ID] = i
	}
	const query = `
        SELECT tt.ticket_id, tm.id, tm.organization_id, tm.name, tm.icon, tm.color, tm.created_at
        FROM ticket_teams tt
        JOIN teams tm ON tm.id = tt.team_id
        WHERE tt.ticket_id = ANY($1)
        ORDER BY tt.ticket_id, tt.position`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ticketID string
		var team TeamRow
		if err := rows.Scan(
			&ticketID,
			&team.ID,
			&team.OrganizationID,
			&team.Name,
			&team.Icon,
			&team.Color,
			&team.CreatedAt,
		); err != nil {
			return err
		}
		if i, ok := index[ticketID]; ok {
			tickets[i].Teams = append(tickets[i].Teams, team)
		}
	}
	return rows.Err()
}

func scanTickets(rows pgx.Rows) ([]TicketRow, error) {
	defer rows.Close()

	var result []TicketRow
	for rows.Next() {
		var ticket TicketRow
		var (
			legacyID, legacyOrg, legacyName *string
			legacyIcon, legacyColor         *string
			legacyCreated                   *time.Time
		)
		if err := rows.Scan(
			&ticket.ID,
			&ticket.OrganizationID,
			&ticket.TeamID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Category,
			&ticket.Priority,
			&ticket.Status,
			&ticket.ReporterEmail,
			&ticket.ReporterName,
			&ticket.AssigneeID,
			&ticket.AssigneeName,
			&ticket.AssigneeEmail,
			&ticket.Tags,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&legacyID,
			&legacyOrg,
			&legacyName,
			&legacyIcon,
			&legacyColor,
			&legacyCreated,
		); err != nil {
			return nil, err
		}
		if legacyID != nil {
			team := TeamRow{ID: *legacyID, Icon: legacyIcon, Color: legacyColor}
			if legacyOrg != nil {
				team.OrganizationID = *legacyOrg
			}
			if legacyName != nil {
				team.Name = *legacyName
			}
			if legacyCreated != nil {
				team.CreatedAt = *legacyCreated
			}
			ticket.LegacyTeam = &team
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
