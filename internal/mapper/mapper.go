// Package mapper converts storage rows into domain entities and back.
// Every function here is pure.
package mapper

import (
	"regexp"
	"strings"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/repository"
)

// FallbackDisplayName is shown when neither a name nor an email is known.
const FallbackDisplayName = "User"

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// DisplayName resolves a person's label: explicit name, then the local part
// of the email, then "User".
func DisplayName(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	email = strings.TrimSpace(email)
	if at := strings.Index(email, "@"); at >= 0 {
		email = email[:at]
	}
	if email != "" {
		return email
	}
	return FallbackDisplayName
}

// PersonDisplayName applies DisplayName to a snapshot.
func PersonDisplayName(p *domain.Person) string {
	if p == nil {
		return FallbackDisplayName
	}
	return DisplayName(p.Name, p.Email)
}

// NormalizeTeamIcon maps unknown or empty icons to the default.
func NormalizeTeamIcon(icon string) domain.TeamIcon {
	candidate := domain.TeamIcon(strings.TrimSpace(icon))
	for _, known := range domain.TeamIcons {
		if known == candidate {
			return known
		}
	}
	return domain.DefaultTeamIcon
}

// NormalizeTeamColor maps empty or malformed colors to the default.
func NormalizeTeamColor(color string) string {
	color = strings.TrimSpace(color)
	if hexColor.MatchString(color) {
		return color
	}
	return domain.DefaultTeamColor
}

// Slug derives a url-safe key from a team name.
func Slug(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// Team converts a team row.
func Team(row repository.TeamRow) domain.Team {
	return domain.Team{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		Name:           row.Name,
		Slug:           Slug(row.Name),
		Color:          NormalizeTeamColor(deref(row.Color)),
		Icon:           NormalizeTeamIcon(deref(row.Icon)),
	}
}

// Teams converts rows preserving order.
func Teams(rows []repository.TeamRow) []domain.Team {
	out := make([]domain.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, Team(row))
	}
	return out
}

// TicketFromRow builds a ticket. Teams come from the join rows in position
// order; with none, the legacy single-team reference is used.
func TicketFromRow(row repository.TicketRow) domain.Ticket {
	ticket := domain.Ticket{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		Title:          row.Title,
		Description:    row.Description,
		Category:       deref(row.Category),
		Priority:       domain.TicketPriority(row.Priority),
		Status:         domain.TicketStatus(row.Status),
		ReporterEmail:  deref(row.ReporterEmail),
		ReporterName:   deref(row.ReporterName),
		Tags:           append([]string{}, row.Tags...),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if ticket.Category == "" {
		ticket.Category = domain.DefaultCategory
	}

	if id := deref(row.AssigneeID); id != "" {
		ticket.SetAssignee(domain.Person{
			ID:    id,
			Name:  DisplayName(deref(row.AssigneeName), deref(row.AssigneeEmail)),
			Email: deref(row.AssigneeEmail),
		})
	}

	switch {
	case len(row.Teams) > 0:
		ticket.Teams = Teams(row.Teams)
	case row.LegacyTeam != nil:
		ticket.Teams = []domain.Team{Team(*row.LegacyTeam)}
	default:
		ticket.Teams = []domain.Team{}
	}
	ticket.TeamIDs = make([]string, 0, len(ticket.Teams))
	for _, team := range ticket.Teams {
		ticket.TeamIDs = append(ticket.TeamIDs, team.ID)
	}
	if len(ticket.Teams) > 0 {
		primary := ticket.Teams[0]
		ticket.Team = &primary
		ticket.TeamID = primary.ID
	} else if legacy := deref(row.TeamID); legacy != "" {
		ticket.TeamID = legacy
		ticket.TeamIDs = []string{legacy}
	}
	return ticket
}

// TicketsFromRows converts a slice of rows.
func TicketsFromRows(rows []repository.TicketRow) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(rows))
	for _, row := range rows {
		out = append(out, TicketFromRow(row))
	}
	return out
}

// TicketToRow is the inverse used for writes. Joined team rows are not
// produced; the caller writes associations with SetTeams.
func TicketToRow(ticket domain.Ticket) repository.TicketRow {
	row := repository.TicketRow{
		ID:             ticket.ID,
		OrganizationID: ticket.OrganizationID,
		Title:          ticket.Title,
		Description:    ticket.Description,
		Category:       ptr(ticket.Category),
		Priority:       string(ticket.Priority),
		Status:         string(ticket.Status),
		ReporterEmail:  ptr(ticket.ReporterEmail),
		ReporterName:   ptr(ticket.ReporterName),
		Tags:           append([]string{}, ticket.Tags...),
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
	}
	if len(ticket.TeamIDs) > 0 {
		row.TeamID = ptr(ticket.TeamIDs[0])
	} else {
		row.TeamID = ptr(ticket.TeamID)
	}
	if ticket.HasAssignee() {
		row.AssigneeID = ptr(ticket.AssigneeID)
		if ticket.Assignee != nil {
			row.AssigneeName = ptr(ticket.Assignee.Name)
			row.AssigneeEmail = ptr(ticket.Assignee.Email)
		}
	}
	return row
}

func personFromColumns(id, name, email *string) *domain.Person {
	if deref(id) == "" && deref(email) == "" && deref(name) == "" {
		return nil
	}
	return &domain.Person{
		ID:    deref(id),
		Name:  DisplayName(deref(name), deref(email)),
		Email: deref(email),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
