package lifecycle

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/triage-service/internal/domain"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// CreateInput is a reporter's submission.
type CreateInput struct {
	Title         string   `validate:"required"`
	Description   string   `validate:"required"`
	Category      string   `validate:"omitempty,max=64"`
	Priority      string   `validate:"omitempty,oneof=urgent high medium low"`
	TeamIDs       []string `validate:"min=1,dive,required"`
	Tags          []string `validate:"omitempty,dive,required"`
	ReporterEmail string   `validate:"required,email"`
	ReporterName  string
}

var validate = validator.New()

// Normalize trims every field, drops duplicate team ids keeping order and
// drops blank tags.
func (in CreateInput) Normalize() CreateInput {
	out := CreateInput{
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Category:      strings.TrimSpace(in.Category),
		Priority:      strings.ToLower(strings.TrimSpace(in.Priority)),
		ReporterEmail: strings.TrimSpace(in.ReporterEmail),
		ReporterName:  strings.TrimSpace(in.ReporterName),
	}
	seen := map[string]bool{}
	for _, id := range in.TeamIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out.TeamIDs = append(out.TeamIDs, id)
	}
	for _, tag := range in.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out.Tags = append(out.Tags, tag)
		}
	}
	return out
}

// Validate reports every failing field as a validation error.
func (in CreateInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("invalid ticket", nil)
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fieldName(fe.Field())] = fe.Tag()
	}
	return apperrors.NewValidationError("invalid ticket", details)
}

func fieldName(field string) string {
	switch field {
	case "TeamIDs":
		return "team_ids"
	case "ReporterEmail":
		return "reporter_email"
	case "ReporterName":
		return "reporter_name"
	}
	return strings.ToLower(field)
}

// NewTicket validates a submission and builds the open, unassigned ticket
// together with its created event. Team entries must already be resolved
// by the caller; ids and teams share order.
func NewTicket(id, organizationID string, in CreateInput, teams []domain.Team, now time.Time) (Result, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	priority := domain.TicketPriority(in.Priority)
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	category := in.Category
	if category == "" {
		category = domain.DefaultCategory
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	ticket := domain.Ticket{
		ID:             id,
		OrganizationID: organizationID,
		Title:          in.Title,
		Description:    in.Description,
		Category:       category,
		Priority:       priority,
		Status:         domain.TicketStatusOpen,
		ReporterEmail:  in.ReporterEmail,
		ReporterName:   in.ReporterName,
		Teams:          append([]domain.Team(nil), teams...),
		TeamIDs:        in.TeamIDs,
		Tags:           tags,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if len(ticket.TeamIDs) > 0 {
		ticket.TeamID = ticket.TeamIDs[0]
	}
	if len(ticket.Teams) > 0 {
		primary := ticket.Teams[0]
		ticket.Team = &primary
	}
	return Result{Ticket: ticket, Event: Draft{Type: domain.EventCreated}, TeamsChanged: true}, nil
}
