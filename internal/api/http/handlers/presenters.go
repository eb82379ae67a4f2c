package handlers

import (
	"github.com/spec-kit/triage-service/internal/api/dto"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/mapper"
	"github.com/spec-kit/triage-service/internal/thread"
)

func personResponse(p domain.Person) dto.PersonResponse {
	return dto.PersonResponse{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		DisplayName: mapper.DisplayName(p.Name, p.Email),
	}
}

func teamResponse(team domain.Team) dto.TeamResponse {
	return dto.TeamResponse{
		ID:    team.ID,
		Name:  team.Name,
		Slug:  team.Slug,
		Color: team.Color,
		Icon:  team.Icon,
	}
}

func teamResponses(teams []domain.Team) []dto.TeamResponse {
	out := make([]dto.TeamResponse, 0, len(teams))
	for _, team := range teams {
		out = append(out, teamResponse(team))
	}
	return out
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	resp := dto.TicketResponse{
		ID:            ticket.ID,
		Number:        ticket.Number,
		Title:         ticket.Title,
		Description:   ticket.Description,
		Category:      ticket.Category,
		Status:        ticket.Status,
		Priority:      ticket.Priority,
		ReporterEmail: ticket.ReporterEmail,
		ReporterName:  ticket.ReporterName,
		AssigneeID:    ticket.AssigneeID,
		TeamID:        ticket.TeamID,
		TeamIDs:       append([]string{}, ticket.TeamIDs...),
		Teams:         teamResponses(ticket.Teams),
		Tags:          append([]string{}, ticket.Tags...),
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
	}
	if ticket.Assignee != nil {
		assignee := personResponse(*ticket.Assignee)
		resp.Assignee = &assignee
	}
	if ticket.Team != nil {
		team := teamResponse(*ticket.Team)
		resp.Team = &team
	}
	return resp
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	out := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, ticketResponse(&tickets[i]))
	}
	return out
}

func eventResponses(list []domain.Event) []dto.EventResponse {
	out := make([]dto.EventResponse, 0, len(list))
	for _, event := range list {
		resp := dto.EventResponse{
			ID:          event.ID,
			TicketID:    event.TicketID,
			Type:        event.Type,
			Actor:       personResponse(event.Actor),
			Description: events.Describe(event.Type, event.Payload),
			CreatedAt:   event.CreatedAt,
		}
		if event.Payload != nil {
			resp.Payload = event.Payload.Fields()
		}
		out = append(out, resp)
	}
	return out
}

func attachmentResponse(a domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:          a.ID,
		TicketID:    a.TicketID,
		Filename:    a.Filename,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		Checksum:    a.Checksum,
		URL:         a.URL,
		CreatedAt:   a.CreatedAt,
	}
}

func attachmentResponses(list []domain.Attachment) []dto.AttachmentResponse {
	out := make([]dto.AttachmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, attachmentResponse(a))
	}
	return out
}

func groupResponses(groups []thread.Group, viewerID string) []dto.ReactionGroupResponse {
	out := make([]dto.ReactionGroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, dto.ReactionGroupResponse{
			Kind:  g.Kind,
			Label: g.Label,
			Count: g.Count,
			Names: append([]string{}, g.Names...),
			Mine:  g.Has(viewerID),
		})
	}
	return out
}

func reactionSummary(summary thread.Summary, viewerID string) dto.ReactionSummaryResponse {
	return dto.ReactionSummaryResponse{
		Total: summary.Total,
		Top:   groupResponses(summary.Top, viewerID),
		Rest: dto.ReactionRestResponse{
			Count:  summary.Rest.Count,
			Names:  append([]string{}, summary.Rest.Names...),
			Groups: groupResponses(summary.Rest.Groups, viewerID),
		},
		Mine: summary.Mine,
	}
}

func commentResponse(comment *domain.Comment, viewerID string) dto.CommentResponse {
	var author domain.Person
	if comment.Author != nil {
		author = *comment.Author
	}
	resp := dto.CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		ParentID:  comment.ParentID,
		Author:    personResponse(author),
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
		Reactions: reactionSummary(thread.Aggregate(comment.Reactions, viewerID), viewerID),
		Replies:   make([]dto.CommentResponse, 0, len(comment.Replies)),
	}
	for _, reply := range comment.Replies {
		resp.Replies = append(resp.Replies, commentResponse(reply, viewerID))
	}
	return resp
}

func commentResponses(roots []*domain.Comment, viewerID string) []dto.CommentResponse {
	out := make([]dto.CommentResponse, 0, len(roots))
	for _, root := range roots {
		out = append(out, commentResponse(root, viewerID))
	}
	return out
}

func notificationResponses(items []domain.Notification) []dto.NotificationResponse {
	out := make([]dto.NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, dto.NotificationResponse{
			ID:          n.ID,
			TicketID:    n.TicketID,
			TicketTitle: n.TicketTitle,
			Message:     n.Message,
			ActorName:   n.ActorName,
			CreatedAt:   n.CreatedAt,
			Unread:      n.Unread,
		})
	}
	return out
}
