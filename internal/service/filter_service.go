package service

import (
	"context"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/listing"
	"github.com/spec-kit/triage-service/internal/mapper"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/session"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// FilterService loads and saves a member's ticket filter configuration.
type FilterService struct {
	store   repository.Store
	filters session.FilterStore
}

// NewFilterService constructs the service.
func NewFilterService(store repository.Store, filters session.FilterStore) *FilterService {
	return &FilterService{store: store, filters: filters}
}

// Load returns the saved filter with values that no longer apply removed.
// A member without a saved filter gets the zero filter.
func (s *FilterService) Load(ctx context.Context, actor domain.Actor) (listing.SavedFilter, error) {
	filter, _, err := s.filters.LoadFilter(ctx, actor.ID)
	if err != nil {
		return listing.SavedFilter{}, apperrors.NewStorageFailure("filter load failed", err)
	}
	teams, err := s.teams(ctx, actor)
	if err != nil {
		return listing.SavedFilter{}, err
	}
	return filter.Sanitize(teams), nil
}

// Save sanitizes and stores filter.
func (s *FilterService) Save(ctx context.Context, actor domain.Actor, filter listing.SavedFilter) (listing.SavedFilter, error) {
	teams, err := s.teams(ctx, actor)
	if err != nil {
		return listing.SavedFilter{}, err
	}
	filter = filter.Sanitize(teams)
	if err := s.filters.SaveFilter(ctx, actor.ID, filter); err != nil {
		return listing.SavedFilter{}, apperrors.NewStorageFailure("filter save failed", err)
	}
	return filter, nil
}

// Query turns the member's saved filter into a ticket list query. An unset
// sort falls back to newest first.
func (s *FilterService) Query(ctx context.Context, actor domain.Actor) (TicketListQuery, error) {
	filter, err := s.Load(ctx, actor)
	if err != nil {
		return TicketListQuery{}, err
	}
	query := TicketListQuery{
		Criteria:  filter.Criteria(listing.Viewer{ID: actor.ID, Email: actor.Email}),
		SortKey:   listing.SortKey(filter.SortKey),
		Direction: listing.Direction(filter.SortDir),
	}
	if query.SortKey == "" {
		query.SortKey = listing.SortCreatedAt
	}
	if query.Direction == "" {
		query.Direction = listing.Desc
	}
	return query, nil
}

func (s *FilterService) teams(ctx context.Context, actor domain.Actor) ([]domain.Team, error) {
	rows, err := s.store.Repos().Teams.ListByOrganization(ctx, actor.OrganizationID)
	if err != nil {
		return nil, storeError(err, "team", actor.OrganizationID)
	}
	return mapper.Teams(rows), nil
}
