package events

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/web3events/server/internal/domain/ids"
	"github.com/web3events/server/internal/sanitize"
)

// AdminGuard re-derives the caller's admin status from the user directory.
type AdminGuard interface {
	RequireAdmin(ctx context.Context, userID string) error
}

// AdminService serves the privileged side of the catalog. Every mutation
// re-checks the caller against the guard before touching the repository.
type AdminService struct {
	repo   Repository
	guard  AdminGuard
	logger zerolog.Logger
}

func NewAdminService(repo Repository, guard AdminGuard, logger zerolog.Logger) *AdminService {
	return &AdminService{
		repo:   repo,
		guard:  guard,
		logger: logger.With().Str("component", "events.admin").Logger(),
	}
}

// List returns events of any status, newest first. A non-empty query
// narrows the result by substring match across name, tagline, and
// description, drafts included.
func (s *AdminService) List(ctx context.Context, callerID string, status Status, query string, pagination Pagination) (ListResult, error) {
	if err := s.guard.RequireAdmin(ctx, callerID); err != nil {
		return ListResult{}, err
	}
	if status != "" && !status.Valid() {
		return ListResult{}, FilterError{Field: "status", Message: "must be draft, published, or archived"}
	}
	return s.repo.List(ctx, Filters{Status: status, Query: query, NewestFirst: true}, pagination)
}

func (s *AdminService) Create(ctx context.Context, callerID string, input EventInput) (*Event, error) {
	if err := s.guard.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint event id: %w", err)
	}

	status := input.Status
	if status == "" {
		status = StatusDraft
	}

	params := CreateParams{
		ID:          id,
		Name:        sanitize.Text(input.Name),
		Tagline:     sanitize.Text(input.Tagline),
		Description: sanitize.Text(input.Description),
		StartDate:   input.StartDate.UTC(),
		EndDate:     input.EndDate.UTC(),
		Location: Location{
			City:    sanitize.Text(input.Location.City),
			Country: sanitize.Text(input.Location.Country),
		},
		Kind:          input.Kind,
		LogoURL:       input.LogoURL,
		Socials:       sanitize.TextSlice(input.Socials),
		CreatedBy:     &callerID,
		IsFeatured:    input.IsFeatured,
		WorldApproved: input.WorldApproved,
		Status:        status,
	}

	event, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info().Str("event_id", event.ID).Str("name", event.Name).Msg("event created")
	return event, nil
}

func (s *AdminService) Update(ctx context.Context, callerID, id string, patch EventPatch) (*Event, error) {
	if err := s.guard.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	params := UpdateParams{
		StartDate:     patch.StartDate,
		EndDate:       patch.EndDate,
		Kind:          patch.Kind,
		LogoURL:       patch.LogoURL,
		IsFeatured:    patch.IsFeatured,
		WorldApproved: patch.WorldApproved,
		Status:        patch.Status,
	}
	if patch.Name != nil {
		cleaned := sanitize.Text(*patch.Name)
		params.Name = &cleaned
	}
	if patch.Tagline != nil {
		cleaned := sanitize.Text(*patch.Tagline)
		params.Tagline = &cleaned
	}
	if patch.Description != nil {
		cleaned := sanitize.Text(*patch.Description)
		params.Description = &cleaned
	}
	if patch.Location != nil {
		params.Location = &Location{
			City:    sanitize.Text(patch.Location.City),
			Country: sanitize.Text(patch.Location.Country),
		}
	}
	if patch.Socials != nil {
		params.Socials = sanitize.TextSlice(patch.Socials)
	}

	return s.repo.Update(ctx, id, params)
}

func (s *AdminService) Delete(ctx context.Context, callerID, id string) error {
	if err := s.guard.RequireAdmin(ctx, callerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("event_id", id).Msg("event deleted")
	return nil
}

func (s *AdminService) ToggleFeatured(ctx context.Context, callerID, id string) (*Event, error) {
	if err := s.guard.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	flipped := !event.IsFeatured
	return s.repo.Update(ctx, id, UpdateParams{IsFeatured: &flipped})
}

func (s *AdminService) ToggleApproved(ctx context.Context, callerID, id string) (*Event, error) {
	if err := s.guard.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	flipped := !event.WorldApproved
	return s.repo.Update(ctx, id, UpdateParams{WorldApproved: &flipped})
}

// BulkSetStatus patches the status on every listed event. Missing ids are
// skipped; the returned count is the number of rows actually touched.
func (s *AdminService) BulkSetStatus(ctx context.Context, callerID string, eventIDs []string, status Status) (int64, error) {
	if err := s.guard.RequireAdmin(ctx, callerID); err != nil {
		return 0, err
	}
	if !status.Valid() {
		return 0, FilterError{Field: "status", Message: "must be draft, published, or archived"}
	}
	if len(eventIDs) == 0 {
		return 0, nil
	}
	return s.repo.BulkSetStatus(ctx, eventIDs, status)
}

// BulkDelete removes every listed event that still exists and reports the
// number removed.
func (s *AdminService) BulkDelete(ctx context.Context, callerID string, eventIDs []string) (int64, error) {
	if err := s.guard.RequireAdmin(ctx, callerID); err != nil {
		return 0, err
	}
	if len(eventIDs) == 0 {
		return 0, nil
	}
	affected, err := s.repo.BulkDelete(ctx, eventIDs)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("deleted", affected).Msg("bulk delete")
	return affected, nil
}

func (s *AdminService) ListByCreator(ctx context.Context, callerID, creatorID string) ([]Event, error) {
	if err := s.guard.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	return s.repo.ListByCreator(ctx, creatorID)
}

func (s *AdminService) Counts(ctx context.Context) (StatusCounts, error) {
	return s.repo.Count(ctx)
}

func (s *AdminService) Recent(ctx context.Context, limit int) ([]Event, error) {
	return s.repo.Recent(ctx, limit)
}
