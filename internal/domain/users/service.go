package users

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/web3events/server/internal/sanitize"
)

// Service handles the user directory and the admin authorization guard.
type Service struct {
	repo      Repository
	devBypass bool
	logger    zerolog.Logger
}

func NewService(repo Repository, devBypass bool, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		devBypass: devBypass,
		logger:    logger.With().Str("component", "users").Logger(),
	}
}

// UpsertByWallet creates the user on first login or patches the provided
// profile fields on a returning one. New users are never admins.
func (s *Service) UpsertByWallet(ctx context.Context, params UpsertParams) (*User, error) {
	if params.WalletAddress == "" {
		return nil, fmt.Errorf("wallet address is required")
	}
	if params.Username != nil {
		cleaned := sanitize.Text(*params.Username)
		params.Username = &cleaned
	}
	user, err := s.repo.Upsert(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByWallet(ctx context.Context, walletAddress string) (*User, error) {
	return s.repo.GetByWallet(ctx, walletAddress)
}

func (s *Service) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*User, error) {
	if update.Username != nil {
		cleaned := sanitize.Text(*update.Username)
		update.Username = &cleaned
	}
	return s.repo.UpdateProfile(ctx, id, update)
}

// RequireAdmin re-derives the caller's admin status from the directory. It
// never trusts a client-supplied flag. The dev bypass is decided once at
// startup from configuration.
func (s *Service) RequireAdmin(ctx context.Context, userID string) error {
	if s.devBypass {
		return nil
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return ErrPermissionDenied
	}
	if !user.IsAdmin {
		return ErrPermissionDenied
	}
	return nil
}

// BootstrapFirstAdmin promotes the caller iff the admin set is empty. The
// emptiness check and the promotion are a single compare-and-set in the
// repository, so concurrent calls cannot both succeed.
func (s *Service) BootstrapFirstAdmin(ctx context.Context, userID string) error {
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return err
	}

	promoted, err := s.repo.PromoteFirstAdmin(ctx, userID)
	if err != nil {
		return fmt.Errorf("bootstrap first admin: %w", err)
	}
	if !promoted {
		return ErrAdminExists
	}

	s.logger.Info().Str("user_id", userID).Msg("bootstrapped first admin")
	return nil
}

// SetAdmin grants or revokes admin status. Caller must already be an admin.
func (s *Service) SetAdmin(ctx context.Context, callerID, targetID string, isAdmin bool) error {
	if err := s.RequireAdmin(ctx, callerID); err != nil {
		return err
	}
	if _, err := s.repo.GetByID(ctx, targetID); err != nil {
		return err
	}
	if err := s.repo.SetAdmin(ctx, targetID, isAdmin); err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	s.logger.Info().Str("target_id", targetID).Bool("is_admin", isAdmin).Msg("admin status changed")
	return nil
}

// List returns all users. Caller must be an admin.
func (s *Service) List(ctx context.Context, callerID string) ([]User, error) {
	if err := s.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

func (s *Service) CountUsers(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *Service) CountAdmins(ctx context.Context) (int64, error) {
	return s.repo.CountAdmins(ctx)
}

func (s *Service) Recent(ctx context.Context, limit int) ([]User, error) {
	return s.repo.Recent(ctx, limit)
}
