package storage

import (
	"context"

	"github.com/web3events/server/internal/domain/bookmarks"
	"github.com/web3events/server/internal/domain/events"
	"github.com/web3events/server/internal/domain/sessions"
	"github.com/web3events/server/internal/domain/users"
)

// Repository groups data access by domain.
type Repository interface {
	Users() users.Repository
	Events() events.Repository
	Bookmarks() bookmarks.Repository
	Sessions() sessions.Repository

	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
