package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/web3events/server/internal/domain/events"
	"github.com/web3events/server/internal/domain/ids"
	"github.com/web3events/server/internal/domain/users"
)

var (
	ErrNotFound = errors.New("bookmark not found")
	// ErrConflict is surfaced when two concurrent toggles race and both try
	// to insert the same (user, event) pair; the unique index rejects one.
	ErrConflict = errors.New("bookmark already exists")
)

type Bookmark struct {
	ID        string
	UserID    string
	EventID   string
	CreatedAt time.Time
}

// BookmarkedEvent joins an event row with the bookmark that references it.
type BookmarkedEvent struct {
	Event        events.Event
	BookmarkID   string
	BookmarkedAt time.Time
}

type ListResult struct {
	Items      []BookmarkedEvent
	NextCursor string
}

type EventCount struct {
	EventID string `json:"event_id"`
	Count   int64  `json:"bookmark_count"`
}

// EventStatus reports whether one user has bookmarked one event.
type EventStatus struct {
	EventID      string `json:"event_id"`
	IsBookmarked bool   `json:"is_bookmarked"`
}

type Pagination struct {
	Limit int
	After string
}

type Repository interface {
	Get(ctx context.Context, userID, eventID string) (*Bookmark, error)
	Insert(ctx context.Context, bookmark Bookmark) (*Bookmark, error)
	Delete(ctx context.Context, id string) error
	ListEventsForUser(ctx context.Context, userID string, pagination Pagination) (ListResult, error)
	CountForEvent(ctx context.Context, eventID string) (int64, error)
	CountForEvents(ctx context.Context, eventIDs []string) ([]EventCount, error)
	BookmarkedEventIDs(ctx context.Context, userID string, eventIDs []string) ([]string, error)
}

type ToggleResult struct {
	IsBookmarked bool    `json:"is_bookmarked"`
	BookmarkID   *string `json:"bookmark_id,omitempty"`
}

// Service maintains the user/event bookmark join.
type Service struct {
	repo   Repository
	users  users.Repository
	events events.Repository
	logger zerolog.Logger
}

func NewService(repo Repository, userRepo users.Repository, eventRepo events.Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		users:  userRepo,
		events: eventRepo,
		logger: logger.With().Str("component", "bookmarks").Logger(),
	}
}

// Toggle flips the bookmark state for (user, event). Removing never checks
// referential integrity; inserting verifies both sides still exist. Repeated
// toggles alternate state predictably.
func (s *Service) Toggle(ctx context.Context, userID, eventID string) (ToggleResult, error) {
	existing, err := s.repo.Get(ctx, userID, eventID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return ToggleResult{}, fmt.Errorf("lookup bookmark: %w", err)
	}

	if existing != nil {
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			return ToggleResult{}, fmt.Errorf("remove bookmark: %w", err)
		}
		return ToggleResult{IsBookmarked: false}, nil
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return ToggleResult{}, err
	}
	if _, err := s.events.Get(ctx, eventID); err != nil {
		return ToggleResult{}, err
	}

	id, err := ids.NewULID()
	if err != nil {
		return ToggleResult{}, fmt.Errorf("mint bookmark id: %w", err)
	}
	created, err := s.repo.Insert(ctx, Bookmark{ID: id, UserID: userID, EventID: eventID})
	if err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{IsBookmarked: true, BookmarkID: &created.ID}, nil
}

// ListForUser returns the caller's bookmarked events, most recently
// bookmarked first.
func (s *Service) ListForUser(ctx context.Context, userID string, pagination Pagination) (ListResult, error) {
	return s.repo.ListEventsForUser(ctx, userID, pagination)
}

func (s *Service) CountForEvent(ctx context.Context, eventID string) (int64, error) {
	return s.repo.CountForEvent(ctx, eventID)
}

// StatusForEvents reports the caller's own bookmark state for each event,
// in input order. Unknown ids come back unbookmarked.
func (s *Service) StatusForEvents(ctx context.Context, userID string, eventIDs []string) ([]EventStatus, error) {
	if len(eventIDs) == 0 {
		return []EventStatus{}, nil
	}
	marked, err := s.repo.BookmarkedEventIDs(ctx, userID, eventIDs)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(marked))
	for _, id := range marked {
		set[id] = true
	}
	out := make([]EventStatus, 0, len(eventIDs))
	for _, id := range eventIDs {
		out = append(out, EventStatus{EventID: id, IsBookmarked: set[id]})
	}
	return out, nil
}

// CountForEvents returns per-event bookmark totals in one aggregate query.
// Events with zero bookmarks are present with a zero count.
func (s *Service) CountForEvents(ctx context.Context, eventIDs []string) ([]EventCount, error) {
	if len(eventIDs) == 0 {
		return []EventCount{}, nil
	}
	counts, err := s.repo.CountForEvents(ctx, eventIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]int64, len(counts))
	for _, count := range counts {
		byID[count.EventID] = count.Count
	}
	result := make([]EventCount, 0, len(eventIDs))
	for _, id := range eventIDs {
		result = append(result, EventCount{EventID: id, Count: byID[id]})
	}
	return result, nil
}
