package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/web3events/server/internal/api/pagination"
	"github.com/web3events/server/internal/domain/bookmarks"
)

// BookmarkRepository joins against an EventRepository the way the SQL
// implementation joins against the events table.
type BookmarkRepository struct {
	mu     sync.Mutex
	rows   map[string]bookmarks.Bookmark
	events *EventRepository
	clock  func() time.Time
}

func NewBookmarkRepository(eventRepo *EventRepository) *BookmarkRepository {
	return &BookmarkRepository{
		rows:   make(map[string]bookmarks.Bookmark),
		events: eventRepo,
		clock:  time.Now,
	}
}

var _ bookmarks.Repository = (*BookmarkRepository)(nil)

func (r *BookmarkRepository) Get(ctx context.Context, userID, eventID string) (*bookmarks.Bookmark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.UserID == userID && row.EventID == eventID {
			row := row
			return &row, nil
		}
	}
	return nil, bookmarks.ErrNotFound
}

func (r *BookmarkRepository) Insert(ctx context.Context, bookmark bookmarks.Bookmark) (*bookmarks.Bookmark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.UserID == bookmark.UserID && row.EventID == bookmark.EventID {
			return nil, bookmarks.ErrConflict
		}
	}
	if bookmark.CreatedAt.IsZero() {
		bookmark.CreatedAt = r.clock()
	}
	r.rows[bookmark.ID] = bookmark
	return &bookmark, nil
}

func (r *BookmarkRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return bookmarks.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *BookmarkRepository) ListEventsForUser(ctx context.Context, userID string, page bookmarks.Pagination) (bookmarks.ListResult, error) {
	r.mu.Lock()
	mine := make([]bookmarks.Bookmark, 0)
	for _, row := range r.rows {
		if row.UserID == userID {
			mine = append(mine, row)
		}
	}
	r.mu.Unlock()

	sort.Slice(mine, func(i, j int) bool {
		if mine[i].CreatedAt.Equal(mine[j].CreatedAt) {
			return mine[i].ID > mine[j].ID
		}
		return mine[i].CreatedAt.After(mine[j].CreatedAt)
	})

	if page.After != "" {
		cursor, err := pagination.Decode(page.After)
		if err != nil {
			return bookmarks.ListResult{}, err
		}
		filtered := mine[:0:0]
		for _, row := range mine {
			if row.CreatedAt.Before(cursor.Timestamp) || (row.CreatedAt.Equal(cursor.Timestamp) && row.ID < cursor.ID) {
				filtered = append(filtered, row)
			}
		}
		mine = filtered
	}

	limit := page.Limit
	if limit <= 0 {
		limit = len(mine)
	}
	result := bookmarks.ListResult{}
	if len(mine) > limit {
		mine = mine[:limit]
		last := mine[len(mine)-1]
		result.NextCursor = pagination.Encode(last.CreatedAt, last.ID)
	}

	for _, row := range mine {
		event, err := r.events.Get(ctx, row.EventID)
		if err != nil {
			// Event deleted out from under the bookmark; drop the row like
			// an inner join would.
			continue
		}
		result.Items = append(result.Items, bookmarks.BookmarkedEvent{
			Event:        *event,
			BookmarkID:   row.ID,
			BookmarkedAt: row.CreatedAt,
		})
	}
	return result, nil
}

func (r *BookmarkRepository) CountForEvent(ctx context.Context, eventID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, row := range r.rows {
		if row.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (r *BookmarkRepository) BookmarkedEventIDs(ctx context.Context, userID string, eventIDs []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mine := make(map[string]bool)
	for _, row := range r.rows {
		if row.UserID == userID {
			mine[row.EventID] = true
		}
	}
	out := make([]string, 0, len(eventIDs))
	for _, id := range eventIDs {
		if mine[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *BookmarkRepository) CountForEvents(ctx context.Context, eventIDs []string) ([]bookmarks.EventCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byEvent := make(map[string]int64)
	for _, row := range r.rows {
		byEvent[row.EventID]++
	}
	out := make([]bookmarks.EventCount, 0, len(eventIDs))
	for _, id := range eventIDs {
		if byEvent[id] > 0 {
			out = append(out, bookmarks.EventCount{EventID: id, Count: byEvent[id]})
		}
	}
	return out, nil
}
