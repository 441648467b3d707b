package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/web3events/server/internal/api/pagination"
	"github.com/web3events/server/internal/domain/bookmarks"
	"github.com/web3events/server/internal/domain/events"
)

func (r *BookmarkRepository) Get(ctx context.Context, userID, eventID string) (*bookmarks.Bookmark, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT id, user_id, event_id, created_at
  FROM bookmarks
 WHERE user_id = $1 AND event_id = $2
`, userID, eventID)

	var bookmark bookmarks.Bookmark
	if err := row.Scan(&bookmark.ID, &bookmark.UserID, &bookmark.EventID, &bookmark.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bookmarks.ErrNotFound
		}
		return nil, fmt.Errorf("get bookmark: %w", err)
	}
	return &bookmark, nil
}

func (r *BookmarkRepository) Insert(ctx context.Context, bookmark bookmarks.Bookmark) (*bookmarks.Bookmark, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO bookmarks (id, user_id, event_id)
VALUES ($1, $2, $3)
RETURNING id, user_id, event_id, created_at
`, bookmark.ID, bookmark.UserID, bookmark.EventID)

	var inserted bookmarks.Bookmark
	if err := row.Scan(&inserted.ID, &inserted.UserID, &inserted.EventID, &inserted.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, bookmarks.ErrConflict
		}
		return nil, fmt.Errorf("insert bookmark: %w", err)
	}
	return &inserted, nil
}

func (r *BookmarkRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM bookmarks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bookmarks.ErrNotFound
	}
	return nil
}

func (r *BookmarkRepository) ListEventsForUser(ctx context.Context, userID string, page bookmarks.Pagination) (bookmarks.ListResult, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}

	args := []any{userID, limit + 1}
	cursorClause := ""
	if page.After != "" {
		cursor, err := pagination.Decode(page.After)
		if err != nil {
			return bookmarks.ListResult{}, err
		}
		cursorClause = " AND (b.created_at, b.id) < ($3, $4)"
		args = append(args, cursor.Timestamp, cursor.ID)
	}

	rows, err := r.queryer().Query(ctx, `
SELECT b.id, b.created_at, `+prefixedEventColumns("e")+`
  FROM bookmarks b
  JOIN events e ON e.id = b.event_id
 WHERE b.user_id = $1`+cursorClause+`
 ORDER BY b.created_at DESC, b.id DESC
 LIMIT $2
`, args...)
	if err != nil {
		return bookmarks.ListResult{}, fmt.Errorf("list bookmarked events: %w", err)
	}
	defer rows.Close()

	var items []bookmarks.BookmarkedEvent
	for rows.Next() {
		var item bookmarks.BookmarkedEvent
		var status string
		event := &item.Event
		if err := rows.Scan(
			&item.BookmarkID,
			&item.BookmarkedAt,
			&event.ID,
			&event.Name,
			&event.Tagline,
			&event.Description,
			&event.StartDate,
			&event.EndDate,
			&event.Location.City,
			&event.Location.Country,
			&event.Kind.Conference,
			&event.Kind.Hackathon,
			&event.LogoURL,
			&event.Socials,
			&event.CreatedBy,
			&event.IsFeatured,
			&event.WorldApproved,
			&status,
			&event.CreatedAt,
			&event.UpdatedAt,
		); err != nil {
			return bookmarks.ListResult{}, fmt.Errorf("scan bookmarked event: %w", err)
		}
		item.Event.Status = events.Status(status)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return bookmarks.ListResult{}, fmt.Errorf("iterate bookmarked events: %w", err)
	}

	result := bookmarks.ListResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		last := result.Items[len(result.Items)-1]
		result.NextCursor = pagination.Encode(last.BookmarkedAt, last.BookmarkID)
	}
	return result, nil
}

func (r *BookmarkRepository) CountForEvent(ctx context.Context, eventID string) (int64, error) {
	var count int64
	if err := r.queryer().QueryRow(ctx, `
SELECT count(*) FROM bookmarks WHERE event_id = $1
`, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count bookmarks: %w", err)
	}
	return count, nil
}

func (r *BookmarkRepository) BookmarkedEventIDs(ctx context.Context, userID string, eventIDs []string) ([]string, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT event_id
  FROM bookmarks
 WHERE user_id = $1 AND event_id = ANY($2)
`, userID, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("bookmarked event ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan bookmarked event id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarked event ids: %w", err)
	}
	return out, nil
}

func (r *BookmarkRepository) CountForEvents(ctx context.Context, eventIDs []string) ([]bookmarks.EventCount, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT event_id, count(*)
  FROM bookmarks
 WHERE event_id = ANY($1)
 GROUP BY event_id
`, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("count bookmarks per event: %w", err)
	}
	defer rows.Close()

	var out []bookmarks.EventCount
	for rows.Next() {
		var count bookmarks.EventCount
		if err := rows.Scan(&count.EventID, &count.Count); err != nil {
			return nil, fmt.Errorf("scan bookmark count: %w", err)
		}
		out = append(out, count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmark counts: %w", err)
	}
	return out, nil
}
