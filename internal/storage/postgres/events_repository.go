package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/web3events/server/internal/api/pagination"
	"github.com/web3events/server/internal/domain/events"
)

const eventColumns = `id, name, tagline, description, start_date, end_date,
       city, country, is_conference, is_hackathon, logo_url, socials,
       created_by, is_featured, world_approved, status, created_at, updated_at`

func (r *EventRepository) Get(ctx context.Context, id string) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE id = $1
`, id)
	return scanEvent(row)
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO events (id, name, tagline, description, start_date, end_date,
                    city, country, is_conference, is_hackathon, logo_url,
                    socials, created_by, is_featured, world_approved, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING `+eventColumns+`
`, params.ID, params.Name, params.Tagline, params.Description,
		params.StartDate, params.EndDate, params.Location.City, params.Location.Country,
		params.Kind.Conference, params.Kind.Hackathon, params.LogoURL, params.Socials,
		params.CreatedBy, params.IsFeatured, params.WorldApproved, string(params.Status))
	return scanEvent(row)
}

func (r *EventRepository) Update(ctx context.Context, id string, params events.UpdateParams) (*events.Event, error) {
	var (
		city, country             *string
		isConference, isHackathon *bool
		status                    *string
	)
	if params.Location != nil {
		city, country = &params.Location.City, &params.Location.Country
	}
	if params.Kind != nil {
		isConference, isHackathon = &params.Kind.Conference, &params.Kind.Hackathon
	}
	if params.Status != nil {
		value := string(*params.Status)
		status = &value
	}

	row := r.queryer().QueryRow(ctx, `
UPDATE events SET
    name           = COALESCE($2, name),
    tagline        = COALESCE($3, tagline),
    description    = COALESCE($4, description),
    start_date     = COALESCE($5, start_date),
    end_date       = COALESCE($6, end_date),
    city           = COALESCE($7, city),
    country        = COALESCE($8, country),
    is_conference  = COALESCE($9, is_conference),
    is_hackathon   = COALESCE($10, is_hackathon),
    logo_url       = COALESCE($11, logo_url),
    socials        = COALESCE($12, socials),
    is_featured    = COALESCE($13, is_featured),
    world_approved = COALESCE($14, world_approved),
    status         = COALESCE($15, status),
    updated_at     = now()
 WHERE id = $1
RETURNING `+eventColumns+`
`, id, params.Name, params.Tagline, params.Description, params.StartDate, params.EndDate,
		city, country, isConference, isHackathon, params.LogoURL, params.Socials,
		params.IsFeatured, params.WorldApproved, status)
	return scanEvent(row)
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) List(ctx context.Context, filters events.Filters, page events.Pagination) (events.ListResult, error) {
	var (
		where strings.Builder
		args  []any
	)
	where.WriteString("WHERE TRUE")
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Status != "" {
		fmt.Fprintf(&where, " AND status = %s", arg(string(filters.Status)))
	}
	if filters.Country != "" {
		// Exact match, case-insensitive. ILIKE would give the value
		// pattern semantics.
		fmt.Fprintf(&where, " AND lower(country) = lower(%s)", arg(filters.Country))
	}
	switch filters.Kind {
	case "conference":
		where.WriteString(" AND is_conference")
	case "hackathon":
		where.WriteString(" AND is_hackathon")
	}
	if filters.Featured != nil {
		fmt.Fprintf(&where, " AND is_featured = %s", arg(*filters.Featured))
	}
	if filters.Query != "" {
		pattern := "%" + escapeLike(filters.Query) + "%"
		placeholder := arg(pattern)
		fmt.Fprintf(&where, " AND (name ILIKE %[1]s OR tagline ILIKE %[1]s OR description ILIKE %[1]s)", placeholder)
	}

	orderKey, order := "start_date", "ASC"
	if filters.NewestFirst {
		orderKey, order = "created_at", "DESC"
	}
	if page.After != "" {
		cursor, err := pagination.Decode(page.After)
		if err != nil {
			return events.ListResult{}, err
		}
		comparator := ">"
		if filters.NewestFirst {
			comparator = "<"
		}
		fmt.Fprintf(&where, " AND (%s, id) %s (%s, %s)",
			orderKey, comparator, arg(cursor.Timestamp), arg(cursor.ID))
	}

	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
SELECT %s
  FROM events
 %s
 ORDER BY %s %s, id %s
 LIMIT %s
`, eventColumns, where.String(), orderKey, order, order, arg(limit+1))

	rows, err := r.queryer().Query(ctx, query, args...)
	if err != nil {
		return events.ListResult{}, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	collected, err := collectEvents(rows)
	if err != nil {
		return events.ListResult{}, err
	}

	result := events.ListResult{Events: collected}
	if len(collected) > limit {
		result.Events = collected[:limit]
		last := result.Events[len(result.Events)-1]
		key := last.StartDate
		if filters.NewestFirst {
			key = last.CreatedAt
		}
		result.NextCursor = pagination.Encode(key, last.ID)
	}
	return result, nil
}

// escapeLike escapes LIKE metacharacters so user search terms match literally.
func escapeLike(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `%`, `\%`)
	value = strings.ReplaceAll(value, `_`, `\_`)
	return value
}

func (r *EventRepository) ListByCreator(ctx context.Context, userID string) ([]events.Event, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE created_by = $1
 ORDER BY created_at DESC, id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list events by creator: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *EventRepository) Featured(ctx context.Context, limit int) ([]events.Event, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE is_featured AND status = 'published'
 ORDER BY start_date ASC, id ASC
 LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list featured events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *EventRepository) BulkSetStatus(ctx context.Context, ids []string, status events.Status) (int64, error) {
	tag, err := r.queryer().Exec(ctx, `
UPDATE events SET status = $2, updated_at = now() WHERE id = ANY($1)
`, ids, string(status))
	if err != nil {
		return 0, fmt.Errorf("bulk set status: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *EventRepository) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM events WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk delete events: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *EventRepository) Count(ctx context.Context) (events.StatusCounts, error) {
	var counts events.StatusCounts
	err := r.queryer().QueryRow(ctx, `
SELECT count(*),
       count(*) FILTER (WHERE status = 'published'),
       count(*) FILTER (WHERE status = 'draft'),
       count(*) FILTER (WHERE status = 'archived')
  FROM events
`).Scan(&counts.Total, &counts.Published, &counts.Draft, &counts.Archived)
	if err != nil {
		return events.StatusCounts{}, fmt.Errorf("count events: %w", err)
	}
	return counts, nil
}

func (r *EventRepository) Recent(ctx context.Context, limit int) ([]events.Event, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`
  FROM events
 ORDER BY created_at DESC, id DESC
 LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var (
		event  events.Event
		status string
	)
	if err := row.Scan(
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	event.Status = events.Status(status)
	return &event, nil
}

func collectEvents(rows pgx.Rows) ([]events.Event, error) {
	var out []events.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}
