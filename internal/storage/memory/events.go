package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/web3events/server/internal/api/pagination"
	"github.com/web3events/server/internal/domain/events"
)

type EventRepository struct {
	mu    sync.Mutex
	rows  map[string]events.Event
	clock func() time.Time
}

func NewEventRepository() *EventRepository {
	return &EventRepository{
		rows:  make(map[string]events.Event),
		clock: time.Now,
	}
}

var _ events.Repository = (*EventRepository)(nil)

func (r *EventRepository) Get(ctx context.Context, id string) (*events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	return &row, nil
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock()
	row := events.Event{
		ID:            params.ID,
		Name:          params.Name,
		Tagline:       params.Tagline,
		Description:   params.Description,
		StartDate:     params.StartDate,
		EndDate:       params.EndDate,
		Location:      params.Location,
		Kind:          params.Kind,
		LogoURL:       params.LogoURL,
		Socials:       params.Socials,
		CreatedBy:     params.CreatedBy,
		IsFeatured:    params.IsFeatured,
		WorldApproved: params.WorldApproved,
		Status:        params.Status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.rows[row.ID] = row
	return &row, nil
}

func (r *EventRepository) Update(ctx context.Context, id string, params events.UpdateParams) (*events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	if params.Name != nil {
		row.Name = *params.Name
	}
	if params.Tagline != nil {
		row.Tagline = *params.Tagline
	}
	if params.Description != nil {
		row.Description = *params.Description
	}
	if params.StartDate != nil {
		row.StartDate = *params.StartDate
	}
	if params.EndDate != nil {
		row.EndDate = *params.EndDate
	}
	if params.Location != nil {
		row.Location = *params.Location
	}
	if params.Kind != nil {
		row.Kind = *params.Kind
	}
	if params.LogoURL != nil {
		row.LogoURL = params.LogoURL
	}
	if params.Socials != nil {
		row.Socials = params.Socials
	}
	if params.IsFeatured != nil {
		row.IsFeatured = *params.IsFeatured
	}
	if params.WorldApproved != nil {
		row.WorldApproved = *params.WorldApproved
	}
	if params.Status != nil {
		row.Status = *params.Status
	}
	row.UpdatedAt = r.clock()
	r.rows[id] = row
	return &row, nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return events.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *EventRepository) List(ctx context.Context, filters events.Filters, page events.Pagination) (events.ListResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]events.Event, 0, len(r.rows))
	for _, row := range r.rows {
		if matches(row, filters) {
			matched = append(matched, row)
		}
	}

	if filters.NewestFirst {
		sort.Slice(matched, func(i, j int) bool {
			if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].ID > matched[j].ID
			}
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
	} else {
		sort.Slice(matched, func(i, j int) bool {
			if matched[i].StartDate.Equal(matched[j].StartDate) {
				return matched[i].ID < matched[j].ID
			}
			return matched[i].StartDate.Before(matched[j].StartDate)
		})
	}

	if page.After != "" {
		cursor, err := pagination.Decode(page.After)
		if err != nil {
			return events.ListResult{}, err
		}
		matched = afterCursor(matched, cursor, filters.NewestFirst)
	}

	limit := page.Limit
	if limit <= 0 {
		limit = len(matched)
	}
	result := events.ListResult{}
	if len(matched) > limit {
		matched = matched[:limit]
		last := matched[len(matched)-1]
		key := last.StartDate
		if filters.NewestFirst {
			key = last.CreatedAt
		}
		result.NextCursor = pagination.Encode(key, last.ID)
	}
	result.Events = matched
	return result, nil
}

func afterCursor(rows []events.Event, cursor pagination.Cursor, newestFirst bool) []events.Event {
	out := rows[:0:0]
	for _, row := range rows {
		key := row.StartDate
		if newestFirst {
			key = row.CreatedAt
		}
		if newestFirst {
			if key.Before(cursor.Timestamp) || (key.Equal(cursor.Timestamp) && row.ID < cursor.ID) {
				out = append(out, row)
			}
		} else {
			if key.After(cursor.Timestamp) || (key.Equal(cursor.Timestamp) && row.ID > cursor.ID) {
				out = append(out, row)
			}
		}
	}
	return out
}

func matches(row events.Event, filters events.Filters) bool {
	if filters.Status != "" && row.Status != filters.Status {
		return false
	}
	if filters.Country != "" && !strings.EqualFold(row.Location.Country, filters.Country) {
		return false
	}
	switch filters.Kind {
	case "conference":
		if !row.Kind.Conference {
			return false
		}
	case "hackathon":
		if !row.Kind.Hackathon {
			return false
		}
	}
	if filters.Featured != nil && row.IsFeatured != *filters.Featured {
		return false
	}
	if filters.Query != "" {
		q := strings.ToLower(filters.Query)
		haystack := strings.ToLower(row.Name + " " + row.Tagline + " " + row.Description)
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}

func (r *EventRepository) ListByCreator(ctx context.Context, userID string) ([]events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, row := range r.rows {
		if row.CreatedBy != nil && *row.CreatedBy == userID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *EventRepository) Featured(ctx context.Context, limit int) ([]events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, row := range r.rows {
		if row.IsFeatured && row.Status == events.StatusPublished {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *EventRepository) BulkSetStatus(ctx context.Context, idList []string, status events.Status) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	for _, id := range idList {
		row, ok := r.rows[id]
		if !ok {
			continue
		}
		row.Status = status
		row.UpdatedAt = r.clock()
		r.rows[id] = row
		affected++
	}
	return affected, nil
}

func (r *EventRepository) BulkDelete(ctx context.Context, idList []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	for _, id := range idList {
		if _, ok := r.rows[id]; !ok {
			continue
		}
		delete(r.rows, id)
		affected++
	}
	return affected, nil
}

func (r *EventRepository) Count(ctx context.Context) (events.StatusCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := events.StatusCounts{Total: int64(len(r.rows))}
	for _, row := range r.rows {
		switch row.Status {
		case events.StatusPublished:
			counts.Published++
		case events.StatusDraft:
			counts.Draft++
		case events.StatusArchived:
			counts.Archived++
		}
	}
	return counts, nil
}

func (r *EventRepository) Recent(ctx context.Context, limit int) ([]events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := make([]events.Event, 0, len(r.rows))
	for _, row := range r.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
