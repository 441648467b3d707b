package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/web3events/server/internal/domain/events"
)

type eventJSON struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Socials       []string `json:"socials"`
	Status        string   `json:"status"`
	IsFeatured    bool     `json:"is_featured"`
	BookmarkCount *int64   `json:"bookmark_count"`
}

type eventListJSON struct {
	Items      []eventJSON `json:"items"`
	NextCursor string      `json:"next_cursor"`
}

func TestListEventsPublicSeesOnlyPublished(t *testing.T) {
	env := newTestEnv(t)
	env.seedEvent(t, "Published", nil)
	env.seedEvent(t, "Draft", func(p *events.CreateParams) { p.Status = events.StatusDraft })

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body eventListJSON
	decodeBody(t, rec, &body)
	require.Len(t, body.Items, 1)
	require.Equal(t, "Published", body.Items[0].Name)
	require.NotNil(t, body.Items[0].Socials, "socials is always an array")
}

func TestListEventsPagination(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2024, 9, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		offset := time.Duration(i) * 24 * time.Hour
		env.seedEvent(t, "Event", func(p *events.CreateParams) {
			p.StartDate = base.Add(offset)
			p.EndDate = base.Add(offset + 12*time.Hour)
		})
	}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/events?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var first eventListJSON
	decodeBody(t, rec, &first)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/events?limit=2&after="+first.NextCursor, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var second eventListJSON
	decodeBody(t, rec, &second)
	require.Len(t, second.Items, 1)
	require.Empty(t, second.NextCursor)
}

func TestListEventsRejectsBadFilter(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/events?type=meetup", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestGetEventIncludesBookmarkCount(t *testing.T) {
	env := newTestEnv(t)
	event := env.seedEvent(t, "Counted", nil)
	user := env.seedUser(t, "0x01", false)
	cookie := env.authCookie(t, user)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookmarks/toggle", jsonBody(t, map[string]string{"event_id": event.ID}))
	req.AddCookie(cookie)
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/events/"+event.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body eventJSON
	decodeBody(t, rec, &body)
	require.Equal(t, event.ID, body.ID)
	require.NotNil(t, body.BookmarkCount)
	require.Equal(t, int64(1), *body.BookmarkCount)
}

func TestGetEventNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/events/"+newULID(t), nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetEventInvalidID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/events/not-a-ulid", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeaturedEvents(t *testing.T) {
	env := newTestEnv(t)
	env.seedEvent(t, "Plain", nil)
	env.seedEvent(t, "Starred", func(p *events.CreateParams) { p.IsFeatured = true })
	env.seedEvent(t, "Hidden Star", func(p *events.CreateParams) {
		p.IsFeatured = true
		p.Status = events.StatusDraft
	})

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/events/featured", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body eventListJSON
	decodeBody(t, rec, &body)
	require.Len(t, body.Items, 1)
	require.Equal(t, "Starred", body.Items[0].Name)
	require.True(t, body.Items[0].IsFeatured)
}
