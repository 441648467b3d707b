package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type toggleJSON struct {
	IsBookmarked bool    `json:"is_bookmarked"`
	BookmarkID   *string `json:"bookmark_id"`
}

func TestToggleRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	event := env.seedEvent(t, "Event", nil)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/bookmarks/toggle", jsonBody(t, map[string]string{"event_id": event.ID})))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestToggleFlow(t *testing.T) {
	env := newTestEnv(t)
	event := env.seedEvent(t, "Event", nil)
	user := env.seedUser(t, "0x01", false)
	cookie := env.authCookie(t, user)

	toggle := func() toggleJSON {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookmarks/toggle", jsonBody(t, map[string]string{"event_id": event.ID}))
		req.AddCookie(cookie)
		rec := env.do(req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var body toggleJSON
		decodeBody(t, rec, &body)
		return body
	}

	on := toggle()
	require.True(t, on.IsBookmarked)
	require.NotNil(t, on.BookmarkID)

	off := toggle()
	require.False(t, off.IsBookmarked)
	require.Nil(t, off.BookmarkID)
}

func TestToggleUnknownEventID(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "0x01", false)
	cookie := env.authCookie(t, user)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookmarks/toggle", jsonBody(t, map[string]string{"event_id": newULID(t)}))
	req.AddCookie(cookie)
	rec := env.do(req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleInvalidEventID(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "0x01", false)
	cookie := env.authCookie(t, user)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookmarks/toggle", jsonBody(t, map[string]string{"event_id": "nope"}))
	req.AddCookie(cookie)
	rec := env.do(req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListBookmarks(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "0x01", false)
	cookie := env.authCookie(t, user)
	first := env.seedEvent(t, "First", nil)
	second := env.seedEvent(t, "Second", nil)

	for _, event := range []string{first.ID, second.ID} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookmarks/toggle", jsonBody(t, map[string]string{"event_id": event}))
		req.AddCookie(cookie)
		require.Equal(t, http.StatusOK, env.do(req).Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookmarks", nil)
	req.AddCookie(cookie)
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []struct {
			Event        eventJSON `json:"event"`
			BookmarkID   string    `json:"bookmark_id"`
			BookmarkedAt string    `json:"bookmarked_at"`
		} `json:"items"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Items, 2)
	for _, item := range body.Items {
		require.NotEmpty(t, item.BookmarkID)
		require.NotEmpty(t, item.BookmarkedAt)
	}
}

func TestListBookmarksEmpty(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "0x01", false)
	cookie := env.authCookie(t, user)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookmarks", nil)
	req.AddCookie(cookie)
	rec := env.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestBookmarkCounts(t *testing.T) {
	env := newTestEnv(t)
	event := env.seedEvent(t, "Popular", nil)
	other := env.seedEvent(t, "Quiet", nil)

	for _, wallet := range []string{"0x01", "0x02"} {
		user := env.seedUser(t, wallet, false)
		cookie := env.authCookie(t, user)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookmarks/toggle", jsonBody(t, map[string]string{"event_id": event.ID}))
		req.AddCookie(cookie)
		require.Equal(t, http.StatusOK, env.do(req).Code)
	}

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/bookmarks/counts", jsonBody(t, map[string][]string{
		"event_ids": {event.ID, other.ID},
	})))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Counts []struct {
			EventID string `json:"event_id"`
			Count   int64  `json:"bookmark_count"`
		} `json:"counts"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Counts, 2)
	require.Equal(t, int64(2), body.Counts[0].Count)
	require.Equal(t, int64(0), body.Counts[1].Count)
}

func TestBookmarkStatus(t *testing.T) {
	env := newTestEnv(t)
	mine := env.seedEvent(t, "Mine", nil)
	other := env.seedEvent(t, "Other", nil)
	user := env.seedUser(t, "0x01", false)
	cookie := env.authCookie(t, user)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookmarks/toggle", jsonBody(t, map[string]string{"event_id": mine.ID}))
	req.AddCookie(cookie)
	require.Equal(t, http.StatusOK, env.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/bookmarks/status", jsonBody(t, map[string][]string{
		"event_ids": {mine.ID, other.ID},
	}))
	req.AddCookie(cookie)
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Statuses []struct {
			EventID      string `json:"event_id"`
			IsBookmarked bool   `json:"is_bookmarked"`
		} `json:"statuses"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Statuses, 2)
	require.Equal(t, mine.ID, body.Statuses[0].EventID)
	require.True(t, body.Statuses[0].IsBookmarked)
	require.False(t, body.Statuses[1].IsBookmarked)
}

func TestBookmarkStatusRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	event := env.seedEvent(t, "Event", nil)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/bookmarks/status", jsonBody(t, map[string][]string{
		"event_ids": {event.ID},
	})))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEventBookmarkCount(t *testing.T) {
	env := newTestEnv(t)
	event := env.seedEvent(t, "Popular", nil)
	user := env.seedUser(t, "0x01", false)
	cookie := env.authCookie(t, user)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookmarks/toggle", jsonBody(t, map[string]string{"event_id": event.ID}))
	req.AddCookie(cookie)
	require.Equal(t, http.StatusOK, env.do(req).Code)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/events/"+event.ID+"/bookmarks", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		EventID string `json:"event_id"`
		Count   int64  `json:"count"`
	}
	decodeBody(t, rec, &body)
	require.Equal(t, event.ID, body.EventID)
	require.Equal(t, int64(1), body.Count)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/events/not-a-ulid/bookmarks", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookmarkCountsValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/bookmarks/counts", jsonBody(t, map[string][]string{
		"event_ids": {},
	})))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodPost, "/api/v1/bookmarks/counts", jsonBody(t, map[string][]string{
		"event_ids": {"not-a-ulid"},
	})))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
