package bookmarks_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/web3events/server/internal/domain/bookmarks"
	"github.com/web3events/server/internal/domain/events"
	"github.com/web3events/server/internal/domain/users"
	"github.com/web3events/server/internal/storage/memory"
)

type fixture struct {
	svc    *bookmarks.Service
	users  *memory.UserRepository
	events *memory.EventRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	userRepo := memory.NewUserRepository()
	eventRepo := memory.NewEventRepository()
	bookmarkRepo := memory.NewBookmarkRepository(eventRepo)
	return fixture{
		svc:    bookmarks.NewService(bookmarkRepo, userRepo, eventRepo, zerolog.Nop()),
		users:  userRepo,
		events: eventRepo,
	}
}

func (f fixture) seedUser(t *testing.T, id string) {
	t.Helper()
	f.users.Seed(users.User{ID: id, WalletAddress: "0x" + id})
}

func (f fixture) seedEvent(t *testing.T, id string, start time.Time) {
	t.Helper()
	_, err := f.events.Create(context.Background(), events.CreateParams{
		ID:          id,
		Name:        "Event " + id,
		Tagline:     "tagline",
		Description: "description",
		StartDate:   start,
		EndDate:     start.Add(24 * time.Hour),
		Location:    events.Location{City: "Lisbon", Country: "Portugal"},
		Status:      events.StatusPublished,
	})
	require.NoError(t, err)
}

func TestToggleAlternatesState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "u1")
	f.seedEvent(t, "e1", time.Now())

	on, err := f.svc.Toggle(ctx, "u1", "e1")
	require.NoError(t, err)
	require.True(t, on.IsBookmarked)
	require.NotNil(t, on.BookmarkID)

	off, err := f.svc.Toggle(ctx, "u1", "e1")
	require.NoError(t, err)
	require.False(t, off.IsBookmarked)
	require.Nil(t, off.BookmarkID)

	onAgain, err := f.svc.Toggle(ctx, "u1", "e1")
	require.NoError(t, err)
	require.True(t, onAgain.IsBookmarked)
	require.NotEqual(t, *on.BookmarkID, *onAgain.BookmarkID, "re-bookmarking mints a fresh ledger row")
}

func TestToggleUnknownEvent(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1")

	_, err := f.svc.Toggle(context.Background(), "u1", "missing")

	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestToggleUnknownUser(t *testing.T) {
	f := newFixture(t)
	f.seedEvent(t, "e1", time.Now())

	_, err := f.svc.Toggle(context.Background(), "ghost", "e1")

	require.ErrorIs(t, err, users.ErrNotFound)
}

func TestListForUserNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "u1")
	base := time.Date(2024, 9, 1, 9, 0, 0, 0, time.UTC)
	f.seedEvent(t, "e1", base)
	f.seedEvent(t, "e2", base.Add(24*time.Hour))

	_, err := f.svc.Toggle(ctx, "u1", "e1")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = f.svc.Toggle(ctx, "u1", "e2")
	require.NoError(t, err)

	result, err := f.svc.ListForUser(ctx, "u1", bookmarks.Pagination{Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	require.Equal(t, "e2", result.Items[0].Event.ID, "most recently bookmarked first")
	require.Equal(t, "e1", result.Items[1].Event.ID)
	require.NotEmpty(t, result.Items[0].BookmarkID)
}

func TestListForUserCursorPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "u1")
	base := time.Date(2024, 9, 1, 9, 0, 0, 0, time.UTC)
	for _, id := range []string{"e1", "e2", "e3"} {
		f.seedEvent(t, id, base)
		_, err := f.svc.Toggle(ctx, "u1", id)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	first, err := f.svc.ListForUser(ctx, "u1", bookmarks.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := f.svc.ListForUser(ctx, "u1", bookmarks.Pagination{Limit: 2, After: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	require.Equal(t, "e1", second.Items[0].Event.ID)
	require.Empty(t, second.NextCursor)
}

func TestListForUserDropsDeletedEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "u1")
	f.seedEvent(t, "e1", time.Now())
	f.seedEvent(t, "e2", time.Now())

	_, err := f.svc.Toggle(ctx, "u1", "e1")
	require.NoError(t, err)
	_, err = f.svc.Toggle(ctx, "u1", "e2")
	require.NoError(t, err)

	require.NoError(t, f.events.Delete(ctx, "e1"))

	result, err := f.svc.ListForUser(ctx, "u1", bookmarks.Pagination{Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, "e2", result.Items[0].Event.ID)
}

func TestCountForEventsZeroFills(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "u1")
	f.seedUser(t, "u2")
	f.seedEvent(t, "e1", time.Now())
	f.seedEvent(t, "e2", time.Now())

	_, err := f.svc.Toggle(ctx, "u1", "e1")
	require.NoError(t, err)
	_, err = f.svc.Toggle(ctx, "u2", "e1")
	require.NoError(t, err)

	counts, err := f.svc.CountForEvents(ctx, []string{"e1", "e2", "ghost"})
	require.NoError(t, err)
	require.Equal(t, []bookmarks.EventCount{
		{EventID: "e1", Count: 2},
		{EventID: "e2", Count: 0},
		{EventID: "ghost", Count: 0},
	}, counts)
}

func TestStatusForEventsPerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "u1")
	f.seedUser(t, "u2")
	f.seedEvent(t, "e1", time.Now())
	f.seedEvent(t, "e2", time.Now())

	_, err := f.svc.Toggle(ctx, "u1", "e1")
	require.NoError(t, err)
	_, err = f.svc.Toggle(ctx, "u2", "e2")
	require.NoError(t, err)

	statuses, err := f.svc.StatusForEvents(ctx, "u1", []string{"e1", "e2", "ghost"})
	require.NoError(t, err)
	require.Equal(t, []bookmarks.EventStatus{
		{EventID: "e1", IsBookmarked: true},
		{EventID: "e2", IsBookmarked: false},
		{EventID: "ghost", IsBookmarked: false},
	}, statuses, "only the caller's own bookmarks count")

	empty, err := f.svc.StatusForEvents(ctx, "u1", nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestCountForEventEmpty(t *testing.T) {
	f := newFixture(t)

	counts, err := f.svc.CountForEvents(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, counts)

	count, err := f.svc.CountForEvent(context.Background(), "e1")
	require.NoError(t, err)
	require.Zero(t, count)
}
