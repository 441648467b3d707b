package users_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/web3events/server/internal/domain/users"
	"github.com/web3events/server/internal/storage/memory"
)

func newService(t *testing.T) (*users.Service, *memory.UserRepository) {
	t.Helper()
	repo := memory.NewUserRepository()
	return users.NewService(repo, false, zerolog.Nop()), repo
}

func str(s string) *string { return &s }

func TestUpsertByWalletCreatesThenPatches(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.UpsertByWallet(ctx, users.UpsertParams{
		WalletAddress: "0xAbC0000000000000000000000000000000000001",
		Username:      str("alice"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.IsAdmin)
	require.Equal(t, "alice", *created.Username)

	returned, err := svc.UpsertByWallet(ctx, users.UpsertParams{
		WalletAddress: "0xAbC0000000000000000000000000000000000001",
		AppVersion:    str("1.2.0"),
	})
	require.NoError(t, err)
	require.Equal(t, created.ID, returned.ID)
	require.Equal(t, "alice", *returned.Username, "absent fields stay untouched")
	require.Equal(t, "1.2.0", *returned.AppVersion)
}

func TestUpsertByWalletRequiresAddress(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.UpsertByWallet(context.Background(), users.UpsertParams{})

	require.Error(t, err)
}

func TestUpsertByWalletSanitizesUsername(t *testing.T) {
	svc, _ := newService(t)

	created, err := svc.UpsertByWallet(context.Background(), users.UpsertParams{
		WalletAddress: "0xAbC0000000000000000000000000000000000002",
		Username:      str("bob<script>alert(1)</script>"),
	})

	require.NoError(t, err)
	require.Equal(t, "bob", *created.Username)
}

func TestBootstrapFirstAdminPromotesOnlyOnce(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	repo.Seed(users.User{ID: "u1", WalletAddress: "0x01"})
	repo.Seed(users.User{ID: "u2", WalletAddress: "0x02"})

	require.NoError(t, svc.BootstrapFirstAdmin(ctx, "u1"))

	first, err := svc.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.True(t, first.IsAdmin)

	err = svc.BootstrapFirstAdmin(ctx, "u2")
	require.ErrorIs(t, err, users.ErrAdminExists)

	second, err := svc.GetByID(ctx, "u2")
	require.NoError(t, err)
	require.False(t, second.IsAdmin)
}

func TestBootstrapFirstAdminConcurrentRace(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	repo.Seed(users.User{ID: "u1", WalletAddress: "0x01"})
	repo.Seed(users.User{ID: "u2", WalletAddress: "0x02"})

	errs := make(chan error, 2)
	var start sync.WaitGroup
	start.Add(1)
	for _, id := range []string{"u1", "u2"} {
		go func(id string) {
			start.Wait()
			errs <- svc.BootstrapFirstAdmin(ctx, id)
		}(id)
	}
	start.Done()

	var succeeded int
	for i := 0; i < 2; i++ {
		if err := <-errs; err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, users.ErrAdminExists)
		}
	}
	require.Equal(t, 1, succeeded, "exactly one racer becomes admin")

	admins, err := repo.CountAdmins(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), admins)
}

func TestBootstrapFirstAdminUnknownUser(t *testing.T) {
	svc, _ := newService(t)

	err := svc.BootstrapFirstAdmin(context.Background(), "missing")

	require.ErrorIs(t, err, users.ErrNotFound)
}

func TestRequireAdmin(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	repo.Seed(users.User{ID: "admin", WalletAddress: "0x01", IsAdmin: true})
	repo.Seed(users.User{ID: "plain", WalletAddress: "0x02"})

	require.NoError(t, svc.RequireAdmin(ctx, "admin"))
	require.ErrorIs(t, svc.RequireAdmin(ctx, "plain"), users.ErrPermissionDenied)
	require.ErrorIs(t, svc.RequireAdmin(ctx, "missing"), users.ErrPermissionDenied)
}

func TestRequireAdminDevBypass(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := users.NewService(repo, true, zerolog.Nop())

	require.NoError(t, svc.RequireAdmin(context.Background(), "anyone"))
}

func TestSetAdminRequiresAdminCaller(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	repo.Seed(users.User{ID: "admin", WalletAddress: "0x01", IsAdmin: true})
	repo.Seed(users.User{ID: "target", WalletAddress: "0x02"})

	err := svc.SetAdmin(ctx, "target", "target", true)
	require.ErrorIs(t, err, users.ErrPermissionDenied)

	require.NoError(t, svc.SetAdmin(ctx, "admin", "target", true))
	target, err := svc.GetByID(ctx, "target")
	require.NoError(t, err)
	require.True(t, target.IsAdmin)

	require.NoError(t, svc.SetAdmin(ctx, "admin", "target", false))
	target, err = svc.GetByID(ctx, "target")
	require.NoError(t, err)
	require.False(t, target.IsAdmin)
}

func TestSetAdminUnknownTarget(t *testing.T) {
	svc, repo := newService(t)
	repo.Seed(users.User{ID: "admin", WalletAddress: "0x01", IsAdmin: true})

	err := svc.SetAdmin(context.Background(), "admin", "missing", true)

	require.ErrorIs(t, err, users.ErrNotFound)
}

func TestListRequiresAdmin(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	repo.Seed(users.User{ID: "admin", WalletAddress: "0x01", IsAdmin: true})
	repo.Seed(users.User{ID: "plain", WalletAddress: "0x02"})

	_, err := svc.List(ctx, "plain")
	require.ErrorIs(t, err, users.ErrPermissionDenied)

	listed, err := svc.List(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, listed, 2)
}
