// Package memory holds in-memory repository implementations backing unit
// tests. Semantics (uniqueness, CAS promotion, keyset pagination) mirror the
// postgres implementations.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/web3events/server/internal/domain/users"
)

type UserRepository struct {
	mu    sync.Mutex
	rows  map[string]users.User
	clock func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		rows:  make(map[string]users.User),
		clock: time.Now,
	}
}

var _ users.Repository = (*UserRepository)(nil)

func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &row, nil
}

func (r *UserRepository) GetByWallet(ctx context.Context, walletAddress string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.WalletAddress == walletAddress {
			row := row
			return &row, nil
		}
	}
	return nil, users.ErrNotFound
}

// Seed inserts a user directly, bypassing upsert defaults. Test setup only.
func (r *UserRepository) Seed(user users.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.clock()
	}
	user.UpdatedAt = user.CreatedAt
	r.rows[user.ID] = user
}

func (r *UserRepository) Upsert(ctx context.Context, params users.UpsertParams) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, row := range r.rows {
		if row.WalletAddress != params.WalletAddress {
			continue
		}
		applyProfile(&row, users.ProfileUpdate{
			Username:          params.Username,
			ProfilePictureURL: params.ProfilePictureURL,
			Permissions:       params.Permissions,
			AnalyticsOptIn:    params.AnalyticsOptIn,
			AppVersion:        params.AppVersion,
			DeviceOS:          params.DeviceOS,
		})
		row.UpdatedAt = r.clock()
		r.rows[id] = row
		return &row, nil
	}

	now := r.clock()
	row := users.User{
		ID:                newID(),
		WalletAddress:     params.WalletAddress,
		Username:          params.Username,
		ProfilePictureURL: params.ProfilePictureURL,
		Permissions:       params.Permissions,
		AnalyticsOptIn:    params.AnalyticsOptIn,
		AppVersion:        params.AppVersion,
		DeviceOS:          params.DeviceOS,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	r.rows[row.ID] = row
	return &row, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update users.ProfileUpdate) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	applyProfile(&row, update)
	row.UpdatedAt = r.clock()
	r.rows[id] = row
	return &row, nil
}

func applyProfile(row *users.User, update users.ProfileUpdate) {
	if update.Username != nil {
		row.Username = update.Username
	}
	if update.ProfilePictureURL != nil {
		row.ProfilePictureURL = update.ProfilePictureURL
	}
	if update.Permissions != nil {
		row.Permissions = update.Permissions
	}
	if update.AnalyticsOptIn != nil {
		row.AnalyticsOptIn = update.AnalyticsOptIn
	}
	if update.AppVersion != nil {
		row.AppVersion = update.AppVersion
	}
	if update.DeviceOS != nil {
		row.DeviceOS = update.DeviceOS
	}
}

func (r *UserRepository) List(ctx context.Context) ([]users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(), nil
}

func (r *UserRepository) Recent(ctx context.Context, limit int) ([]users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.sorted()
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *UserRepository) sorted() []users.User {
	rows := make([]users.User, 0, len(r.rows))
	for _, row := range r.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return rows
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *UserRepository) CountAdmins(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countAdminsLocked(), nil
}

func (r *UserRepository) countAdminsLocked() int64 {
	var count int64
	for _, row := range r.rows {
		if row.IsAdmin {
			count++
		}
	}
	return count
}

func (r *UserRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return users.ErrNotFound
	}
	row.IsAdmin = isAdmin
	row.UpdatedAt = r.clock()
	r.rows[id] = row
	return nil
}

func (r *UserRepository) PromoteFirstAdmin(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return false, users.ErrNotFound
	}
	if r.countAdminsLocked() > 0 {
		return false, nil
	}
	row.IsAdmin = true
	row.UpdatedAt = r.clock()
	r.rows[id] = row
	return true, nil
}
