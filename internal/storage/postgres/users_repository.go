package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/web3events/server/internal/domain/ids"
	"github.com/web3events/server/internal/domain/users"
)

const userColumns = `id, wallet_address, username, profile_picture_url, is_admin,
       permissions, analytics_opt_in, app_version, device_os, created_at, updated_at`

func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT `+userColumns+`
  FROM users
 WHERE id = $1
`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByWallet(ctx context.Context, walletAddress string) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT `+userColumns+`
  FROM users
 WHERE wallet_address = $1
`, walletAddress)
	return scanUser(row)
}

func (r *UserRepository) Upsert(ctx context.Context, params users.UpsertParams) (*users.User, error) {
	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint user id: %w", err)
	}
	permissions, err := marshalPermissions(params.Permissions)
	if err != nil {
		return nil, err
	}

	row := r.queryer().QueryRow(ctx, `
INSERT INTO users (id, wallet_address, username, profile_picture_url,
                   permissions, analytics_opt_in, app_version, device_os)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (wallet_address) DO UPDATE SET
    username            = COALESCE(EXCLUDED.username, users.username),
    profile_picture_url = COALESCE(EXCLUDED.profile_picture_url, users.profile_picture_url),
    permissions         = COALESCE(EXCLUDED.permissions, users.permissions),
    analytics_opt_in    = COALESCE(EXCLUDED.analytics_opt_in, users.analytics_opt_in),
    app_version         = COALESCE(EXCLUDED.app_version, users.app_version),
    device_os           = COALESCE(EXCLUDED.device_os, users.device_os),
    updated_at          = now()
RETURNING `+userColumns+`
`, id, params.WalletAddress, params.Username, params.ProfilePictureURL,
		permissions, params.AnalyticsOptIn, params.AppVersion, params.DeviceOS)
	return scanUser(row)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update users.ProfileUpdate) (*users.User, error) {
	permissions, err := marshalPermissions(update.Permissions)
	if err != nil {
		return nil, err
	}

	row := r.queryer().QueryRow(ctx, `
UPDATE users SET
    username            = COALESCE($2, username),
    profile_picture_url = COALESCE($3, profile_picture_url),
    permissions         = COALESCE($4, permissions),
    analytics_opt_in    = COALESCE($5, analytics_opt_in),
    app_version         = COALESCE($6, app_version),
    device_os           = COALESCE($7, device_os),
    updated_at          = now()
 WHERE id = $1
RETURNING `+userColumns+`
`, id, update.Username, update.ProfilePictureURL, permissions,
		update.AnalyticsOptIn, update.AppVersion, update.DeviceOS)
	return scanUser(row)
}

func (r *UserRepository) List(ctx context.Context) ([]users.User, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+userColumns+`
  FROM users
 ORDER BY created_at DESC, id DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *UserRepository) Recent(ctx context.Context, limit int) ([]users.User, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+userColumns+`
  FROM users
 ORDER BY created_at DESC, id DESC
 LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent users: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.queryer().QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (r *UserRepository) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	if err := r.queryer().QueryRow(ctx, `SELECT count(*) FROM users WHERE is_admin`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}

func (r *UserRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	tag, err := r.queryer().Exec(ctx, `
UPDATE users SET is_admin = $2, updated_at = now() WHERE id = $1
`, id, isAdmin)
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

// PromoteFirstAdmin is a single compare-and-set statement so two concurrent
// bootstrap calls cannot both win.
func (r *UserRepository) PromoteFirstAdmin(ctx context.Context, id string) (bool, error) {
	tag, err := r.queryer().Exec(ctx, `
UPDATE users SET is_admin = TRUE, updated_at = now()
 WHERE id = $1
   AND NOT EXISTS (SELECT 1 FROM users WHERE is_admin)
`, id)
	if err != nil {
		return false, fmt.Errorf("promote first admin: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func marshalPermissions(permissions *users.Permissions) ([]byte, error) {
	if permissions == nil {
		return nil, nil
	}
	data, err := json.Marshal(permissions)
	if err != nil {
		return nil, fmt.Errorf("marshal permissions: %w", err)
	}
	return data, nil
}

func scanUser(row pgx.Row) (*users.User, error) {
	var (
		user        users.User
		permissions []byte
		createdAt   time.Time
		updatedAt   time.Time
	)
	if err := row.Scan(
		&user.ID,
		&user.WalletAddress,
		&user.Username,
		&user.ProfilePictureURL,
		&user.IsAdmin,
		&permissions,
		&user.AnalyticsOptIn,
		&user.AppVersion,
		&user.DeviceOS,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if len(permissions) > 0 {
		var decoded users.Permissions
		if err := json.Unmarshal(permissions, &decoded); err != nil {
			return nil, fmt.Errorf("decode permissions: %w", err)
		}
		user.Permissions = &decoded
	}
	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt
	return &user, nil
}

func collectUsers(rows pgx.Rows) ([]users.User, error) {
	var out []users.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}
