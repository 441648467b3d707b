package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrPermissionDenied = errors.New("permission denied")
	// ErrAdminExists is returned when bootstrap-first-admin runs after an
	// admin already exists.
	ErrAdminExists = errors.New("admin users already exist")
)

// Permissions mirrors the notification/contact grants reported by the wallet
// client.
type Permissions struct {
	Notifications bool `json:"notifications"`
	Contacts      bool `json:"contacts"`
}

type User struct {
	ID                string
	WalletAddress     string
	Username          *string
	ProfilePictureURL *string
	IsAdmin           bool
	Permissions       *Permissions
	AnalyticsOptIn    *bool
	AppVersion        *string
	DeviceOS          *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// UpsertParams creates a user on first login or patches profile fields on a
// returning one. Nil pointer fields are left untouched.
type UpsertParams struct {
	WalletAddress     string
	Username          *string
	ProfilePictureURL *string
	Permissions       *Permissions
	AnalyticsOptIn    *bool
	AppVersion        *string
	DeviceOS          *string
}

// ProfileUpdate patches profile fields on an existing user. Admin status is
// deliberately absent; it moves only through SetAdmin and PromoteFirstAdmin.
type ProfileUpdate struct {
	Username          *string
	ProfilePictureURL *string
	Permissions       *Permissions
	AnalyticsOptIn    *bool
	AppVersion        *string
	DeviceOS          *string
}

type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByWallet(ctx context.Context, walletAddress string) (*User, error)
	Upsert(ctx context.Context, params UpsertParams) (*User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*User, error)
	List(ctx context.Context) ([]User, error)
	Recent(ctx context.Context, limit int) ([]User, error)
	Count(ctx context.Context) (int64, error)
	CountAdmins(ctx context.Context) (int64, error)
	SetAdmin(ctx context.Context, id string, isAdmin bool) error
	// PromoteFirstAdmin flips is_admin on the given user only when no admin
	// exists, evaluated atomically with the write. Returns false when the
	// admin set was non-empty.
	PromoteFirstAdmin(ctx context.Context, id string) (bool, error)
}
