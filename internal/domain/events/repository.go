package events

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("event not found")

// Status is the event lifecycle state. Transitions are free-form admin
// edits; nothing moves automatically.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Location is the city/country pair shown on event cards.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Kind flags an event as conference, hackathon, or both.
type Kind struct {
	Conference bool `json:"conference"`
	Hackathon  bool `json:"hackathon"`
}

type Event struct {
	ID            string
	Name          string
	Tagline       string
	Description   string
	StartDate     time.Time
	EndDate       time.Time
	Location      Location
	Kind          Kind
	LogoURL       *string
	Socials       []string
	CreatedBy     *string
	IsFeatured    bool
	WorldApproved bool
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CreateParams struct {
	ID            string
	Name          string
	Tagline       string
	Description   string
	StartDate     time.Time
	EndDate       time.Time
	Location      Location
	Kind          Kind
	LogoURL       *string
	Socials       []string
	CreatedBy     *string
	IsFeatured    bool
	WorldApproved bool
	Status        Status
}

// UpdateParams is a partial-field patch; nil fields are left untouched.
type UpdateParams struct {
	Name          *string
	Tagline       *string
	Description   *string
	StartDate     *time.Time
	EndDate       *time.Time
	Location      *Location
	Kind          *Kind
	LogoURL       *string
	Socials       []string
	IsFeatured    *bool
	WorldApproved *bool
	Status        *Status
}

// Filters narrow listing queries. Query is a case-insensitive substring match
// across name, tagline, and description.
type Filters struct {
	Status      Status
	Country     string
	Kind        string
	Query       string
	Featured    *bool
	NewestFirst bool
}

type Pagination struct {
	Limit int
	After string
}

type ListResult struct {
	Events     []Event
	NextCursor string
}

type StatusCounts struct {
	Total     int64
	Published int64
	Draft     int64
	Archived  int64
}

type Repository interface {
	List(ctx context.Context, filters Filters, pagination Pagination) (ListResult, error)
	Get(ctx context.Context, id string) (*Event, error)
	Create(ctx context.Context, params CreateParams) (*Event, error)
	Update(ctx context.Context, id string, params UpdateParams) (*Event, error)
	Delete(ctx context.Context, id string) error
	ListByCreator(ctx context.Context, userID string) ([]Event, error)
	Featured(ctx context.Context, limit int) ([]Event, error)
	// BulkSetStatus and BulkDelete skip ids that no longer exist and report
	// how many rows they touched.
	BulkSetStatus(ctx context.Context, ids []string, status Status) (int64, error)
	BulkDelete(ctx context.Context, ids []string) (int64, error)
	Count(ctx context.Context) (StatusCounts, error)
	Recent(ctx context.Context, limit int) ([]Event, error)
}
