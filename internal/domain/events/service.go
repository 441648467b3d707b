package events

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultLimit  = 50
	maxLimit      = 100
	featuredLimit = 6
)

// Service serves the public, read-only side of the catalog. Listing queries
// only ever see published events; drafts and archived events are reachable
// through the admin service.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns published events ascending by start date.
func (s *Service) List(ctx context.Context, filters Filters, pagination Pagination) (ListResult, error) {
	filters.Status = StatusPublished
	filters.NewestFirst = false
	return s.repo.List(ctx, filters, pagination)
}

// Get returns a single event by id regardless of status; the detail view is
// only linked from listings, so unpublished events are not discoverable but
// remain addressable by admins.
func (s *Service) Get(ctx context.Context, id string) (*Event, error) {
	return s.repo.Get(ctx, id)
}

// Featured returns up to six featured published events for the homepage.
func (s *Service) Featured(ctx context.Context) ([]Event, error) {
	return s.repo.Featured(ctx, featuredLimit)
}

type FilterError struct {
	Field   string
	Message string
}

func (e FilterError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ParseFilters parses public listing query parameters.
func ParseFilters(values url.Values) (Filters, Pagination, error) {
	filters := Filters{}
	pagination := Pagination{Limit: defaultLimit}

	filters.Country = strings.TrimSpace(values.Get("country"))
	filters.Query = strings.TrimSpace(values.Get("q"))

	kind := strings.TrimSpace(strings.ToLower(values.Get("type")))
	switch kind {
	case "", "conference", "hackathon":
		filters.Kind = kind
	default:
		return filters, pagination, FilterError{Field: "type", Message: "must be conference or hackathon"}
	}

	if raw := strings.TrimSpace(values.Get("featured")); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, pagination, FilterError{Field: "featured", Message: "must be a boolean"}
		}
		filters.Featured = &featured
	}

	limit, err := parseLimit(values)
	if err != nil {
		return filters, pagination, err
	}
	pagination.Limit = limit

	pagination.After = strings.TrimSpace(values.Get("after"))

	return filters, pagination, nil
}

func parseLimit(values url.Values) (int, error) {
	raw := strings.TrimSpace(values.Get("limit"))
	if raw == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, FilterError{Field: "limit", Message: "must be a positive integer"}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, nil
}
