package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/web3events/server/internal/api/middleware"
	"github.com/web3events/server/internal/api/problem"
	"github.com/web3events/server/internal/domain/events"
	"github.com/web3events/server/internal/domain/ids"
	"github.com/web3events/server/internal/domain/users"
)

type AdminHandler struct {
	Events *events.AdminService
	Users  *users.Service
	Env    string
}

func NewAdminHandler(eventSvc *events.AdminService, userSvc *users.Service, env string) *AdminHandler {
	return &AdminHandler{Events: eventSvc, Users: userSvc, Env: env}
}

func (h *AdminHandler) caller(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	identity, ok := middleware.CallerIdentity(r)
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeAuthenticationRequired, "Authentication required", problem.ErrUnauthorized, h.Env)
	}
	return identity, ok
}

func (h *AdminHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr events.ValidationError
	var filterErr events.FilterError
	switch {
	case errors.Is(err, users.ErrPermissionDenied):
		problem.Write(w, r, http.StatusForbidden, problem.TypePermissionDenied, "Permission denied", err, h.Env)
	case errors.Is(err, events.ErrNotFound), errors.Is(err, users.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
	case errors.As(err, &validationErr), errors.As(err, &filterErr):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request", err, h.Env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
	}
}

// ListEvents returns events across all statuses, newest first.
func (h *AdminHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	status := events.Status(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" && !status.Valid() {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request", events.FilterError{Field: "status", Message: "must be draft, published, or archived"}, h.Env)
		return
	}

	pagination, err := parseAdminPagination(r)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request", err, h.Env)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))

	result, err := h.Events.List(r.Context(), identity.UserID, status, query, pagination)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, eventListResponse{
		Items:      toEventResponses(result.Events),
		NextCursor: result.NextCursor,
	})
}

func parseAdminPagination(r *http.Request) (events.Pagination, error) {
	pagination := events.Pagination{Limit: 50, After: strings.TrimSpace(r.URL.Query().Get("cursor"))}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return events.Pagination{}, events.FilterError{Field: "limit", Message: "must be a positive integer"}
		}
		if limit > 100 {
			limit = 100
		}
		pagination.Limit = limit
	}
	return pagination, nil
}

func (h *AdminHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	var input events.EventInput
	if err := decodeJSON(r, &input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request body", err, h.Env)
		return
	}

	event, err := h.Events.Create(r.Context(), identity.UserID, input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEventResponse(*event))
}

func (h *AdminHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	id := strings.TrimSpace(pathParam(r, "id"))
	if err := ids.ValidateULID(id); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid event id", err, h.Env)
		return
	}

	var patch events.EventPatch
	if err := decodeJSON(r, &patch); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request body", err, h.Env)
		return
	}

	event, err := h.Events.Update(r.Context(), identity.UserID, id, patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(*event))
}

func (h *AdminHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	id := strings.TrimSpace(pathParam(r, "id"))
	if err := ids.ValidateULID(id); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid event id", err, h.Env)
		return
	}

	if err := h.Events.Delete(r.Context(), identity.UserID, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.Events.ToggleFeatured)
}

func (h *AdminHandler) ToggleApproved(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.Events.ToggleApproved)
}

func (h *AdminHandler) toggle(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, callerID, id string) (*events.Event, error)) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	id := strings.TrimSpace(pathParam(r, "id"))
	if err := ids.ValidateULID(id); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid event id", err, h.Env)
		return
	}

	event, err := fn(r.Context(), identity.UserID, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(*event))
}

type bulkStatusRequest struct {
	EventIDs []string      `json:"event_ids"`
	Status   events.Status `json:"status"`
}

type bulkResponse struct {
	Affected int64 `json:"affected"`
}

// BulkSetStatus updates status on a batch of events. Ids that no longer exist
// are skipped; the response reports how many rows changed.
func (h *AdminHandler) BulkSetStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req bulkStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request body", err, h.Env)
		return
	}
	if err := validateBulkIDs(req.EventIDs); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request", err, h.Env)
		return
	}

	affected, err := h.Events.BulkSetStatus(r.Context(), identity.UserID, req.EventIDs, req.Status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, bulkResponse{Affected: affected})
}

type bulkDeleteRequest struct {
	EventIDs []string `json:"event_ids"`
}

func (h *AdminHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request body", err, h.Env)
		return
	}
	if err := validateBulkIDs(req.EventIDs); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request", err, h.Env)
		return
	}

	affected, err := h.Events.BulkDelete(r.Context(), identity.UserID, req.EventIDs)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, bulkResponse{Affected: affected})
}

func validateBulkIDs(eventIDs []string) error {
	if len(eventIDs) == 0 || len(eventIDs) > 100 {
		return events.FilterError{Field: "event_ids", Message: "must contain between 1 and 100 ids"}
	}
	for _, id := range eventIDs {
		if err := ids.ValidateULID(id); err != nil {
			return events.FilterError{Field: "event_ids", Message: "contains an invalid id"}
		}
	}
	return nil
}

// ListUsers returns every user, newest first.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	list, err := h.Users.List(r.Context(), identity.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	items := make([]userResponse, 0, len(list))
	for _, user := range list {
		items = append(items, toUserResponse(user))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type setAdminRequest struct {
	IsAdmin bool `json:"is_admin"`
}

func (h *AdminHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	targetID := strings.TrimSpace(pathParam(r, "id"))
	if err := ids.ValidateULID(targetID); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid user id", err, h.Env)
		return
	}

	var req setAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request body", err, h.Env)
		return
	}

	if err := h.Users.SetAdmin(r.Context(), identity.UserID, targetID, req.IsAdmin); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	user, err := h.Users.GetByID(r.Context(), targetID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(*user))
}

// EventsByCreator lists the events a given user created.
func (h *AdminHandler) EventsByCreator(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	creatorID := strings.TrimSpace(pathParam(r, "id"))
	if err := ids.ValidateULID(creatorID); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid user id", err, h.Env)
		return
	}

	list, err := h.Events.ListByCreator(r.Context(), identity.UserID, creatorID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, eventListResponse{Items: toEventResponses(list)})
}

// recentStatsLimit caps the recent-events and recent-users lists on the
// dashboard.
const recentStatsLimit = 10

type statsResponse struct {
	Events       events.StatusCounts `json:"events"`
	TotalUsers   int64               `json:"total_users"`
	TotalAdmins  int64               `json:"total_admins"`
	RecentEvents []eventResponse     `json:"recent_events"`
	RecentUsers  []userResponse      `json:"recent_users"`
}

// Stats aggregates the dashboard counters. The independent queries run
// concurrently.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.Users.RequireAdmin(r.Context(), identity.UserID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	var stats statsResponse
	group, ctx := errgroup.WithContext(r.Context())

	group.Go(func() error {
		counts, err := h.Events.Counts(ctx)
		if err != nil {
			return err
		}
		stats.Events = counts
		return nil
	})
	group.Go(func() error {
		total, err := h.Users.CountUsers(ctx)
		if err != nil {
			return err
		}
		stats.TotalUsers = total
		return nil
	})
	group.Go(func() error {
		total, err := h.Users.CountAdmins(ctx)
		if err != nil {
			return err
		}
		stats.TotalAdmins = total
		return nil
	})
	group.Go(func() error {
		recent, err := h.Events.Recent(ctx, recentStatsLimit)
		if err != nil {
			return err
		}
		stats.RecentEvents = toEventResponses(recent)
		return nil
	})
	group.Go(func() error {
		recent, err := h.Users.Recent(ctx, recentStatsLimit)
		if err != nil {
			return err
		}
		items := make([]userResponse, 0, len(recent))
		for _, user := range recent {
			items = append(items, toUserResponse(user))
		}
		stats.RecentUsers = items
		return nil
	})

	if err := group.Wait(); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

type seedResponse struct {
	Seeded int `json:"seeded"`
}

// Seed loads the sample catalog into an empty events table.
func (h *AdminHandler) Seed(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.Users.RequireAdmin(r.Context(), identity.UserID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	inserted, err := h.Events.SeedSampleEvents(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, seedResponse{Seeded: inserted})
}
