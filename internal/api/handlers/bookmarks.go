package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/web3events/server/internal/api/middleware"
	"github.com/web3events/server/internal/api/problem"
	"github.com/web3events/server/internal/domain/bookmarks"
	"github.com/web3events/server/internal/domain/events"
	"github.com/web3events/server/internal/domain/ids"
	"github.com/web3events/server/internal/domain/users"
	"github.com/web3events/server/internal/metrics"
)

type BookmarksHandler struct {
	Service *bookmarks.Service
	Env     string
}

func NewBookmarksHandler(service *bookmarks.Service, env string) *BookmarksHandler {
	return &BookmarksHandler{Service: service, Env: env}
}

type toggleRequest struct {
	EventID string `json:"event_id"`
}

// Toggle flips the caller's bookmark for an event.
func (h *BookmarksHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.CallerIdentity(r)
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeAuthenticationRequired, "Authentication required", problem.ErrUnauthorized, h.Env)
		return
	}

	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request body", err, h.Env)
		return
	}
	if err := ids.ValidateULID(req.EventID); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid event id", err, h.Env)
		return
	}

	result, err := h.Service.Toggle(r.Context(), identity.UserID, req.EventID)
	if err != nil {
		switch {
		case errors.Is(err, events.ErrNotFound), errors.Is(err, users.ErrNotFound):
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
		case errors.Is(err, bookmarks.ErrConflict):
			problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Bookmark already exists", err, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		}
		return
	}

	state := "removed"
	if result.IsBookmarked {
		state = "bookmarked"
	}
	metrics.BookmarkToggles.WithLabelValues(state).Inc()

	writeJSON(w, http.StatusOK, result)
}

type bookmarkedEventResponse struct {
	Event        eventResponse `json:"event"`
	BookmarkID   string        `json:"bookmark_id"`
	BookmarkedAt time.Time     `json:"bookmarked_at"`
}

type bookmarkListResponse struct {
	Items      []bookmarkedEventResponse `json:"items"`
	NextCursor string                    `json:"next_cursor,omitempty"`
}

// List returns the caller's bookmarked events, most recent first.
func (h *BookmarksHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.CallerIdentity(r)
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeAuthenticationRequired, "Authentication required", problem.ErrUnauthorized, h.Env)
		return
	}

	pagination, err := parseBookmarkPagination(r)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request", err, h.Env)
		return
	}

	result, err := h.Service.ListForUser(r.Context(), identity.UserID, pagination)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	items := make([]bookmarkedEventResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, bookmarkedEventResponse{
			Event:        toEventResponse(item.Event),
			BookmarkID:   item.BookmarkID,
			BookmarkedAt: item.BookmarkedAt,
		})
	}
	writeJSON(w, http.StatusOK, bookmarkListResponse{Items: items, NextCursor: result.NextCursor})
}

func parseBookmarkPagination(r *http.Request) (bookmarks.Pagination, error) {
	pagination := bookmarks.Pagination{Limit: 50, After: strings.TrimSpace(r.URL.Query().Get("cursor"))}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return bookmarks.Pagination{}, events.FilterError{Field: "limit", Message: "must be a positive integer"}
		}
		if limit > 100 {
			limit = 100
		}
		pagination.Limit = limit
	}
	return pagination, nil
}

type statusRequest struct {
	EventIDs []string `json:"event_ids"`
}

type statusResponse struct {
	Statuses []bookmarks.EventStatus `json:"statuses"`
}

// Status reports the caller's own bookmark state for a batch of events, so
// listings can render the bookmark indicator without a request per event.
func (h *BookmarksHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.CallerIdentity(r)
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeAuthenticationRequired, "Authentication required", problem.ErrUnauthorized, h.Env)
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request body", err, h.Env)
		return
	}
	if len(req.EventIDs) == 0 || len(req.EventIDs) > 100 {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request", events.FilterError{Field: "event_ids", Message: "must contain between 1 and 100 ids"}, h.Env)
		return
	}
	for _, id := range req.EventIDs {
		if err := ids.ValidateULID(id); err != nil {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid event id", err, h.Env)
			return
		}
	}

	statuses, err := h.Service.StatusForEvents(r.Context(), identity.UserID, req.EventIDs)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Statuses: statuses})
}

type eventCountResponse struct {
	EventID string `json:"event_id"`
	Count   int64  `json:"count"`
}

// Count returns the bookmark total for one event.
func (h *BookmarksHandler) Count(w http.ResponseWriter, r *http.Request) {
	eventID := pathParam(r, "id")
	if err := ids.ValidateULID(eventID); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid event id", err, h.Env)
		return
	}

	count, err := h.Service.CountForEvent(r.Context(), eventID)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, eventCountResponse{EventID: eventID, Count: count})
}

type countsRequest struct {
	EventIDs []string `json:"event_ids"`
}

type countsResponse struct {
	Counts []bookmarks.EventCount `json:"counts"`
}

// Counts returns bookmark totals for a batch of events. Unknown ids come back
// with a zero count.
func (h *BookmarksHandler) Counts(w http.ResponseWriter, r *http.Request) {
	var req countsRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request body", err, h.Env)
		return
	}
	if len(req.EventIDs) == 0 || len(req.EventIDs) > 100 {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request", events.FilterError{Field: "event_ids", Message: "must contain between 1 and 100 ids"}, h.Env)
		return
	}
	for _, id := range req.EventIDs {
		if err := ids.ValidateULID(id); err != nil {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid event id", err, h.Env)
			return
		}
	}

	counts, err := h.Service.CountForEvents(r.Context(), req.EventIDs)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, countsResponse{Counts: counts})
}
