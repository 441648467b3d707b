package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/web3events/server/internal/api/problem"
	"github.com/web3events/server/internal/domain/bookmarks"
	"github.com/web3events/server/internal/domain/events"
	"github.com/web3events/server/internal/domain/ids"
)

type EventsHandler struct {
	Service   *events.Service
	Bookmarks *bookmarks.Service
	Env       string
}

func NewEventsHandler(service *events.Service, bookmarkSvc *bookmarks.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Bookmarks: bookmarkSvc, Env: env}
}

type eventResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Tagline       string          `json:"tagline"`
	Description   string          `json:"description"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	Location      events.Location `json:"location"`
	Kind          events.Kind     `json:"type"`
	LogoURL       *string         `json:"logo_url,omitempty"`
	Socials       []string        `json:"socials"`
	CreatedBy     *string         `json:"created_by,omitempty"`
	IsFeatured    bool            `json:"is_featured"`
	WorldApproved bool            `json:"world_approved"`
	Status        events.Status   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	BookmarkCount *int64          `json:"bookmark_count,omitempty"`
}

func toEventResponse(event events.Event) eventResponse {
	socials := event.Socials
	if socials == nil {
		socials = []string{}
	}
	return eventResponse{
		ID:            event.ID,
		Name:          event.Name,
		Tagline:       event.Tagline,
		Description:   event.Description,
		StartDate:     event.StartDate,
		EndDate:       event.EndDate,
		Location:      event.Location,
		Kind:          event.Kind,
		LogoURL:       event.LogoURL,
		Socials:       socials,
		CreatedBy:     event.CreatedBy,
		IsFeatured:    event.IsFeatured,
		WorldApproved: event.WorldApproved,
		Status:        event.Status,
		CreatedAt:     event.CreatedAt,
		UpdatedAt:     event.UpdatedAt,
	}
}

func toEventResponses(items []events.Event) []eventResponse {
	out := make([]eventResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toEventResponse(item))
	}
	return out
}

type eventListResponse struct {
	Items      []eventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, pagination, err := events.ParseFilters(r.URL.Query())
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request", err, h.Env)
		return
	}

	result, err := h.Service.List(r.Context(), filters, pagination)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, eventListResponse{
		Items:      toEventResponses(result.Events),
		NextCursor: result.NextCursor,
	})
}

func (h *EventsHandler) Featured(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.Featured(r.Context())
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, eventListResponse{Items: toEventResponses(items)})
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(pathParam(r, "id"))
	if err := ids.ValidateULID(id); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid event id", err, h.Env)
		return
	}

	event, err := h.Service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	response := toEventResponse(*event)
	if h.Bookmarks != nil {
		if count, err := h.Bookmarks.CountForEvent(r.Context(), id); err == nil {
			response.BookmarkCount = &count
		}
	}
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst any) error {
	defer func() { _ = r.Body.Close() }()
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return decoder.Decode(dst)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}
