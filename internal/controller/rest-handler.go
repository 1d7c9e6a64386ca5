package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sharetube/watchparty/internal/search"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/rest"
)

func (c controller) health(w http.ResponseWriter, _ *http.Request) {
	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"status": "healthy"})
}

type searchVideosQuery struct {
	Query     string `json:"query" validate:"required,max=200"`
	Source    string `json:"source" validate:"omitempty,oneof=youtube dailymotion"`
	PageToken string `json:"pageToken" validate:"max=200"`
}

func (c controller) searchVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := searchVideosQuery{
		Query:     q.Get("query"),
		Source:    q.Get("source"),
		PageToken: q.Get("pageToken"),
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		c.logger.DebugContext(r.Context(), "invalid search query", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	source := search.Source(req.Source)
	if source == "" {
		source = search.SourceYouTube
	}

	page, err := c.searchService.Search(r.Context(), req.Query, source, req.PageToken)
	if err != nil {
		switch {
		case errors.Is(err, search.ErrEmptyQuery):
			rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		case errors.Is(err, search.ErrUnsupportedSource):
			rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		case errors.Is(err, search.ErrNotConfigured):
			rest.WriteJSON(w, http.StatusServiceUnavailable, rest.Envelope{"error": "search source not configured"})
		default:
			c.logger.WarnContext(r.Context(), "failed to search videos", "error", err)
			rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to search videos"})
		}
		return
	}

	rest.WriteJSON(w, http.StatusOK, page)
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	state, err := c.roomService.GetRoomState(r.Context(), roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
			return
		}

		c.logger.WarnContext(r.Context(), "failed to get room state", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, state)
}

type updateRoomContextRequest struct {
	Context string `json:"context" validate:"max=4000"`
}

func (c controller) updateRoomContext(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	var req updateRoomContextRequest
	if err := rest.ReadJSON(w, r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	if err := c.roomService.UpdateMovieContext(r.Context(), &room.UpdateMovieContextParams{
		RoomId:  roomId,
		Context: req.Context,
	}); err != nil {
		switch {
		case errors.Is(err, room.ErrRoomNotFound):
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		case errors.Is(err, room.ErrInvalidInput):
			rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		default:
			c.logger.WarnContext(r.Context(), "failed to update room context", "error", err)
			rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
