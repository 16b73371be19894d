package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/voyagen/drtvfeed/internal/models"
	"github.com/voyagen/drtvfeed/internal/store"
)

const maxHistoryLimit = 100

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.latest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// channelView is a record annotated with the display name it is keyed by.
type channelView struct {
	Name string `json:"name"`
	*models.ChannelRecord
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.latest(w, r)
	if !ok {
		return
	}
	out := make([]channelView, 0, len(snap.Attributes.Channels))
	for name, rec := range snap.Attributes.Channels {
		out = append(out, channelView{Name: name, ChannelRecord: rec})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetChannel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	snap, ok := s.latest(w, r)
	if !ok {
		return
	}
	rec, found := snap.Attributes.Channels[name]
	if !found {
		writeErr(w, http.StatusNotFound, fmt.Errorf("channel %q not found", name))
		return
	}
	writeJSON(w, http.StatusOK, channelView{Name: name, ChannelRecord: rec})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %s", v))
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	history, err := s.store.History(r.Context(), s.cfg.Publish.EntityID, limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if history == nil {
		history = []models.Snapshot{}
	}
	writeJSON(w, http.StatusOK, history)
}

type refreshResponse struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresh == nil {
		writeErr(w, http.StatusServiceUnavailable, errors.New("manual refresh is not configured"))
		return
	}
	id, err := s.refresh(r.Context(), "api")
	if err != nil {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("enqueue refresh: %w", err))
		return
	}
	writeJSON(w, http.StatusAccepted, refreshResponse{Status: "accepted", JobID: id})
}

// latest loads the current snapshot, writing the error response itself when
// it returns false.
func (s *Server) latest(w http.ResponseWriter, r *http.Request) (*models.Snapshot, bool) {
	snap, err := s.store.Latest(r.Context(), s.cfg.Publish.EntityID)
	if errors.Is(err, store.ErrNotFound) {
		writeErr(w, http.StatusNotFound, errors.New("no state published yet"))
		return nil, false
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return snap, true
}

// APIError is the standard error envelope for all error responses.
type APIError struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, APIError{
		Status: status,
		Error:  http.StatusText(status),
		Detail: err.Error(),
	})
}
