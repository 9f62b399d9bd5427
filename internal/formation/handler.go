package formation

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"match-simulator/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Handler exposes team compactness endpoints.
type Handler struct {
	src PositionSource
	log *slog.Logger
}

// NewHandler returns a Handler reading positions from src. log may be nil.
func NewHandler(src PositionSource, log *slog.Logger) *Handler {
	return &Handler{src: src, log: logger.OrDiscard(log)}
}

// Routes registers the compactness endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/matches/{match_id}/teams/{team_id}", func(r chi.Router) {
		r.Get("/compactness", h.GetCompactness)
		r.Get("/compactness/series", h.GetSeries)
		r.Get("/formation.png", h.GetFormationPNG)
	})
}

// GetCompactness handles GET /matches/{match_id}/teams/{team_id}/compactness?timestamp=.
func (h *Handler) GetCompactness(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetFormationPNG handles GET /matches/{match_id}/teams/{team_id}/formation.png?timestamp=.
func (h *Handler) GetFormationPNG(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := Plot(&buf, snap); err != nil {
		h.log.Error("formation plot failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = buf.WriteTo(w)
}

// GetSeries handles GET /matches/{match_id}/teams/{team_id}/compactness/series?from=&to=.
func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	matchID, teamID := chi.URLParam(r, "match_id"), chi.URLParam(r, "team_id")
	q := r.URL.Query()
	res, err := Series(r.Context(), h.src, matchID, teamID, q.Get("from"), q.Get("to"))
	if err != nil {
		h.log.Error("compactness series failed",
			slog.String("match_id", matchID), slog.String("team_id", teamID), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) (Snapshot, bool) {
	matchID, teamID := chi.URLParam(r, "match_id"), chi.URLParam(r, "team_id")
	ts := r.URL.Query().Get("timestamp")
	if ts == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "timestamp is required"})
		return Snapshot{}, false
	}

	snap, err := At(r.Context(), h.src, matchID, teamID, ts)
	switch {
	case errors.Is(err, ErrNoPositions):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return Snapshot{}, false
	case err != nil:
		h.log.Error("team positions failed",
			slog.String("match_id", matchID), slog.String("team_id", teamID), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return Snapshot{}, false
	}
	return snap, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
