package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"match-simulator/internal/platform/clock"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// FrameRenderer draws a payload as a PNG image.
type FrameRenderer interface {
	WritePNG(w io.Writer, title string, p RenderPayload) error
}

// Handler exposes simulator HTTP endpoints using go-chi.
type Handler struct {
	svc      *Service
	renderer FrameRenderer
	clock    clock.Clock
	log      *slog.Logger
}

// NewHandler returns a Handler that uses the given Service, renderer and Logger.
// A nil renderer disables the PNG endpoint. Streams are paced by the real clock.
func NewHandler(svc *Service, renderer FrameRenderer, log *slog.Logger) *Handler {
	return &Handler{svc: svc, renderer: renderer, clock: clock.Real{}, log: log}
}

// SetClock replaces the clock used to pace websocket streams.
func (h *Handler) SetClock(c clock.Clock) {
	h.clock = c
}

// Routes registers the session and playback endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/matches/{match_id}/sessions", h.StartSession)
	r.Route("/sessions/{session_id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.EndSession)
		r.Get("/timeline", h.GetTimeline)
		r.Post("/tick", h.Tick)
		r.Get("/frame.png", h.GetFramePNG)
		r.Get("/stream", h.Stream)
	})
}

// startSessionRequest is the optional body of POST /matches/{match_id}/sessions.
type startSessionRequest struct {
	FPS           int    `json:"fps"`
	StartFrame    *int64 `json:"start_frame"`
	EndFrame      *int64 `json:"end_frame"`
	MaxRealFrames int    `json:"max_real_frames"`
}

// StartSession handles POST /matches/{match_id}/sessions.
// Body (optional): { "fps": 15, "start_frame": 1, "end_frame": 300, "max_real_frames": 300 }.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "match_id")
	if matchID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var req startSessionRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.log.Debug("invalid session body", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
	}

	info, err := h.svc.StartSession(r.Context(), matchID, SessionOptions{
		FPS:           req.FPS,
		Range:         FrameRange{Start: req.StartFrame, End: req.EndFrame},
		MaxRealFrames: req.MaxRealFrames,
	})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrMatchNotFound):
			status = http.StatusNotFound
		case errors.Is(err, ErrInsufficientData):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, ErrInvalidOptions):
			status = http.StatusBadRequest
		}
		if status == http.StatusInternalServerError {
			h.log.Error("start session failed", slog.String("match_id", matchID), slog.String("error", err.Error()))
		} else {
			h.log.Info("session rejected", slog.String("match_id", matchID), slog.String("error", err.Error()))
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, info)
}

// GetSession handles GET /sessions/{session_id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Session(sessionParam(r))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// GetTimeline handles GET /sessions/{session_id}/timeline.
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	id := sessionParam(r)
	frames, err := h.svc.Timeline(id)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	info, _ := h.svc.Session(id)
	writeJSON(w, http.StatusOK, struct {
		Session SessionInfo `json:"session"`
		Frames  []Frame     `json:"frames"`
	}{info, frames})
}

// tickResponse is the JSON form of a TickResult.
type tickResponse struct {
	Status  TickStatus    `json:"status"`
	Cursor  int           `json:"cursor"`
	Payload RenderPayload `json:"payload"`
	Error   string        `json:"error,omitempty"`
}

// Tick handles POST /sessions/{session_id}/tick.
func (h *Handler) Tick(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Tick(sessionParam(r))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	out := tickResponse{Status: res.Status, Cursor: res.Cursor, Payload: res.Payload}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

// GetFramePNG handles GET /sessions/{session_id}/frame.png.
func (h *Handler) GetFramePNG(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}
	p, info, err := h.svc.Current(sessionParam(r))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := h.renderer.WritePNG(w, info.Title, p); err != nil {
		h.log.Error("render frame failed", slog.String("session_id", string(info.ID)), slog.String("error", err.Error()))
	}
}

// Stream handles GET /sessions/{session_id}/stream. The connection is
// upgraded to a websocket and the session is played at its frame rate.
// Closing the connection stops playback.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	id := sessionParam(r)
	if _, err := h.svc.Session(id); err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Info("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reading is required to observe client close frames.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	sink := NewWebSocketSink(conn)
	rendered, err := h.svc.Play(ctx, id, sink, h.clock)
	if err != nil {
		if ctx.Err() == nil {
			_ = sink.Fail(ctx, err)
		}
		h.log.Info("stream stopped", slog.String("session_id", string(id)), slog.Int("rendered", rendered), slog.String("error", err.Error()))
		return
	}

	info, _ := h.svc.Session(id)
	_ = sink.Finish(ctx, info)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "playback complete"),
		time.Now().Add(wsWriteTimeout))
}

// EndSession handles DELETE /sessions/{session_id}.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	h.svc.EndSession(sessionParam(r))
	w.WriteHeader(http.StatusNoContent)
}

func sessionParam(r *http.Request) SessionID {
	return SessionID(chi.URLParam(r, "session_id"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
