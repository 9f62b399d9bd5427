package simulator

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"match-simulator/internal/platform/config"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// stubRenderer writes a 1x1 PNG and records the title it was given.
type stubRenderer struct {
	title string
	err   error
}

func (s *stubRenderer) WritePNG(w io.Writer, title string, _ RenderPayload) error {
	s.title = title
	if s.err != nil {
		return s.err
	}
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)
	return png.Encode(w, img)
}

func newTestHandler(t *testing.T, renderer FrameRenderer) (*Handler, *Service) {
	t.Helper()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewService(seededSource(), NewInMemorySessionRepository(), config.Simulator{FPS: 4}, log, nil)
	return NewHandler(svc, renderer, log), svc
}

func newTestRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

// sessionJSON mirrors SessionInfo with the state as its text form.
type sessionJSON struct {
	ID              string `json:"session_id"`
	MatchID         string `json:"match_id"`
	Title           string `json:"title"`
	State           string `json:"state"`
	Cursor          int    `json:"cursor"`
	Frames          int    `json:"frames"`
	RealFrames      int    `json:"real_frames"`
	SyntheticFrames int    `json:"synthetic_frames"`
}

func startSession(t *testing.T, r http.Handler, body string) sessionJSON {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/matches/m1/sessions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start session: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var info sessionJSON
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return info
}

func TestHandler_StartSession(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	r := newTestRouter(h)

	info := startSession(t, r, "")
	if info.ID == "" || info.MatchID != "m1" || info.State != "ready" {
		t.Errorf("unexpected session: %+v", info)
	}
	if info.Frames != 9 || info.RealFrames != 3 {
		t.Errorf("frames: %+v", info)
	}

	info = startSession(t, r, `{"fps": 2, "start_frame": 2}`)
	if info.Frames != 3 {
		t.Errorf("expected 3 frames from 2 at fps 2, got %d", info.Frames)
	}
}

func TestHandler_StartSession_errors(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	r := newTestRouter(h)

	cases := map[string]struct {
		path string
		body string
		want int
	}{
		"malformed_body": {"/matches/m1/sessions", "not json", http.StatusBadRequest},
		"unknown_match":  {"/matches/nope/sessions", "", http.StatusNotFound},
		"inverted_range": {"/matches/m1/sessions", `{"start_frame": 3, "end_frame": 1}`, http.StatusBadRequest},
		"fps_above_max":  {"/matches/m1/sessions", `{"fps": 100000000}`, http.StatusBadRequest},
		"max_real_above": {"/matches/m1/sessions", `{"max_real_frames": 1000000}`, http.StatusBadRequest},
		"too_few_frames": {"/matches/m1/sessions", `{"start_frame": 3}`, http.StatusUnprocessableEntity},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestHandler_GetSession_and_timeline(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	r := newTestRouter(h)
	info := startSession(t, r, "")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+info.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get session: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+info.ID+"/timeline", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("timeline: expected 200, got %d", rec.Code)
	}
	var body struct {
		Frames []Frame `json:"frames"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Frames) != 9 || !body.Frames[0].Real || body.Frames[1].Real {
		t.Errorf("unexpected timeline: %d frames", len(body.Frames))
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing session: expected 404, got %d", rec.Code)
	}
}

func TestHandler_Tick(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	r := newTestRouter(h)
	info := startSession(t, r, "")

	var last tickResponseJSON
	for i := 0; i <= info.Frames; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/"+info.ID+"/tick", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("tick %d: expected 200, got %d", i, rec.Code)
		}
		if err := json.NewDecoder(rec.Body).Decode(&last); err != nil {
			t.Fatal(err)
		}
		if i == 0 && (last.Status != "rendered" || last.Cursor != 1 || last.Payload.FrameID != 1) {
			t.Errorf("first tick: %+v", last)
		}
	}
	if last.Status != "done" || last.Payload.FrameID != 3 {
		t.Errorf("tick past end: %+v", last)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/missing/tick", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing session: expected 404, got %d", rec.Code)
	}
}

type tickResponseJSON struct {
	Status  string        `json:"status"`
	Cursor  int           `json:"cursor"`
	Payload RenderPayload `json:"payload"`
	Error   string        `json:"error"`
}

func TestHandler_GetFramePNG(t *testing.T) {
	stub := &stubRenderer{}
	h, _ := newTestHandler(t, stub)
	r := newTestRouter(h)
	info := startSession(t, r, "")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/"+info.ID+"/tick", nil))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+info.ID+"/frame.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type: %q", ct)
	}
	if _, err := png.Decode(bytes.NewReader(rec.Body.Bytes())); err != nil {
		t.Errorf("body is not a PNG: %v", err)
	}
	if stub.title != "Home vs Away" {
		t.Errorf("renderer title: %q", stub.title)
	}
}

func TestHandler_GetFramePNG_without_renderer(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	r := newTestRouter(h)
	info := startSession(t, r, "")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+info.ID+"/frame.png", nil))
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("expected 501, got %d", rec.Code)
	}
}

func TestHandler_EndSession(t *testing.T) {
	h, svc := newTestHandler(t, nil)
	r := newTestRouter(h)
	info := startSession(t, r, "")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/"+info.ID, nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if _, err := svc.Session(SessionID(info.ID)); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("session should be gone, got %v", err)
	}
}

func TestHandler_Stream(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	h.SetClock(nil)
	r := newTestRouter(h)
	srv := httptest.NewServer(r)
	defer srv.Close()

	info := startSession(t, r, "")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + info.ID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var frames []float64
	for {
		var msg struct {
			Type    string         `json:"type"`
			Payload *RenderPayload `json:"payload"`
			Session *sessionJSON   `json:"session"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v (after %d frames)", err, len(frames))
		}
		if msg.Type == "done" {
			if msg.Session == nil || msg.Session.State != "done" {
				t.Errorf("done message: %+v", msg.Session)
			}
			break
		}
		if msg.Type != "frame" || msg.Payload == nil {
			t.Fatalf("unexpected message type %q", msg.Type)
		}
		frames = append(frames, msg.Payload.FrameID)
	}
	if len(frames) != info.Frames {
		t.Errorf("streamed %d frames, want %d", len(frames), info.Frames)
	}

	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal closure, got %v", err)
	}
}

func TestHandler_Stream_unknown_session(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	srv := httptest.NewServer(newTestRouter(h))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/missing/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 response, got %+v", resp)
	}
}
