package formation

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *chi.Mux {
	r := chi.NewRouter()
	NewHandler(seededPositions(), nil).Routes(r)
	return r
}

func TestHandler_GetCompactness(t *testing.T) {
	r := newTestRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/matches/m1/teams/h/compactness?timestamp=00:00:02", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.InDelta(t, 900.0, snap.Compactness, 1e-9)
	assert.Len(t, snap.Players, 4)
}

func TestHandler_GetCompactness_errors(t *testing.T) {
	r := newTestRouter()
	cases := map[string]struct {
		path string
		want int
	}{
		"missing_timestamp": {"/matches/m1/teams/h/compactness", http.StatusBadRequest},
		"no_positions":      {"/matches/m1/teams/h/compactness?timestamp=10:00:00", http.StatusNotFound},
		"png_no_positions":  {"/matches/m1/teams/x/formation.png?timestamp=00:00:00", http.StatusNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestHandler_GetSeries(t *testing.T) {
	r := newTestRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/matches/m1/teams/h/compactness/series?from=00:00:01", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var res SeriesResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	require.Len(t, res.Samples, 2)
	assert.InDelta(t, 650.0, res.Mean, 1e-9)
}

func TestHandler_GetFormationPNG(t *testing.T) {
	r := newTestRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/matches/m1/teams/h/formation.png?timestamp=00:00:00", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	_, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	assert.NoError(t, err)
}
