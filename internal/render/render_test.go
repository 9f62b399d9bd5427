package render

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"match-simulator/internal/simulator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload() simulator.RenderPayload {
	return simulator.RenderPayload{
		FrameID:   2,
		Real:      true,
		Timestamp: "00:12:04",
		Period:    1,
		Groups: []simulator.GroupPositions{
			{
				Group:   "h",
				Markers: []simulator.Marker{{EntityID: "p1", X: 20, Y: 30}, {EntityID: "p2", X: 40, Y: 60}},
				Labels:  []simulator.Label{{Text: "9", X: 20, Y: 30}, {Text: "?", X: 40, Y: 60}},
			},
			{Group: "a", Markers: []simulator.Marker{}, Labels: []simulator.Label{}},
			{
				Group:   simulator.BallGroup,
				Markers: []simulator.Marker{{EntityID: simulator.BallEntityID, X: 50, Y: 50}},
				Labels:  []simulator.Label{{Text: simulator.BallLabel, X: 50, Y: 50}},
			},
		},
		Trajectory: []simulator.Point{{X: 40, Y: 50}, {X: 45, Y: 50}, {X: 50, Y: 50}},
		Event:      &simulator.EventAnnotation{Name: "Pass", Actor: "Ada", Group: "Home"},
	}
}

func TestCaption(t *testing.T) {
	assert.Equal(t, "Home vs Away\nPeriod: 1 | Time: 00:12:04\nEVENT: Pass by Ada (Home)",
		Caption("Home vs Away", samplePayload()))
	assert.Equal(t, "Home vs Away", Caption("Home vs Away", simulator.RenderPayload{}))
}

func TestPitchRenderer_WritePNG(t *testing.T) {
	r := &PitchRenderer{Width: 280, Height: 200}

	for name, p := range map[string]simulator.RenderPayload{
		"full":  samplePayload(),
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, r.WritePNG(&buf, "Home vs Away", p))
			img, err := png.Decode(&buf)
			require.NoError(t, err)
			assert.Greater(t, img.Bounds().Dx(), 0)
		})
	}
}

func TestDirectorySink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	sink, err := NewDirectorySink(dir, "Home vs Away", &PitchRenderer{Width: 140, Height: 100}, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, sink.Render(context.Background(), samplePayload()))
	}
	assert.Equal(t, 3, sink.Written())

	for _, name := range []string{"frame_00000.png", "frame_00001.png", "frame_00002.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestDirectorySink_cancelled(t *testing.T) {
	sink, err := NewDirectorySink(t.TempDir(), "", nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sink.Render(ctx, samplePayload()), context.Canceled)
	assert.Zero(t, sink.Written())
}

func TestPitchRenderer_satisfies_handler(t *testing.T) {
	var _ simulator.FrameRenderer = NewPitchRenderer()
	var _ simulator.Sink = &DirectorySink{}
}
