package formation

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlot(t *testing.T) {
	cases := map[string][]PlayerPosition{
		"hull":      square(10),
		"collinear": {{Name: "A", X: 0, Y: 0}, {Name: "B", X: 5, Y: 5}, {Name: "C", X: 10, Y: 10}},
		"two":       {{Name: "A", X: 0, Y: 0}, {Name: "B", X: 5, Y: 5}},
		"empty":     nil,
	}
	for name, players := range cases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			snap := Snapshot{Players: players, Compactness: Compactness(Vecs(players))}
			require.NoError(t, Plot(&buf, snap))

			img, err := png.Decode(&buf)
			require.NoError(t, err)
			assert.Greater(t, img.Bounds().Dx(), 0)
		})
	}
}
