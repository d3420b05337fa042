package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"

	"github.com/Faultbox/haven-area/internal/shader"
	"github.com/Faultbox/haven-area/internal/texture"
)

// surfaceGraph returns a graph whose principled node feeds the output, and
// that node.
func surfaceGraph(t *testing.T) (*shader.Graph, *shader.Node) {
	t.Helper()
	g := shader.NewGraph(shader.LatestProfile())
	out, err := g.AddNode(shader.KindOutput, "")
	require.NoError(t, err)
	bsdf, err := g.AddNode(shader.KindPrincipled, "")
	require.NoError(t, err)
	require.NoError(t, g.Connect(bsdf, shader.SocketBSDF, out, shader.SocketSurface))
	return g, bsdf
}

func TestBake_Constant(t *testing.T) {
	g, bsdf := surfaceGraph(t)
	require.NoError(t, g.SetInput(bsdf, shader.SocketBaseColor, shader.Value{1, 0, 0, 1}))

	p, err := g.Compile()
	require.NoError(t, err)

	img := Bake(p, 4, 2)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, color.NRGBA{255, 0, 0, 255}, img.NRGBAAt(x, y))
		}
	}
}

func TestBake_Orientation(t *testing.T) {
	g, bsdf := surfaceGraph(t)
	coord, err := g.AddNode(shader.KindTexCoord, "")
	require.NoError(t, err)
	sep, err := g.AddNode(shader.KindSeparateXYZ, "")
	require.NoError(t, err)
	require.NoError(t, g.Connect(coord, shader.SocketUV, sep, shader.SocketVectorIn))
	require.NoError(t, g.Connect(sep, shader.SocketY, bsdf, shader.SocketBaseColor))

	p, err := g.Compile()
	require.NoError(t, err)
	img := Bake(p, 1, 4)

	// v = 0.875 on the top row, 0.125 on the bottom one.
	top := img.NRGBAAt(0, 0)
	bottom := img.NRGBAAt(0, 3)
	assert.Equal(t, to8(texture.LinearToSRGB(0.875)), top.R)
	assert.Equal(t, to8(texture.LinearToSRGB(0.125)), bottom.R)
	assert.Greater(t, top.R, bottom.R)
}

func TestDownsample(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			src.SetNRGBA(x, y, color.NRGBA{200, 200, 200, 255})
		}
	}

	tests := []struct {
		name string
		size int
		want image.Rectangle
	}{
		{"fits", 64, image.Rect(0, 0, 64, 32)},
		{"zero keeps size", 0, image.Rect(0, 0, 64, 32)},
		{"halved", 32, image.Rect(0, 0, 32, 16)},
		{"tiny", 1, image.Rect(0, 0, 1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Downsample(src, tt.size)
			assert.Equal(t, tt.want, got.Bounds())
		})
	}

	// A flat image stays flat.
	px := Downsample(src, 16).NRGBAAt(3, 3)
	assert.InDelta(t, 200, int(px.R), 1)
	assert.Equal(t, uint8(255), px.A)
}

func TestEncode(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, "PNG"))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	buf.Reset()
	require.NoError(t, Encode(&buf, img, "webp"))
	decoded, err = webp.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	assert.ErrorIs(t, Encode(&buf, img, "gif"), ErrFormat)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, "webp", FormatFromPath("out/ground.WEBP", "png"))
	assert.Equal(t, "png", FormatFromPath("ground.png", "webp"))
	assert.Equal(t, "webp", FormatFromPath("ground", "webp"))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bake", "ground.png")
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	require.NoError(t, WriteFile(path, img, "png"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Width)
	assert.Equal(t, 2, cfg.Height)
}
