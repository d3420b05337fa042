package texture

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

// quadImage builds a 2x2 image: top row red, green; bottom row blue, white.
func quadImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{0, 255, 0, 255})
	img.SetNRGBA(0, 1, color.NRGBA{0, 0, 255, 255})
	img.SetNRGBA(1, 1, color.NRGBA{255, 255, 255, 0})
	return img
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestSample_ClosestOrientation(t *testing.T) {
	img := NewImage("quad", quadImage(), ColorSpaceNonColor)

	tests := []struct {
		name string
		u, v float32
		want [4]float32
	}{
		{"bottom left is blue", 0.25, 0.25, [4]float32{0, 0, 1, 1}},
		{"bottom right is white", 0.75, 0.25, [4]float32{1, 1, 1, 0}},
		{"top left is red", 0.25, 0.75, [4]float32{1, 0, 0, 1}},
		{"top right is green", 0.75, 0.75, [4]float32{0, 1, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := img.Sample(tt.u, tt.v, InterpolationClosest, ExtensionExtend)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSample_LinearBlendsTexels(t *testing.T) {
	img := NewImage("quad", quadImage(), ColorSpaceNonColor)

	// The centre of the image is an equal mix of all four texels.
	got := img.Sample(0.5, 0.5, InterpolationLinear, ExtensionExtend)
	assert.InDelta(t, 0.5, got[0], 1e-5)
	assert.InDelta(t, 0.5, got[1], 1e-5)
	assert.InDelta(t, 0.5, got[2], 1e-5)
	assert.InDelta(t, 0.75, got[3], 1e-5)

	// A texel centre returns that texel exactly.
	got = img.Sample(0.25, 0.75, InterpolationLinear, ExtensionExtend)
	assert.InDeltaSlice(t, []float32{1, 0, 0, 1}, got[:], 1e-5)
}

func TestSample_Extension(t *testing.T) {
	img := NewImage("quad", quadImage(), ColorSpaceNonColor)

	// Far outside the image EXTEND clamps to the edge texel.
	got := img.Sample(-3, 0.25, InterpolationClosest, ExtensionExtend)
	assert.Equal(t, [4]float32{0, 0, 1, 1}, got)
	got = img.Sample(7.9, 0.25, InterpolationClosest, ExtensionExtend)
	assert.Equal(t, [4]float32{1, 1, 1, 0}, got)

	// REPEAT wraps around.
	got = img.Sample(1.25, 0.25, InterpolationClosest, ExtensionRepeat)
	assert.Equal(t, [4]float32{0, 0, 1, 1}, got)
	got = img.Sample(-0.25, 0.25, InterpolationClosest, ExtensionRepeat)
	assert.Equal(t, [4]float32{1, 1, 1, 0}, got)
}

func TestSample_SRGBIsLinearised(t *testing.T) {
	pix := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	pix.SetNRGBA(0, 0, color.NRGBA{128, 128, 128, 255})

	raw := NewImage("raw", pix, ColorSpaceNonColor).Sample(0.5, 0.5, InterpolationLinear, ExtensionExtend)
	lin := NewImage("srgb", pix, ColorSpaceSRGB).Sample(0.5, 0.5, InterpolationLinear, ExtensionExtend)

	assert.InDelta(t, 128.0/255, raw[0], 1e-6)
	assert.InDelta(t, 0.2158, lin[0], 1e-3)
	assert.Equal(t, raw[3], lin[3], "alpha is never converted")
}

func TestSRGBRoundTrip(t *testing.T) {
	for _, c := range []float32{0, 0.001, 0.04, 0.2, 0.5, 0.9, 1} {
		assert.InDelta(t, c, LinearToSRGB(SRGBToLinear(c)), 1e-5)
	}
}

func TestRegistry_Load(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "palette.png", quadImage())

	reg := NewRegistry(nil)
	first, err := reg.Load(path, ColorSpaceSRGB)
	require.NoError(t, err)
	second, err := reg.Load(path, ColorSpaceNonColor)
	require.NoError(t, err)

	assert.Equal(t, "palette.png", first.Name)
	assert.Equal(t, "palette.png.001", second.Name)
	assert.Len(t, reg.Images(), 2, "every load creates a datablock")
	assert.Same(t, first.Pixels(), second.Pixels(), "pixels are shared by path")

	w, h := first.Size()
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)

	hits, misses := reg.CacheStats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestRegistry_LoadFormats(t *testing.T) {
	dir := t.TempDir()
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	src.SetNRGBA(1, 0, color.NRGBA{0, 0, 255, 255})

	tests := []struct {
		name   string
		encode func(io.Writer, image.Image) error
	}{
		{"mask.png", png.Encode},
		{"mask.tga", tga.Encode},
		{"mask.bmp", bmp.Encode},
	}

	// One registry: a TGA decoder must not claim the other formats.
	reg := NewRegistry(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			f, err := os.Create(path)
			require.NoError(t, err)
			require.NoError(t, tt.encode(f, src))
			require.NoError(t, f.Close())

			img, err := reg.Load(path, ColorSpaceNonColor)
			require.NoError(t, err)
			pix := img.Pixels()
			assert.Equal(t, src.Bounds(), pix.Bounds())
			assert.Equal(t, color.NRGBA{255, 0, 0, 255}, pix.NRGBAAt(0, 0))
			assert.Equal(t, color.NRGBA{0, 0, 255, 255}, pix.NRGBAAt(1, 0))
		})
	}
}

func TestRegistry_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(nil)

	_, err := reg.Load(filepath.Join(dir, "missing.png"), ColorSpaceSRGB)
	assert.ErrorIs(t, err, ErrImageNotFound)

	text := filepath.Join(dir, "notes.png")
	require.NoError(t, os.WriteFile(text, []byte("definitely not pixels"), 0644))
	_, err = reg.Load(text, ColorSpaceSRGB)
	assert.ErrorIs(t, err, ErrNotImage)

	assert.Empty(t, reg.Images(), "failed loads register nothing")
}

func TestCache(t *testing.T) {
	c := NewCache()
	_, ok := c.Get("a")
	assert.False(t, ok)

	pix := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	c.Set("a", pix)
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Same(t, pix, got)

	hits, misses := c.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	c.Clear()
	hits, misses = c.Stats()
	assert.Zero(t, hits+misses)
}
