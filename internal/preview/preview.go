// Package preview bakes a compiled material graph into a flat image and
// writes it as PNG or WebP.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"

	"github.com/Faultbox/haven-area/internal/shader"
	"github.com/Faultbox/haven-area/internal/texture"
)

// ErrFormat is returned for an output format other than png or webp.
var ErrFormat = errors.New("unsupported preview format")

// Bake evaluates p at the centre of every pixel of a w x h grid. Row 0 is the
// top of the image, which is v = 1. Colours are converted to sRGB.
func Bake(p *shader.Program, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		v := 1 - (float32(y)+0.5)/float32(h)
		for x := 0; x < w; x++ {
			u := (float32(x) + 0.5) / float32(w)
			c := p.Eval(u, v)
			i := img.PixOffset(x, y)
			img.Pix[i] = to8(texture.LinearToSRGB(c[0]))
			img.Pix[i+1] = to8(texture.LinearToSRGB(c[1]))
			img.Pix[i+2] = to8(texture.LinearToSRGB(c[2]))
			img.Pix[i+3] = to8(c[3])
		}
	}
	return img
}

// Downsample scales img so that its longer edge is size pixels. Images that
// already fit are returned unchanged.
func Downsample(img *image.NRGBA, size int) *image.NRGBA {
	b := img.Bounds()
	if size <= 0 || (b.Dx() <= size && b.Dy() <= size) {
		return img
	}
	w, h := size, size
	if b.Dx() > b.Dy() {
		h = max(1, b.Dy()*size/b.Dx())
	} else if b.Dy() > b.Dx() {
		w = max(1, b.Dx()*size/b.Dy())
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Encode writes img in the given format ("png" or "webp").
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "png":
		return png.Encode(w, img)
	case "webp":
		return nativewebp.Encode(w, img, nil)
	}
	return fmt.Errorf("%w: %q", ErrFormat, format)
}

// FormatFromPath derives the output format from a file extension, falling
// back to def when the extension is not recognised.
func FormatFromPath(path, def string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".webp":
		return "webp"
	}
	return def
}

// WriteFile encodes img to path.
func WriteFile(path string, img image.Image, format string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Encode(f, img, format)
}

func to8(x float32) uint8 {
	return uint8(shader.Clamp01(x)*255 + 0.5)
}
