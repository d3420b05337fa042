// Package texture loads image assets referenced by area manifests and samples
// them the way the host's image texture node does.
package texture

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"
)

// ColorSpace tells the sampler how to interpret stored pixel values.
type ColorSpace string

const (
	ColorSpaceSRGB     ColorSpace = "sRGB"      // Perceptual colour, linearised on sample
	ColorSpaceNonColor ColorSpace = "Non-Color" // Raw data such as blend weights
)

// Interpolation selects the texel filter.
type Interpolation string

const (
	InterpolationLinear  Interpolation = "Linear"
	InterpolationClosest Interpolation = "Closest"
)

// Extension selects how coordinates outside [0,1] are handled.
type Extension string

const (
	ExtensionRepeat Extension = "REPEAT"
	ExtensionExtend Extension = "EXTEND"
)

// Image is one image datablock. Several datablocks may share decoded pixels.
type Image struct {
	Name       string
	Path       string
	ColorSpace ColorSpace
	pix        *image.NRGBA
}

// NewImage wraps already decoded pixels, mainly for tests and generated data.
func NewImage(name string, pix *image.NRGBA, cs ColorSpace) *Image {
	return &Image{Name: name, ColorSpace: cs, pix: pix}
}

// Size returns the pixel dimensions.
func (img *Image) Size() (w, h int) {
	if img.pix == nil {
		return 0, 0
	}
	return img.pix.Rect.Dx(), img.pix.Rect.Dy()
}

// Pixels returns the decoded pixels.
func (img *Image) Pixels() *image.NRGBA {
	return img.pix
}

// String implements fmt.Stringer.
func (img *Image) String() string {
	w, h := img.Size()
	return fmt.Sprintf("%s (%dx%d %s)", img.Name, w, h, img.ColorSpace)
}

// Sample returns the RGBA value at (u, v) in [0,1] units. v = 0 is the bottom
// row of the image. sRGB images are returned in linear space.
func (img *Image) Sample(u, v float32, interp Interpolation, ext Extension) [4]float32 {
	w, h := img.Size()
	if w == 0 || h == 0 {
		return [4]float32{}
	}

	var c [4]float32
	if interp == InterpolationClosest {
		x := resolveIndex(int(math32.Floor(u*float32(w))), w, ext)
		y := resolveIndex(int(math32.Floor(v*float32(h))), h, ext)
		c = img.texel(x, y)
	} else {
		// Texel centres sit at (i + 0.5) / size.
		fx := u*float32(w) - 0.5
		fy := v*float32(h) - 0.5
		x0f := math32.Floor(fx)
		y0f := math32.Floor(fy)
		dx := fx - x0f
		dy := fy - y0f
		x0 := resolveIndex(int(x0f), w, ext)
		x1 := resolveIndex(int(x0f)+1, w, ext)
		y0 := resolveIndex(int(y0f), h, ext)
		y1 := resolveIndex(int(y0f)+1, h, ext)

		c00 := img.texel(x0, y0)
		c10 := img.texel(x1, y0)
		c01 := img.texel(x0, y1)
		c11 := img.texel(x1, y1)
		for i := range c {
			c[i] = c00[i]*(1-dx)*(1-dy) + c10[i]*dx*(1-dy) + c01[i]*(1-dx)*dy + c11[i]*dx*dy
		}
	}

	if img.ColorSpace == ColorSpaceSRGB {
		for i := 0; i < 3; i++ {
			c[i] = SRGBToLinear(c[i])
		}
	}
	return c
}

// texel reads the pixel at column x and bottom-up row y as floats in [0,1].
func (img *Image) texel(x, y int) [4]float32 {
	b := img.pix.Rect
	row := b.Max.Y - 1 - y
	i := img.pix.PixOffset(b.Min.X+x, row)
	p := img.pix.Pix[i : i+4 : i+4]
	return [4]float32{
		float32(p[0]) / 255,
		float32(p[1]) / 255,
		float32(p[2]) / 255,
		float32(p[3]) / 255,
	}
}

func resolveIndex(i, size int, ext Extension) int {
	if ext == ExtensionRepeat {
		i %= size
		if i < 0 {
			i += size
		}
		return i
	}
	if i < 0 {
		return 0
	}
	if i >= size {
		return size - 1
	}
	return i
}

// SRGBToLinear converts one sRGB-encoded channel to linear light.
func SRGBToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math32.Pow((c+0.055)/1.055, 2.4)
}

// LinearToSRGB converts one linear channel back to sRGB encoding.
func LinearToSRGB(c float32) float32 {
	if c <= 0.0031308 {
		return c * 12.92
	}
	return 1.055*math32.Pow(c, 1/2.4) - 0.055
}
