package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Registry errors.
var (
	ErrImageNotFound = errors.New("image file not found")
	ErrNotImage      = errors.New("file is not a supported image")
)

// Loader loads image datablocks.
type Loader interface {
	Load(path string, cs ColorSpace) (*Image, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(path string, cs ColorSpace) (*Image, error)

// Load calls f.
func (f LoaderFunc) Load(path string, cs ColorSpace) (*Image, error) {
	return f(path, cs)
}

// Registry is the image datablock list of a scene.
//
// Every Load creates a new datablock. Decoded pixels are shared through the
// cache.
type Registry struct {
	cache  *Cache
	images []*Image
	names  map[string]bool
	log    *zap.Logger
}

// NewRegistry creates an empty registry. A nil logger disables logging.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		cache: NewCache(),
		names: make(map[string]bool),
		log:   log,
	}
}

// Load decodes the image at path and registers a new datablock for it.
func (r *Registry) Load(path string, cs ColorSpace) (*Image, error) {
	pix, ok := r.cache.Get(path)
	if !ok {
		var err error
		pix, err = decodeFile(path)
		if err != nil {
			return nil, err
		}
		r.cache.Set(path, pix)
	}

	img := &Image{
		Name:       r.uniqueName(filepath.Base(path)),
		Path:       path,
		ColorSpace: cs,
		pix:        pix,
	}
	r.images = append(r.images, img)

	r.log.Debug("image loaded",
		zap.String("name", img.Name),
		zap.String("path", path),
		zap.String("colorspace", string(cs)),
		zap.Bool("cached", ok))
	return img, nil
}

// Images returns every registered datablock in load order.
func (r *Registry) Images() []*Image {
	return r.images
}

// CacheStats returns pixel cache hits and misses.
func (r *Registry) CacheStats() (hits, misses int) {
	return r.cache.Stats()
}

// uniqueName returns base, or base.001, base.002, ... when taken.
func (r *Registry) uniqueName(base string) string {
	name := base
	for i := 1; r.names[name]; i++ {
		name = fmt.Sprintf("%s.%03d", base, i)
	}
	r.names[name] = true
	return name
}

func decodeFile(path string) (*image.NRGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrImageNotFound, path)
		}
		return nil, fmt.Errorf("reading image %s: %w", path, err)
	}

	img, err := decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}
	return toNRGBA(img), nil
}

// decode picks a decoder from the sniffed type. image.Decode is not used:
// tga registers with an empty magic string and would claim every file.
func decode(data []byte, ext string) (image.Image, error) {
	r := bytes.NewReader(data)
	// TGA has no magic number, so only the extension identifies it.
	if strings.EqualFold(ext, ".tga") {
		return tga.Decode(r)
	}
	kind, _ := filetype.Match(data)
	switch kind.Extension {
	case "png":
		return png.Decode(r)
	case "jpg":
		return jpeg.Decode(r)
	case "gif":
		return gif.Decode(r)
	case "bmp":
		return bmp.Decode(r)
	case "tif":
		return tiff.Decode(r)
	case "webp":
		return webp.Decode(r)
	}
	return nil, fmt.Errorf("%w (detected %s)", ErrNotImage, kind.MIME.Value)
}

// toNRGBA converts any decoded image to non-premultiplied RGBA.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return dst
}
