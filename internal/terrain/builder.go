// Package terrain builds the procedural shader graph of a tiled-palette
// terrain material: per-cell tiled palette sampling blended by normalised
// weights read from one or two RGBA masks.
package terrain

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/haven-area/internal/shader"
	"github.com/Faultbox/haven-area/internal/texture"
	"github.com/Faultbox/haven-area/pkg/area"
)

// ErrImageLoad is returned when the palette or a weight mask cannot be loaded.
var ErrImageLoad = errors.New("terrain image load failed")

// Material is the host material a terrain graph is written into.
type Material interface {
	NodeTree() shader.Editor
	SetBackfaceCulling(enabled bool)
	SetUseNodes(enabled bool)
}

// Node layout columns. Placement is cosmetic.
const (
	xUV     = -1800
	xMasks  = -1400
	xSep    = -1100
	xTile   = -800
	xPal    = -400
	xBlend  = 0
	xOut    = 400
	yCells  = 600
	cellGap = 280
)

// Builder rewrites materials into terrain blend graphs.
type Builder struct {
	profile shader.Profile
	images  texture.Loader
	log     *zap.Logger
}

// NewBuilder creates a builder writing graphs for the given host profile.
func NewBuilder(profile shader.Profile, images texture.Loader, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{profile: profile, images: images, log: log}
}

type images struct {
	palette *texture.Image
	maskA   *texture.Image
	maskA2  *texture.Image
}

// Build replaces the material's node tree with the blend graph described by
// spec. Image paths are resolved against baseDir. Images are loaded before the
// material is touched, so a failed load leaves it unchanged.
func (b *Builder) Build(mat Material, spec *area.MaterialBlendSpec, baseDir string) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("invalid blend spec: %w", err)
	}
	imgs, err := b.loadImages(spec, baseDir)
	if err != nil {
		return err
	}

	mat.SetBackfaceCulling(false)
	mat.SetUseNodes(true)
	w := &writer{ed: mat.NodeTree()}
	w.ed.Clear()

	bsdf := b.surface(w)
	uv, u, v := uvSource(w)
	weights := b.weights(w, uv, imgs)

	cells := spec.Cells()
	colors := make([]socket, len(cells))
	cellWeights := make([]*socket, len(cells))
	for i, c := range cells {
		colors[i] = cellBranch(w, c, u, v, imgs.palette)
		if idx := c.WeightIndex(); idx < len(weights) {
			cellWeights[i] = &weights[idx]
		}
	}
	blend(w, bsdf, colors, cellWeights)

	if w.err != nil {
		return fmt.Errorf("writing terrain graph: %w", w.err)
	}
	b.log.Debug("terrain graph built",
		zap.String("material", spec.Name),
		zap.Int("cells", len(cells)),
		zap.Bool("second_mask", imgs.maskA2 != nil))
	return nil
}

func (b *Builder) loadImages(spec *area.MaterialBlendSpec, baseDir string) (images, error) {
	var imgs images
	var err error
	if imgs.palette, err = b.load(baseDir, spec.Palette, texture.ColorSpaceSRGB); err != nil {
		return imgs, fmt.Errorf("%w: palette: %w", ErrImageLoad, err)
	}
	if imgs.maskA, err = b.load(baseDir, spec.MaskA, texture.ColorSpaceNonColor); err != nil {
		return imgs, fmt.Errorf("%w: maskA: %w", ErrImageLoad, err)
	}
	if spec.UsesSecondMask() {
		if imgs.maskA2, err = b.load(baseDir, spec.MaskA2, texture.ColorSpaceNonColor); err != nil {
			return imgs, fmt.Errorf("%w: maskA2: %w", ErrImageLoad, err)
		}
	}
	return imgs, nil
}

func (b *Builder) load(baseDir, rel string, cs texture.ColorSpace) (*texture.Image, error) {
	path := rel
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, rel)
	}
	return b.images.Load(path, cs)
}

// surface creates the output and a principled surface with specular off.
func (b *Builder) surface(w *writer) *shader.Node {
	out := w.add(shader.KindOutput, "", xOut, 0)
	bsdf := w.add(shader.KindPrincipled, "", xBlend+200, 0)
	if w.ed.HasInput(bsdf, b.profile.SpecularInput) {
		w.set(bsdf, b.profile.SpecularInput, 0)
	}
	w.set(bsdf, shader.SocketMetallic, 0)
	w.set(bsdf, shader.SocketRoughness, 0.5)
	w.link(socket{bsdf, shader.SocketBSDF}, out, shader.SocketSurface)
	return bsdf
}

// uvSource creates the UV input and splits it into U and V.
func uvSource(w *writer) (uv, u, v socket) {
	coord := w.add(shader.KindTexCoord, "", xUV, 0)
	sep := w.add(shader.KindSeparateXYZ, "Separate UV", xUV+200, 0)
	uv = socket{coord, shader.SocketUV}
	w.link(uv, sep, shader.SocketVectorIn)
	return uv, socket{sep, shader.SocketX}, socket{sep, shader.SocketY}
}

// weights samples the active masks and returns their channels in
// [R, G, B, A] order, maskA first.
func (b *Builder) weights(w *writer, uv socket, imgs images) []socket {
	weights := b.maskChannels(w, uv, imgs.maskA, "MaskA", 300)
	if imgs.maskA2 != nil {
		weights = append(weights, b.maskChannels(w, uv, imgs.maskA2, "MaskA2", -200)...)
	}
	return weights
}

func (b *Builder) maskChannels(w *writer, uv socket, img *texture.Image, label string, y float32) []socket {
	tex := w.add(shader.KindImageTexture, label, xMasks, y)
	tex.Image = img
	tex.Interpolation = texture.InterpolationLinear
	w.link(uv, tex, shader.SocketVectorIn)

	sep := w.add(b.profile.SeparateColor, "Separate "+label, xSep, y)
	w.link(socket{tex, shader.SocketColorOut}, sep, b.profile.SeparateColorInput)

	outs := b.profile.SeparateColorOutputs
	return []socket{
		{sep, outs[0]},
		{sep, outs[1]},
		{sep, outs[2]},
		{tex, shader.SocketAlpha},
	}
}

// cellBranch tiles UV by the cell's scale, remaps it into the cell's atlas
// rectangle and samples the palette there.
func cellBranch(w *writer, c area.Cell, u, v socket, palette *texture.Image) socket {
	y := float32(yCells - c.Index*cellGap)
	name := fmt.Sprintf("Cell%d", c.Index)

	palU := tileAxis(w, u, c.UVScale, c.Size[0], c.Origin[0], name+" U", y)
	palV := tileAxis(w, v, c.UVScale, c.Size[1], c.Origin[1], name+" V", y-140)

	combine := w.add(shader.KindCombineXYZ, name+" UV", xPal-150, y-70)
	w.link(palU, combine, shader.SocketX)
	w.link(palV, combine, shader.SocketY)

	tex := w.add(shader.KindImageTexture, "Palette "+name, xPal, y-70)
	tex.Image = palette
	tex.Interpolation = texture.InterpolationLinear
	tex.Extension = texture.ExtensionExtend
	w.link(socket{combine, shader.SocketVectorIn}, tex, shader.SocketVectorIn)
	return socket{tex, shader.SocketColorOut}
}

// tileAxis computes fract(x*scale)*usable + origin.
func tileAxis(w *writer, x socket, scale, usable, origin float32, label string, y float32) socket {
	mul := w.math(shader.OpMultiply, label+"*s", xTile-300, y)
	w.link(x, mul, shader.MathA)
	w.set(mul, shader.MathB, scale)

	frac := w.math(shader.OpFract, label+" fract", xTile-150, y)
	w.link(socket{mul, shader.MathOut}, frac, shader.MathA)

	remap := w.math(shader.OpMultiplyAdd, label+" pal", xTile, y)
	w.link(socket{frac, shader.MathOut}, remap, shader.MathA)
	w.set(remap, shader.MathB, usable)
	w.set(remap, shader.MathC, origin)
	return socket{remap, shader.MathOut}
}

// blend wires the cell colours into the base colour. A single cell is wired
// straight through. Otherwise colours are scaled by their weights, summed,
// and divided by the clamped total weight. A cell without a weight channel
// keeps a scale of 1 and is left out of the total.
func blend(w *writer, bsdf *shader.Node, colors []socket, weights []*socket) {
	if len(colors) == 1 {
		w.link(colors[0], bsdf, shader.SocketBaseColor)
		return
	}

	weighted := make([]socket, len(colors))
	var present []socket
	for i, c := range colors {
		scale := w.vectorMath(shader.OpScale, fmt.Sprintf("Weighted %d", i), xBlend, float32(yCells-i*200))
		w.link(c, scale, shader.VecA)
		if weights[i] != nil {
			w.link(*weights[i], scale, shader.VecScale)
			present = append(present, *weights[i])
		}
		weighted[i] = socket{scale, shader.VecOut}
	}

	accum := foldLeft(weighted, func(acc, x socket) socket {
		add := w.vectorMath(shader.OpAdd, "Accum", xBlend+150, 0)
		w.link(acc, add, shader.VecA)
		w.link(x, add, shader.VecB)
		return socket{add, shader.VecOut}
	})

	inv := w.math(shader.OpDivide, "Inv Total W", xBlend+300, 0)
	inv.Clamp = true
	w.set(inv, shader.MathA, 1)
	if len(present) > 0 {
		total := foldLeft(present, func(acc, x socket) socket {
			add := w.math(shader.OpAdd, "TotalW", xBlend-150, 0)
			w.link(acc, add, shader.MathA)
			w.link(x, add, shader.MathB)
			return socket{add, shader.MathOut}
		})
		w.link(total, inv, shader.MathB)
	}

	final := w.vectorMath(shader.OpScale, "Final Color", xBlend+450, 0)
	w.link(accum, final, shader.VecA)
	w.link(socket{inv, shader.MathOut}, final, shader.VecScale)
	w.link(socket{final, shader.VecOut}, bsdf, shader.SocketBaseColor)
}

// foldLeft reduces xs from the left, seeding with xs[0]. xs must not be
// empty.
func foldLeft[T any](xs []T, f func(acc, x T) T) T {
	acc := xs[0]
	for _, x := range xs[1:] {
		acc = f(acc, x)
	}
	return acc
}
