package terrain

import (
	"github.com/Faultbox/haven-area/internal/shader"
	"github.com/Faultbox/haven-area/internal/texture"
	"github.com/Faultbox/haven-area/pkg/area"
)

// BlendReference blends cell colours by weight on the CPU, the way the built
// graph does. Cells past the end of weights have no weight channel: they are
// scaled by 1 and left out of the total. A zero total yields black.
func BlendReference(colors []shader.Value, weights []float32) shader.Value {
	if len(colors) == 1 {
		return colors[0]
	}

	weighted := make([]shader.Value, len(colors))
	for i, c := range colors {
		k := float32(1)
		if i < len(weights) {
			k = weights[i]
		}
		weighted[i] = scaleValue(c, k)
	}
	accum := foldLeft(weighted, addValues)

	var inv float32
	if n := min(len(weights), len(colors)); n > 0 {
		total := foldLeft(weights[:n], func(acc, x float32) float32 { return acc + x })
		if total != 0 {
			inv = shader.Clamp01(1 / total)
		}
	}
	out := scaleValue(accum, inv)
	out[3] = 1
	return out
}

// Reference evaluates a blend spec directly against its images at (u, v).
// maskA2 is ignored unless the spec uses a second mask.
func Reference(spec *area.MaterialBlendSpec, palette, maskA, maskA2 *texture.Image, u, v float32) shader.Value {
	weights := maskWeights(maskA, u, v)
	if spec.UsesSecondMask() && maskA2 != nil {
		weights = append(weights, maskWeights(maskA2, u, v)...)
	}

	cells := spec.Cells()
	colors := make([]shader.Value, len(cells))
	for i, c := range cells {
		pu := shader.Fract(u*c.UVScale)*c.Size[0] + c.Origin[0]
		pv := shader.Fract(v*c.UVScale)*c.Size[1] + c.Origin[1]
		s := palette.Sample(pu, pv, texture.InterpolationLinear, texture.ExtensionExtend)
		colors[i] = shader.Value{s[0], s[1], s[2], 1}
	}
	if len(weights) > len(colors) {
		weights = weights[:len(colors)]
	}
	return BlendReference(colors, weights)
}

func maskWeights(mask *texture.Image, u, v float32) []float32 {
	s := mask.Sample(u, v, texture.InterpolationLinear, texture.ExtensionRepeat)
	return s[:]
}

func scaleValue(v shader.Value, k float32) shader.Value {
	return shader.Value{v[0] * k, v[1] * k, v[2] * k, 0}
}

func addValues(a, b shader.Value) shader.Value {
	return shader.Value{a[0] + b[0], a[1] + b[1], a[2] + b[2], 0}
}
