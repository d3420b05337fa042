package math

import "github.com/chewxy/math32"

// Mat4 is a 4x4 matrix in column-major order, the layout the host stores
// world and parent-inverse matrices in. Element (row r, column c) is m[c*4+r].
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = x, y, z
	return m
}

// Compose builds the local matrix T * R * S of a location, rotation and scale.
func Compose(location Vec3, rotation Quat, scale Vec3) Mat4 {
	m := rotation.ToMat4()
	for i, s := range [3]float32{scale.X, scale.Y, scale.Z} {
		m[i*4] *= s
		m[i*4+1] *= s
		m[i*4+2] *= s
	}
	m[12], m[13], m[14] = location.X, location.Y, location.Z
	return m
}

// Decompose splits a TRS matrix back into location, rotation and scale.
// Shear and negative scale are not recovered.
func (m Mat4) Decompose() (location Vec3, rotation Quat, scale Vec3) {
	return m.Translation(), QuatFromMat4(m), m.columnScale()
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

func (m Mat4) columnScale() Vec3 {
	return Vec3{
		Vec3{m[0], m[1], m[2]}.Length(),
		Vec3{m[4], m[5], m[6]}.Length(),
		Vec3{m[8], m[9], m[10]}.Length(),
	}
}

// ApproxEqual reports whether every element differs by at most eps.
func (m Mat4) ApproxEqual(other Mat4, eps float32) bool {
	for i := range m {
		if math32.Abs(m[i]-other[i]) > eps {
			return false
		}
	}
	return true
}

// Mul returns m * other, so other is applied first.
func (m Mat4) Mul(other Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+r] * other[c*4+k]
			}
			out[c*4+r] = sum
		}
	}
	return out
}

// TransformVec3 transforms a point. The bottom row is assumed to be
// (0, 0, 0, 1).
func (m Mat4) TransformVec3(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12],
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13],
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14],
	}
}

// AffineInverse inverts a matrix whose bottom row is (0, 0, 0, 1), which
// covers every TRS matrix. A singular linear part yields the identity.
func (m Mat4) AffineInverse() Mat4 {
	// Cofactors of the upper-left 3x3 block, a = m[c*4+r].
	a00, a01, a02 := m[0], m[4], m[8]
	a10, a11, a12 := m[1], m[5], m[9]
	a20, a21, a22 := m[2], m[6], m[10]

	c00 := a11*a22 - a12*a21
	c01 := a12*a20 - a10*a22
	c02 := a10*a21 - a11*a20

	det := a00*c00 + a01*c01 + a02*c02
	if det == 0 {
		return Identity()
	}
	inv := 1 / det

	// Transposed cofactors over the determinant.
	var out Mat4
	out[0] = c00 * inv
	out[1] = c01 * inv
	out[2] = c02 * inv
	out[4] = (a02*a21 - a01*a22) * inv
	out[5] = (a00*a22 - a02*a20) * inv
	out[6] = (a01*a20 - a00*a21) * inv
	out[8] = (a01*a12 - a02*a11) * inv
	out[9] = (a02*a10 - a00*a12) * inv
	out[10] = (a00*a11 - a01*a10) * inv
	out[15] = 1

	t := out.TransformVec3(m.Translation())
	out[12], out[13], out[14] = -t.X, -t.Y, -t.Z
	return out
}
