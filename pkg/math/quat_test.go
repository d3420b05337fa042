package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	length := float32(math.Sqrt(float64(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W)))
	if math.Abs(float64(length-1.0)) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
	if (Quat{}).Normalize() != QuatIdentity() {
		t.Error("zero quaternion should normalize to identity")
	}
}

func TestQuatLayouts(t *testing.T) {
	src := [4]float32{0.1, 0.2, 0.3, 0.9}
	q := QuatFromXYZW(src)
	if q.X != 0.1 || q.Y != 0.2 || q.Z != 0.3 || q.W != 0.9 {
		t.Errorf("QuatFromXYZW: got %+v", q)
	}

	host := q.WXYZ()
	want := [4]float32{0.9, 0.1, 0.2, 0.3}
	if host != want {
		t.Errorf("WXYZ: got %v, want %v", host, want)
	}
	if QuatFromWXYZ(host) != q {
		t.Errorf("QuatFromWXYZ(WXYZ()) should round-trip, got %+v", QuatFromWXYZ(host))
	}
}

func TestQuatMulIdentity(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{0, 0, 1}, 0.8)
	if got := QuatIdentity().Mul(q); got != q {
		t.Errorf("I * q = %+v, want %+v", got, q)
	}
	if got := q.Mul(QuatIdentity()); got != q {
		t.Errorf("q * I = %+v, want %+v", got, q)
	}
}

func TestQuatMulOrder(t *testing.T) {
	// Rotate X axis by 90° about Z, then 90° about X: result should point along Z.
	rz := QuatFromAxisAngle(Vec3{0, 0, 1}, float32(math.Pi/2))
	rx := QuatFromAxisAngle(Vec3{1, 0, 0}, float32(math.Pi/2))

	got := rx.Mul(rz).Rotate(Vec3{1, 0, 0})
	if !got.ApproxEqual(Vec3{0, 0, 1}, 1e-5) {
		t.Errorf("rx*rz applied to +X = %v, want (0,0,1)", got)
	}
}

func TestQuatToMat4(t *testing.T) {
	m := QuatIdentity().ToMat4()
	identity := Identity()
	for i := 0; i < 16; i++ {
		if math.Abs(float64(m[i]-identity[i])) > 0.0001 {
			t.Errorf("Identity quat should produce identity matrix, element %d: got %v, want %v", i, m[i], identity[i])
		}
	}
}

func TestQuatFromMat4RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		axis Vec3
		deg  float64
	}{
		{"x 30", Vec3{1, 0, 0}, 30},
		{"y 120", Vec3{0, 1, 0}, 120},
		{"z 179", Vec3{0, 0, 1}, 179},
		{"diag 250", Vec3{1, 1, 1}.Normalize(), 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuatFromAxisAngle(tt.axis, float32(tt.deg*math.Pi/180))
			got := QuatFromMat4(q.ToMat4())
			if !got.SameRotation(q, 1e-4) {
				t.Errorf("QuatFromMat4: got %+v, want %+v", got, q)
			}
		})
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	// 90 degrees around Y axis
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	expectedW := float32(math.Cos(math.Pi / 4))
	expectedY := float32(math.Sin(math.Pi / 4))

	if math.Abs(float64(q.W-expectedW)) > 0.001 {
		t.Errorf("QuatFromAxisAngle W: expected %v, got %v", expectedW, q.W)
	}
	if math.Abs(float64(q.Y-expectedY)) > 0.001 {
		t.Errorf("QuatFromAxisAngle Y: expected %v, got %v", expectedY, q.Y)
	}
}
