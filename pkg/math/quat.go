package math

import "math"

// Quat is a rotation quaternion. W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns the rotation that leaves vectors unchanged.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatFromRotationY returns a rotation of angle radians about +Y.
// Objects and NPCs only ever turn about the vertical axis.
func QuatFromRotationY(angle float32) Quat {
	sin, cos := math.Sincos(float64(angle) / 2)
	return Quat{Y: float32(sin), W: float32(cos)}
}

// QuatFromAxisAngle returns a rotation of angle radians about a unit axis.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	sin, cos := math.Sincos(float64(angle) / 2)
	v := axis.Scale(float32(sin))
	return Quat{X: v.X, Y: v.Y, Z: v.Z, W: float32(cos)}
}

func (q Quat) scale(s float32) Quat {
	return Quat{q.X * s, q.Y * s, q.Z * s, q.W * s}
}

func (q Quat) add(o Quat) Quat {
	return Quat{q.X + o.X, q.Y + o.Y, q.Z + o.Z, q.W + o.W}
}

// Dot returns the 4D dot product.
func (q Quat) Dot(o Quat) float32 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

// Normalize returns q scaled to unit length. A near-zero quaternion becomes
// the identity.
func (q Quat) Normalize() Quat {
	l := float32(math.Sqrt(float64(q.Dot(q))))
	if l < 1e-4 {
		return QuatIdentity()
	}
	return q.scale(1 / l)
}

// Slerp interpolates from q toward o by t in [0, 1] along the shorter arc.
func (q Quat) Slerp(o Quat, t float32) Quat {
	cos := q.Dot(o)
	if cos < 0 {
		o, cos = o.scale(-1), -cos
	}
	// Nearly parallel: sin(theta) is too small to divide by.
	if cos > 0.9995 {
		return q.scale(1 - t).add(o.scale(t)).Normalize()
	}

	theta := math.Acos(float64(cos))
	sin := math.Sin(theta)
	a := float32(math.Sin((1-float64(t))*theta) / sin)
	b := float32(math.Sin(float64(t)*theta) / sin)
	return q.scale(a).add(o.scale(b))
}

// ToMat3 converts the quaternion to a 3x3 rotation matrix.
// The columns are the rotated X, Y and Z basis vectors.
func (q Quat) ToMat3() Mat3 {
	q = q.Normalize()

	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	wx, wy, wz := q.W*q.X, q.W*q.Y, q.W*q.Z

	return Mat3{
		1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy),
		2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx),
		2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy),
	}
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// Conjugate returns the conjugate. For a unit quaternion this is the inverse rotation.
func (q Quat) Conjugate() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}
