package math

// NewMat4Identity returns the identity matrix.
func NewMat4Identity() Mat4 {
	m := Mat4{}
	m.Data[0] = 1.0
	m.Data[5] = 1.0
	m.Data[10] = 1.0
	m.Data[15] = 1.0
	return m
}

// NewMat4Translation returns a translation matrix for the given position.
func NewMat4Translation(position Vec3) Mat4 {
	m := NewMat4Identity()
	m.Data[12] = position.X
	m.Data[13] = position.Y
	m.Data[14] = position.Z
	return m
}

// NewMat4EulerY returns a rotation matrix around the y axis.
func NewMat4EulerY(angleRadians float32) Mat4 {
	m := NewMat4Identity()
	c := Cos(angleRadians)
	s := Sin(angleRadians)
	m.Data[0] = c
	m.Data[2] = -s
	m.Data[8] = s
	m.Data[10] = c
	return m
}

// NewMat4Perspective returns a right-handed perspective projection matrix.
func NewMat4Perspective(fovRadians, aspect, near, far float32) Mat4 {
	halfTan := Tan(fovRadians * 0.5)
	m := Mat4{}
	m.Data[0] = 1.0 / (aspect * halfTan)
	m.Data[5] = 1.0 / halfTan
	m.Data[10] = -(far + near) / (far - near)
	m.Data[11] = -1.0
	m.Data[14] = -(2.0 * far * near) / (far - near)
	return m
}

// Mul returns m * o.
func (m Mat4) Mul(o Mat4) Mat4 {
	out := Mat4{}
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += m.Data[k*4+row] * o.Data[col*4+k]
			}
			out.Data[col*4+row] = sum
		}
	}
	return out
}

// Translation extracts the translation component of a transform.
func (m Mat4) Translation() Vec3 {
	return Vec3{X: m.Data[12], Y: m.Data[13], Z: m.Data[14]}
}

// TransformPoint applies the matrix to a point (w = 1).
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return Vec3{
		X: m.Data[0]*p.X + m.Data[4]*p.Y + m.Data[8]*p.Z + m.Data[12],
		Y: m.Data[1]*p.X + m.Data[5]*p.Y + m.Data[9]*p.Z + m.Data[13],
		Z: m.Data[2]*p.X + m.Data[6]*p.Y + m.Data[10]*p.Z + m.Data[14],
	}
}
