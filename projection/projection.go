// Package projection maps world-space points onto a screen given a camera
// position and a world-to-camera rotation.
package projection

import (
	"fmt"
	"math"
)

// Vec3 is a point or direction in world or camera space. In camera space X
// points forward, Y sideways and Z up.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

// Sub returns a - b.
func Sub(a, b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b Vec3) float64 {
	d := Sub(a, b)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// Mat3 is a row-major 3x3 matrix.
type Mat3 [3][3]float64

// Identity returns the identity matrix.
func Identity() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Mul returns m * v.
func Mul(m Mat3, v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Camera is a position and a world-to-camera rotation.
type Camera struct {
	Position Vec3
	Rotation Mat3
}

// CameraFromFloats decodes the in-memory camera transform: three position
// floats followed by the nine rotation floats in row-major order.
func CameraFromFloats(f [12]float32) Camera {
	var c Camera
	c.Position = Vec3{float64(f[0]), float64(f[1]), float64(f[2])}
	for r := 0; r < 3; r++ {
		for col := 0; col < 3; col++ {
			c.Rotation[r][col] = float64(f[3+r*3+col])
		}
	}
	return c
}

// Screen describes the reference viewport points are projected onto.
type Screen struct {
	Width, Height   float64
	HorizontalFOV   float64 // degrees
	RightIsNegative bool    // camera-space +Y points left
}

// ProjectHFOV projects world point x seen from camera position c with
// rotation r onto a width x height screen with a horizontal field of view
// of fovDeg degrees. Points on or behind the camera plane return NaN and
// false. onScreen is false for points outside the viewport as well.
func ProjectHFOV(x, c Vec3, r Mat3, width, height, fovDeg float64, rightIsNegative bool) (u, v float64, onScreen bool) {
	cam := Mul(r, Sub(x, c))
	if cam.X <= 0 {
		return math.NaN(), math.NaN(), false
	}

	fh := fovDeg * math.Pi / 180
	aspect := width / height
	fv := 2 * math.Atan(math.Tan(fh/2)/aspect)

	kx := (width / 2) / math.Tan(fh/2)
	ky := (height / 2) / math.Tan(fv/2)

	signX := 1.0
	if rightIsNegative {
		signX = -1.0
	}

	u = width/2 + signX*kx*(cam.Y/cam.X)
	v = height/2 - ky*(cam.Z/cam.X)

	onScreen = u >= 0 && u <= width && v >= 0 && v <= height
	return u, v, onScreen
}

// Project is ProjectHFOV for a camera and screen.
func (s Screen) Project(cam Camera, x Vec3) (u, v float64, onScreen bool) {
	return ProjectHFOV(x, cam.Position, cam.Rotation, s.Width, s.Height, s.HorizontalFOV, s.RightIsNegative)
}
