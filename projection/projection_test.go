package projection

import (
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestProjectCenter(t *testing.T) {
	u, v, ok := ProjectHFOV(Vec3{5, 0, 0}, Vec3{}, Identity(), 2560, 1440, 110, true)
	if !ok || !near(u, 1280) || !near(v, 720) {
		t.Fatalf("center projected to (%v, %v, %v)", u, v, ok)
	}
}

func TestProjectBehindCamera(t *testing.T) {
	for _, x := range []Vec3{{0, 1, 1}, {-3, 0, 0}} {
		u, v, ok := ProjectHFOV(x, Vec3{}, Identity(), 2560, 1440, 110, true)
		if ok || !math.IsNaN(u) || !math.IsNaN(v) {
			t.Fatalf("%v: got (%v, %v, %v), want NaN", x, u, v, ok)
		}
	}
}

func TestProjectEdgeOfFOV(t *testing.T) {
	// a point at exactly half the horizontal FOV lands on the screen edge
	half := 55 * math.Pi / 180
	x := Vec3{1, math.Tan(half), 0}

	u, _, _ := ProjectHFOV(x, Vec3{}, Identity(), 2560, 1440, 110, false)
	if !near(u, 2560) {
		t.Fatalf("u = %v, want 2560", u)
	}

	u, _, _ = ProjectHFOV(x, Vec3{}, Identity(), 2560, 1440, 110, true)
	if !near(u, 0) {
		t.Fatalf("mirrored u = %v, want 0", u)
	}
}

func TestProjectVertical(t *testing.T) {
	// vertical FOV follows from the horizontal one and the aspect ratio
	fh := 90 * math.Pi / 180
	fv := 2 * math.Atan(math.Tan(fh/2)/(1600.0/900.0))
	x := Vec3{1, 0, math.Tan(fv / 2)}

	_, v, _ := ProjectHFOV(x, Vec3{}, Identity(), 1600, 900, 90, true)
	if !near(v, 0) {
		t.Fatalf("v = %v, want 0 (top edge)", v)
	}
}

func TestProjectUsesCameraTransform(t *testing.T) {
	// camera at (10,0,0) looking down -X: rotate 180 degrees around Z
	r := Mat3{{-1, 0, 0}, {0, -1, 0}, {0, 0, 1}}
	u, v, ok := ProjectHFOV(Vec3{4, 0, 0}, Vec3{10, 0, 0}, r, 800, 600, 90, true)
	if !ok || !near(u, 400) || !near(v, 300) {
		t.Fatalf("got (%v, %v, %v)", u, v, ok)
	}
}

func TestCameraFromFloats(t *testing.T) {
	f := [12]float32{1, 2, 3, 1, 0, 0, 0, 0, -1, 0, 1, 0}
	c := CameraFromFloats(f)
	if c.Position != (Vec3{1, 2, 3}) {
		t.Fatalf("position %v", c.Position)
	}
	want := Mat3{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}}
	if c.Rotation != want {
		t.Fatalf("rotation %v, want %v", c.Rotation, want)
	}
}

func TestDistance(t *testing.T) {
	if d := Distance(Vec3{1, 2, 3}, Vec3{4, 6, 3}); !near(d, 5) {
		t.Fatalf("Distance = %v", d)
	}
}

func TestScreenProject(t *testing.T) {
	s := Screen{Width: 2560, Height: 1440, HorizontalFOV: 110, RightIsNegative: true}
	cam := Camera{Position: Vec3{}, Rotation: Identity()}
	if _, _, ok := s.Project(cam, Vec3{1, 100, 0}); ok {
		t.Fatal("point far to the side reported on screen")
	}
}
