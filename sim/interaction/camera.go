package interaction

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera looking at a target. Screen coordinates are
// in pixels with the origin at the top-left of the viewport.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	FovY     float32 // degrees
	Near     float32
	Far      float32
	Width    int
	Height   int
}

// DefaultCamera sits 6 units in front of the origin looking down -Z.
func DefaultCamera(width, height int) Camera {
	return Camera{
		Position: mgl32.Vec3{0, 0, 6},
		Target:   mgl32.Vec3{0, 0, 0},
		Up:       mgl32.Vec3{0, 1, 0},
		FovY:     75,
		Near:     0.1,
		Far:      1000,
		Width:    width,
		Height:   height,
	}
}

// View returns the look-at matrix.
func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// Projection returns the perspective matrix for the viewport aspect.
func (c Camera) Projection() mgl32.Mat4 {
	aspect := float32(1)
	if c.Height > 0 {
		aspect = float32(c.Width) / float32(c.Height)
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// Ray returns the world-space ray through screen point (x, y).
func (c Camera) Ray(x, y float32) (origin, dir mgl32.Vec3, err error) {
	view, proj := c.View(), c.Projection()
	winY := float32(c.Height) - y
	near, err := mgl32.UnProject(mgl32.Vec3{x, winY, 0}, view, proj, 0, 0, c.Width, c.Height)
	if err != nil {
		return origin, dir, err
	}
	far, err := mgl32.UnProject(mgl32.Vec3{x, winY, 1}, view, proj, 0, 0, c.Width, c.Height)
	if err != nil {
		return origin, dir, err
	}
	return near, far.Sub(near).Normalize(), nil
}

// ProjectToPlane intersects the ray through (x, y) with the z=0 plane.
// ok is false when the ray is parallel to the plane or points away from it.
func (c Camera) ProjectToPlane(x, y float32) (mgl32.Vec3, bool) {
	origin, dir, err := c.Ray(x, y)
	if err != nil || math.Abs(float64(dir.Z())) < 1e-6 {
		return mgl32.Vec3{}, false
	}
	t := -origin.Z() / dir.Z()
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	return origin.Add(dir.Mul(t)), true
}

// DistanceSq returns the squared distance from the camera to p.
func (c Camera) DistanceSq(p mgl32.Vec3) float32 {
	d := p.Sub(c.Position)
	return d.Dot(d)
}
