// Package frustum extracts the six clip planes of a projection-view matrix and
// tests bounding spheres against them.
package frustum

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Plane indices in the order FromMatrix fills them.
const (
	Left = iota
	Right
	Bottom
	Top
	Near
	Far
	planeCount
)

// Plane is n·p + d = 0 with n pointing into the frustum.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// SignedDistance is positive on the inner side of the plane.
func (p Plane) SignedDistance(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.Distance
}

// SphereInside reports whether a sphere is not entirely behind the plane.
func (p Plane) SphereInside(centre mgl32.Vec3, radius float32) bool {
	return p.SignedDistance(centre) >= -radius
}

// Bounded is anything with a world position and a bounding sphere radius.
type Bounded interface {
	Position() mgl32.Vec3
	BoundingRadius() float32
}

// Frustum is the view volume of one frame.
type Frustum struct {
	Planes [planeCount]Plane
}

// FromMatrix returns the frustum of the combined projection*view matrix m.
func FromMatrix(m mgl32.Mat4) Frustum {
	var f Frustum
	f.FromMatrix(m)
	return f
}

// FromMatrix recomputes the planes from m (Gribb-Hartmann: row 3 plus or minus
// rows 0..2, each normalised).
func (f *Frustum) FromMatrix(m mgl32.Mat4) {
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	f.Planes[Left] = plane(r3.Add(r0))
	f.Planes[Right] = plane(r3.Sub(r0))
	f.Planes[Bottom] = plane(r3.Add(r1))
	f.Planes[Top] = plane(r3.Sub(r1))
	f.Planes[Near] = plane(r3.Add(r2))
	f.Planes[Far] = plane(r3.Sub(r2))
}

func plane(v mgl32.Vec4) Plane {
	n := v.Vec3()
	l := math32.Sqrt(n.Dot(n))
	if l == 0 {
		return Plane{Normal: n, Distance: v[3]}
	}
	return Plane{Normal: n.Mul(1 / l), Distance: v[3] / l}
}

// SphereInside reports whether any part of the sphere may be visible.
// A sphere with a non-positive radius has no meaningful bounds and counts as visible.
func (f *Frustum) SphereInside(centre mgl32.Vec3, radius float32) bool {
	if radius <= 0 || math32.IsNaN(radius) {
		return true
	}
	for _, p := range f.Planes {
		if !p.SphereInside(centre, radius) {
			return false
		}
	}
	return true
}

// InsideFrustum tests b's world position against every plane using its bounding radius.
func (f *Frustum) InsideFrustum(b Bounded) bool {
	return f.SphereInside(b.Position(), b.BoundingRadius())
}
