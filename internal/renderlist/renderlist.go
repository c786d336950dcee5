// Package renderlist collects the visible drawable nodes of a scene graph each
// frame and orders them for drawing: opaque near-to-far, transparent far-to-near.
package renderlist

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"scenerender/internal/frustum"
	"scenerender/internal/scene"
)

// Options tune visibility collection.
type Options struct {
	// ForceMeshVisible skips the frustum test for every node carrying a mesh.
	ForceMeshVisible bool
}

// Stats describe the most recent Build.
type Stats struct {
	Visited     int
	Culled      int
	Opaque      int
	Transparent int
}

// Lists holds non-owning references into the live scene graph. They are only
// valid between Build and Clear within one frame.
type Lists struct {
	opts        Options
	opaque      []scene.Node
	transparent []scene.Node
	stats       Stats
}

func New(opts Options) *Lists { return &Lists{opts: opts} }

func (l *Lists) Options() Options     { return l.opts }
func (l *Lists) SetOptions(o Options) { l.opts = o }

// Build walks the graph from root depth-first in pre-order and appends every
// visible drawable node to the opaque or transparent list by its alpha. The
// squared distance from camera is stored on each collected node. Children are
// always visited, so a culled group can still contribute visible descendants.
// A nil frustum treats everything as visible.
func (l *Lists) Build(root scene.Node, f *frustum.Frustum, camera mgl32.Vec3) {
	if root == nil {
		return
	}
	l.collect(root, f, camera)
	l.stats.Opaque = len(l.opaque)
	l.stats.Transparent = len(l.transparent)
}

func (l *Lists) collect(n scene.Node, f *frustum.Frustum, camera mgl32.Vec3) {
	b := n.AsBase()
	l.stats.Visited++
	if n.Drawable() {
		if l.visible(n, f) {
			dir := b.Position().Sub(camera)
			b.SetCameraDistance(dir.Dot(dir))
			if n.Transparent() {
				l.transparent = append(l.transparent, n)
			} else {
				l.opaque = append(l.opaque, n)
			}
		} else {
			l.stats.Culled++
		}
	}
	for _, c := range b.Children() {
		l.collect(c, f, camera)
	}
}

func (l *Lists) visible(n scene.Node, f *frustum.Frustum) bool {
	b := n.AsBase()
	switch {
	case f == nil, b.AlwaysVisible(), l.opts.ForceMeshVisible:
		return true
	default:
		return f.InsideFrustum(b)
	}
}

// Sort orders the opaque list by ascending and the transparent list by
// descending camera distance. Ties keep traversal order.
func (l *Lists) Sort() {
	slices.SortStableFunc(l.opaque, func(a, b scene.Node) int {
		return cmp.Compare(a.AsBase().CameraDistance(), b.AsBase().CameraDistance())
	})
	slices.SortStableFunc(l.transparent, func(a, b scene.Node) int {
		return cmp.Compare(b.AsBase().CameraDistance(), a.AsBase().CameraDistance())
	})
}

// Clear empties both lists and the stats, keeping capacity.
func (l *Lists) Clear() {
	clear(l.opaque)
	clear(l.transparent)
	l.opaque = l.opaque[:0]
	l.transparent = l.transparent[:0]
	l.stats = Stats{}
}

func (l *Lists) Opaque() []scene.Node      { return l.opaque }
func (l *Lists) Transparent() []scene.Node { return l.transparent }
func (l *Lists) Stats() Stats              { return l.stats }
