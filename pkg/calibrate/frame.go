// Package calibrate recovers the real-world coordinate frame of a model from
// the two reference faces of its calibration scaffold.
//
// The xz face and the yz face share an edge. The vertex only on the xz face
// is A, the vertex only on the yz face is D, and the two shared vertices are
// B (nearer to A) and C (farther from A). Mapping A, B, C, D onto fixed
// real-world targets yields the affine transform applied to every exported
// vertex and normal.
package calibrate

import (
	"errors"
	"fmt"
	gomath "math"

	m "github.com/Faultbox/magic-maker/pkg/math"
)

// ErrMalformedScaffold is returned when the reference faces do not have the
// expected shape.
var ErrMalformedScaffold = errors.New("malformed scaffold")

// DefaultUnitSize is the real-world length of one target unit in the
// reference deployment.
const DefaultUnitSize = 14.0 / 30.0

// distanceTieEpsilon is the smallest |dist(A,T0) - dist(A,T1)| that still
// distinguishes B from C.
const distanceTieEpsilon = 1e-9

// Targets are the real-world positions the four calibration points map to.
type Targets struct {
	A, B, C, D m.Vec3
}

// DefaultTargets places B at the origin with A, D and C one unit along the
// x, y and z axes respectively, scaled by unit.
func DefaultTargets(unit float64) Targets {
	return Targets{
		A: m.V3(1, 0, 0).Scale(unit),
		B: m.V3(0, 0, 0),
		C: m.V3(0, 0, 1).Scale(unit),
		D: m.V3(0, 1, 0).Scale(unit),
	}
}

// Frame is a solved calibration.
type Frame struct {
	A, B, C, D m.Vec3 // source points in host coordinates
	Targets    Targets
	Transform  m.Mat4
}

// Calibrate identifies A, B, C, D from the xz and yz reference point lists
// and solves the transform onto targets. Input order does not matter and
// repeated points within one list are collapsed.
func Calibrate(xz, yz []m.Vec3, targets Targets) (*Frame, error) {
	xzSet := dedupe(xz)
	yzSet := dedupe(yz)

	onlyXZ := difference(xzSet, yzSet)
	onlyYZ := difference(yzSet, xzSet)
	shared := difference(xzSet, onlyXZ)

	if len(onlyXZ) != 1 {
		return nil, fmt.Errorf("%w: expected 1 point unique to the xz face, found %d", ErrMalformedScaffold, len(onlyXZ))
	}
	if len(onlyYZ) != 1 {
		return nil, fmt.Errorf("%w: expected 1 point unique to the yz face, found %d", ErrMalformedScaffold, len(onlyYZ))
	}
	if len(shared) != 2 {
		return nil, fmt.Errorf("%w: expected 2 points shared by the xz and yz faces, found %d", ErrMalformedScaffold, len(shared))
	}

	a, d := onlyXZ[0], onlyYZ[0]
	b, c := shared[0], shared[1]
	db, dc := a.Distance(b), a.Distance(c)
	if gomath.Abs(db-dc) < distanceTieEpsilon {
		return nil, fmt.Errorf("%w: shared points %v and %v are equidistant from %v", ErrMalformedScaffold, b, c, a)
	}
	if db > dc {
		b, c = c, b
	}

	transform, err := m.SolveAffine(
		[4]m.Vec3{a, b, c, d},
		[4]m.Vec3{targets.A, targets.B, targets.C, targets.D},
	)
	if err != nil {
		return nil, err
	}

	return &Frame{A: a, B: b, C: c, D: d, Targets: targets, Transform: transform}, nil
}

// Point converts a host-space point into the calibrated frame.
func (f *Frame) Point(p m.Vec3) m.Vec3 {
	return f.Transform.TransformPoint(p)
}

// Normal converts a host-space normal into the calibrated frame. See
// Mat4.TransformNormal for the shear caveat.
func (f *Frame) Normal(n m.Vec3) m.Vec3 {
	return f.Transform.TransformNormal(n)
}

// IsOrigin reports whether any of the points is the frame origin B.
func (f *Frame) IsOrigin(points ...m.Vec3) bool {
	for _, p := range points {
		if p == f.B {
			return true
		}
	}
	return false
}

func dedupe(points []m.Vec3) []m.Vec3 {
	seen := make(map[m.Vec3]bool, len(points))
	out := make([]m.Vec3, 0, len(points))
	for _, p := range points {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// difference returns the points of a not present in b, in a's order.
func difference(a, b []m.Vec3) []m.Vec3 {
	in := make(map[m.Vec3]bool, len(b))
	for _, p := range b {
		in[p] = true
	}
	var out []m.Vec3
	for _, p := range a {
		if !in[p] {
			out = append(out, p)
		}
	}
	return out
}
