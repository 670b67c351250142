package mesh

import (
	"fmt"
)

// Snapshot is a read-only capture of a host mesh plus its area metadata.
// Faces are stored in host order, so Faces[i].Index == i for snapshots
// built by this package.
type Snapshot struct {
	Name        string
	Description string
	Vertices    []Point
	Faces       []RawFace
	Materials   []Material
	Areas       []Area
}

// FaceNormal returns the unit normal of the triangle (a, b, c) using the
// right-hand winding rule.
func FaceNormal(a, b, c Point) Point {
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

// FacePoints returns the positions of a face's vertices.
func (s *Snapshot) FacePoints(f RawFace) [3]Point {
	return [3]Point{s.Vertices[f.Vertices[0]], s.Vertices[f.Vertices[1]], s.Vertices[f.Vertices[2]]}
}

// ComputeNormals fills every face normal from its vertex positions.
func (s *Snapshot) ComputeNormals() {
	for i := range s.Faces {
		p := s.FacePoints(s.Faces[i])
		s.Faces[i].Normal = FaceNormal(p[0], p[1], p[2])
	}
}

// Validate checks that faces are sequentially indexed and reference
// existing vertices, and that every area is well formed.
func (s *Snapshot) Validate() error {
	for i, f := range s.Faces {
		if f.Index != i {
			return fmt.Errorf("%w: face at position %d has index %d", ErrInvalidFace, i, f.Index)
		}
		for _, v := range f.Vertices {
			if v < 0 || v >= len(s.Vertices) {
				return fmt.Errorf("%w: face %d references vertex %d of %d", ErrInvalidFace, i, v, len(s.Vertices))
			}
		}
		if f.AreaIndex < 0 {
			return fmt.Errorf("%w: face %d has negative area index %d", ErrInvalidFace, i, f.AreaIndex)
		}
	}

	seen := make(map[int]bool, len(s.Areas))
	for _, a := range s.Areas {
		if err := a.Validate(); err != nil {
			return err
		}
		if seen[a.Index] {
			return fmt.Errorf("%w %d: duplicate area index", ErrInvalidArea, a.Index)
		}
		seen[a.Index] = true
	}
	return nil
}

// AreaTable indexes areas by their area index.
type AreaTable map[int]Area

// AreaTable builds the lookup used to resolve face area indices.
func (s *Snapshot) AreaTable() AreaTable {
	t := make(AreaTable, len(s.Areas))
	for _, a := range s.Areas {
		t[a.Index] = a
	}
	return t
}

// Resolve returns the area a face belongs to. ok is false for unmarked
// faces and for material slots that carry no area (such as the
// calibration reference faces).
func (t AreaTable) Resolve(f RawFace) (Area, bool) {
	if !f.Marked() {
		return Area{}, false
	}
	a, ok := t[f.AreaIndex]
	return a, ok
}

// materialName returns the name of a material slot, or "".
func (s *Snapshot) materialName(slot int) string {
	if slot < 0 || slot >= len(s.Materials) {
		return ""
	}
	return s.Materials[slot].Name
}

// ReferencePoints returns the vertex positions of the faces carrying the
// xzFace and yzFace materials, in face order.
func (s *Snapshot) ReferencePoints() (xz, yz []Point) {
	for _, f := range s.Faces {
		pts := s.FacePoints(f)
		switch s.materialName(f.AreaIndex) {
		case MaterialXZFace:
			xz = append(xz, pts[:]...)
		case MaterialYZFace:
			yz = append(yz, pts[:]...)
		}
	}
	return xz, yz
}
