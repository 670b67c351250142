package catalogue

import (
	"github.com/Faultbox/magic-maker/pkg/formats"
	"github.com/Faultbox/magic-maker/pkg/graph"
	"github.com/Faultbox/magic-maker/pkg/mesh"
)

// Stage partitions the snapshot's faces into marked and unmarked groups,
// keeping host order within each group, and records the face/point maps
// keyed by host indices. Geometry stays in host coordinates.
//
// A face is marked only when an area record owns its material slot. Faces
// on slots without a record (the calibration reference faces, or slots
// whose area was removed) are exported unmarked.
func Stage(s *mesh.Snapshot, labels Labels) *formats.StagedRecord {
	xz, yz := s.ReferencePoints()
	table := s.AreaTable()
	noLabel, placeholder := labels.Unmarked()

	rec := &formats.StagedRecord{
		XZ:          xz,
		YZ:          yz,
		Marked:      []formats.StagedFace{},
		Unmarked:    []formats.StagedFace{},
		Name:        s.Name,
		Description: s.Description,
	}

	verts := make([][3]int, len(s.Faces))
	for i, f := range s.Faces {
		verts[i] = f.Vertices

		sf := formats.StagedFace{
			Origin:   f.Index,
			Vertices: s.FacePoints(f),
			Normal:   f.Normal,
		}

		area, ok := table.Resolve(f)
		if !ok {
			sf.Label, sf.Content = noLabel, placeholder
			rec.Unmarked = append(rec.Unmarked, sf)
			continue
		}

		sf.Marked = true
		sf.AreaIndex = area.Index
		sf.Label = labels.Canonical(area.Label)
		sf.Content = area.Content
		sf.Gesture = area.Gesture.String()
		sf.Color = area.Color
		rec.Marked = append(rec.Marked, sf)
	}

	rec.FacePoints, rec.PointFaces = graph.BuildMaps(verts, len(s.Vertices))
	return rec
}
