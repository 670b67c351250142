package formats

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Faultbox/magic-maker/pkg/mesh"
)

// ProjectFace is a face of the plain project file.
type ProjectFace struct {
	Vertices  []int `json:"vertices"`
	AreaIndex int   `json:"area_index"`
}

// Project is the round-trippable save format used to reload a model into
// the editor. It carries no normals, calibration or adjacency.
type Project struct {
	Vertices  Indexed[[3]float64]     `json:"vertices"`
	Faces     Indexed[ProjectFace]    `json:"faces"`
	Materials Indexed[MaterialRecord] `json:"materials"`
	Areas     Indexed[AreaRecord]     `json:"areas"`
	XZ        [][3]float64            `json:"xz"`
	YZ        [][3]float64            `json:"yz"`
}

// NewProject captures a snapshot in project form.
func NewProject(s *mesh.Snapshot) *Project {
	xz, yz := s.ReferencePoints()

	faces := make(Indexed[ProjectFace], len(s.Faces))
	for i, f := range s.Faces {
		faces[i] = ProjectFace{Vertices: f.Vertices[:], AreaIndex: f.AreaIndex}
	}

	return &Project{
		Vertices:  pointRecords(s.Vertices),
		Faces:     faces,
		Materials: materialRecords(s.Materials),
		Areas:     areaRecords(s.Areas),
		XZ:        pointRecords(xz),
		YZ:        pointRecords(yz),
	}
}

// Snapshot rebuilds a mesh snapshot from the project. Normals are left
// zero; call ComputeNormals on the result when they are needed.
func (p *Project) Snapshot() (*mesh.Snapshot, error) {
	s := &mesh.Snapshot{
		Vertices:  pointsFrom(p.Vertices),
		Materials: materialsFrom(p.Materials),
		Faces:     make([]mesh.RawFace, len(p.Faces)),
	}

	for i, f := range p.Faces {
		verts, err := triangle(i, f.Vertices, len(s.Vertices))
		if err != nil {
			return nil, err
		}
		s.Faces[i] = mesh.RawFace{Index: i, Vertices: verts, AreaIndex: f.AreaIndex}
	}

	areas, err := areasFrom(p.Areas)
	if err != nil {
		return nil, err
	}
	s.Areas = areas
	return s, nil
}

// WriteProject encodes a project as indented JSON.
func WriteProject(w io.Writer, p *Project) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encoding project: %w", err)
	}
	return nil
}

// ReadProject decodes a project file.
func ReadProject(r io.Reader) (*Project, error) {
	var p Project
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding project: %w", err)
	}
	return &p, nil
}
