package formats

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Faultbox/magic-maker/pkg/mesh"
)

// IntermediateFace is a face of the intermediate snapshot.
type IntermediateFace struct {
	Vertices  []int      `json:"vertices"`
	Normal    [3]float64 `json:"normal"`
	AreaIndex int        `json:"area_index"`
}

// Intermediate is the first durable export artifact: the raw host snapshot
// plus the reference-face vertex lists used for calibration.
type Intermediate struct {
	Vertices         Indexed[[3]float64]       `json:"vertices"`
	Faces            Indexed[IntermediateFace] `json:"faces"`
	Materials        Indexed[MaterialRecord]   `json:"materials"`
	Areas            Indexed[AreaRecord]       `json:"areas"`
	XZ               [][3]float64              `json:"xz"`
	YZ               [][3]float64              `json:"yz"`
	ModelName        string                    `json:"modelname"`
	ModelDescription string                    `json:"modeldescription"`
}

// NewIntermediate captures a snapshot without transforming it.
func NewIntermediate(s *mesh.Snapshot) *Intermediate {
	xz, yz := s.ReferencePoints()

	faces := make(Indexed[IntermediateFace], len(s.Faces))
	for i, f := range s.Faces {
		faces[i] = IntermediateFace{
			Vertices:  f.Vertices[:],
			Normal:    f.Normal.Array(),
			AreaIndex: f.AreaIndex,
		}
	}

	return &Intermediate{
		Vertices:         pointRecords(s.Vertices),
		Faces:            faces,
		Materials:        materialRecords(s.Materials),
		Areas:            areaRecords(s.Areas),
		XZ:               pointRecords(xz),
		YZ:               pointRecords(yz),
		ModelName:        s.Name,
		ModelDescription: s.Description,
	}
}

// Snapshot converts the artifact back into a mesh snapshot.
func (in *Intermediate) Snapshot() (*mesh.Snapshot, error) {
	s := &mesh.Snapshot{
		Name:        in.ModelName,
		Description: in.ModelDescription,
		Vertices:    pointsFrom(in.Vertices),
		Materials:   materialsFrom(in.Materials),
		Faces:       make([]mesh.RawFace, len(in.Faces)),
	}

	for i, f := range in.Faces {
		verts, err := triangle(i, f.Vertices, len(s.Vertices))
		if err != nil {
			return nil, err
		}
		s.Faces[i] = mesh.RawFace{
			Index:     i,
			Vertices:  verts,
			Normal:    mesh.Point{X: f.Normal[0], Y: f.Normal[1], Z: f.Normal[2]},
			AreaIndex: f.AreaIndex,
		}
	}

	areas, err := areasFrom(in.Areas)
	if err != nil {
		return nil, err
	}
	s.Areas = areas
	return s, nil
}

// Reference returns the stored xz and yz reference points.
func (in *Intermediate) Reference() (xz, yz []mesh.Point) {
	return pointsFrom(in.XZ), pointsFrom(in.YZ)
}

// WriteIntermediate encodes the artifact as indented JSON.
func WriteIntermediate(w io.Writer, in *Intermediate) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(in); err != nil {
		return fmt.Errorf("encoding intermediate: %w", err)
	}
	return nil
}

// ReadIntermediate decodes an intermediate artifact.
func ReadIntermediate(r io.Reader) (*Intermediate, error) {
	var in Intermediate
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decoding intermediate: %w", err)
	}
	return &in, nil
}
