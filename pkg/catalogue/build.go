package catalogue

import (
	"fmt"

	"github.com/Faultbox/magic-maker/pkg/calibrate"
	"github.com/Faultbox/magic-maker/pkg/formats"
	"github.com/Faultbox/magic-maker/pkg/graph"
	m "github.com/Faultbox/magic-maker/pkg/math"
	"github.com/Faultbox/magic-maker/pkg/mesh"
)

// Face is a catalogued face in the calibrated frame.
type Face struct {
	Index    int // catalogue position
	Origin   int // host face index
	Marked   bool
	Label    string
	Content  string
	Gesture  string
	Color    mesh.Color
	Vertices [3]m.Vec3
	Normal   m.Vec3
	IsOrigin bool // one of the vertices is the calibration origin B
	Near     []int
}

// Catalogue is the ordered, calibrated face list of one model.
type Catalogue struct {
	Name  string
	Intro string
	Faces []Face

	// OldToNew maps host face indices to catalogue positions.
	OldToNew []int
}

// Build orders the staged faces (marked first, then unmarked), converts
// their geometry through frame and resolves each face's neighbours into
// catalogue positions.
func Build(rec *formats.StagedRecord, frame *calibrate.Frame) (*Catalogue, error) {
	hostFaces := len(rec.FacePoints)
	if n := rec.FaceCount(); n != hostFaces {
		return nil, fmt.Errorf("%w: %d staged faces but %d face map entries", graph.ErrConsistency, n, hostFaces)
	}

	c := &Catalogue{
		Name:     rec.Name,
		Intro:    rec.Description,
		Faces:    make([]Face, 0, hostFaces),
		OldToNew: make([]int, hostFaces),
	}
	for i := range c.OldToNew {
		c.OldToNew[i] = -1
	}

	for _, group := range [][]formats.StagedFace{rec.Marked, rec.Unmarked} {
		for _, sf := range group {
			if sf.Origin < 0 || sf.Origin >= hostFaces {
				return nil, fmt.Errorf("%w: staged face %d outside the face map", graph.ErrConsistency, sf.Origin)
			}
			if c.OldToNew[sf.Origin] >= 0 {
				return nil, fmt.Errorf("%w: host face %d staged twice", graph.ErrConsistency, sf.Origin)
			}

			pos := len(c.Faces)
			c.OldToNew[sf.Origin] = pos

			f := Face{
				Index:    pos,
				Origin:   sf.Origin,
				Marked:   sf.Marked,
				Label:    sf.Label,
				Content:  sf.Content,
				Gesture:  sf.Gesture,
				Color:    sf.Color,
				Normal:   frame.Normal(sf.Normal),
				IsOrigin: frame.IsOrigin(sf.Vertices[:]...),
			}
			for i, v := range sf.Vertices {
				f.Vertices[i] = frame.Point(v)
			}
			c.Faces = append(c.Faces, f)
		}
	}

	near, err := graph.Remap(graph.Neighbors(rec.FacePoints, rec.PointFaces), c.OldToNew)
	if err != nil {
		return nil, err
	}
	for i := range c.Faces {
		c.Faces[i].Near = near[i]
	}
	return c, nil
}

func xyz(v m.Vec3) formats.XYZ {
	return formats.XYZ{X: v.X, Y: v.Y, Z: v.Z}
}

// Document renders the catalogue in its device-facing form. Unmarked faces
// carry no color.
func (c *Catalogue) Document() *formats.Catalogue {
	doc := &formats.Catalogue{
		ModelName:  c.Name,
		ModelIntro: c.Intro,
		Faces:      make(formats.CatalogueFaces, len(c.Faces)),
	}
	for i, f := range c.Faces {
		cf := formats.CatalogueFace{
			Marked:  f.Marked,
			Index:   f.Index,
			Label:   f.Label,
			Content: f.Content,
			Normal:  xyz(f.Normal),
			Verts: formats.Verts{
				Vert1: xyz(f.Vertices[0]),
				Vert2: xyz(f.Vertices[1]),
				Vert3: xyz(f.Vertices[2]),
			},
			NearFaces: append(formats.Indexed[int]{}, f.Near...),
		}
		if f.Marked {
			rgb := f.Color.RGB()
			cf.Color = formats.FaceColor{RGB: formats.RGB{R: rgb[0], G: rgb[1], B: rgb[2]}, Valid: true}
		}
		doc.Faces[i] = cf
	}
	return doc
}

// Marked returns the number of marked faces.
func (c *Catalogue) Marked() int {
	n := 0
	for _, f := range c.Faces {
		if f.Marked {
			n++
		}
	}
	return n
}
