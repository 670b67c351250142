package formats

import (
	"errors"
	"fmt"

	"github.com/Faultbox/magic-maker/pkg/mesh"
)

// Shared record errors.
var (
	ErrNotTriangle      = errors.New("face is not a triangle")
	ErrVertexOutOfRange = errors.New("vertex index out of range")
)

// MaterialRecord is a material slot as stored in JSON files.
type MaterialRecord struct {
	Name    string     `json:"name"`
	Diffuse float64    `json:"diffuse"`
	Color   [3]float64 `json:"color"`
}

// AreaRecord is an area as stored in JSON files.
type AreaRecord struct {
	AreaIndex   int        `json:"area_index"`
	AreaLabel   string     `json:"area_label"`
	AreaContent string     `json:"area_content"`
	AreaGesture string     `json:"area_gesture"`
	AreaColor   [4]float64 `json:"area_color"`
}

func materialRecords(ms []mesh.Material) Indexed[MaterialRecord] {
	out := make(Indexed[MaterialRecord], len(ms))
	for i, mt := range ms {
		out[i] = MaterialRecord{Name: mt.Name, Diffuse: mt.Diffuse, Color: mt.Color}
	}
	return out
}

func materialsFrom(rs Indexed[MaterialRecord]) []mesh.Material {
	out := make([]mesh.Material, len(rs))
	for i, r := range rs {
		out[i] = mesh.Material{Name: r.Name, Diffuse: r.Diffuse, Color: r.Color}
	}
	return out
}

func areaRecords(as []mesh.Area) Indexed[AreaRecord] {
	out := make(Indexed[AreaRecord], len(as))
	for i, a := range as {
		out[i] = AreaRecord{
			AreaIndex:   a.Index,
			AreaLabel:   a.Label,
			AreaContent: a.Content,
			AreaGesture: a.Gesture.String(),
			AreaColor:   a.Color,
		}
	}
	return out
}

func areasFrom(rs Indexed[AreaRecord]) ([]mesh.Area, error) {
	out := make([]mesh.Area, len(rs))
	for i, r := range rs {
		g, err := mesh.ParseGesture(r.AreaGesture)
		if err != nil {
			return nil, fmt.Errorf("area %d: %w", r.AreaIndex, err)
		}
		out[i] = mesh.Area{
			Index:   r.AreaIndex,
			Label:   r.AreaLabel,
			Content: r.AreaContent,
			Gesture: g,
			Color:   r.AreaColor,
		}
	}
	return out, nil
}

func pointRecords(ps []mesh.Point) [][3]float64 {
	out := make([][3]float64, len(ps))
	for i, p := range ps {
		out[i] = p.Array()
	}
	return out
}

func pointsFrom(rs [][3]float64) []mesh.Point {
	out := make([]mesh.Point, len(rs))
	for i, r := range rs {
		out[i] = mesh.Point{X: r[0], Y: r[1], Z: r[2]}
	}
	return out
}

// triangle validates a face vertex list against the vertex count.
func triangle(face int, verts []int, vertexCount int) ([3]int, error) {
	if len(verts) != 3 {
		return [3]int{}, fmt.Errorf("%w: face %d has %d vertices", ErrNotTriangle, face, len(verts))
	}
	var t [3]int
	for i, v := range verts {
		if v < 0 || v >= vertexCount {
			return [3]int{}, fmt.Errorf("%w: face %d uses vertex %d of %d", ErrVertexOutOfRange, face, v, vertexCount)
		}
		t[i] = v
	}
	return t, nil
}
