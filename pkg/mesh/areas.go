package mesh

import (
	"fmt"
	"sort"
)

// AddArea labels the selected faces with a new area. A material named
// after the label is appended to the mesh (with a mainBody slot created
// first when the mesh has none), and an Area record is introduced for
// that slot unless one already owns it.
func (s *Snapshot) AddArea(selected []int, label, content string, gesture Gesture, color Color) (Area, error) {
	if len(selected) == 0 {
		return Area{}, ErrEmptySelection
	}
	for _, fi := range selected {
		if fi < 0 || fi >= len(s.Faces) {
			return Area{}, fmt.Errorf("%w: %d", ErrFaceOutOfRange, fi)
		}
	}

	if len(s.Materials) == 0 {
		s.Materials = append(s.Materials, Material{Name: MaterialMainBody, Diffuse: 1, Color: [3]float64{1, 1, 1}})
	}
	s.Materials = append(s.Materials, Material{Name: label, Diffuse: 1, Color: color.RGB()})
	slot := len(s.Materials) - 1

	area, exists := s.AreaTable()[slot]
	if !exists {
		area = Area{Index: slot, Label: label, Content: content, Gesture: gesture, Color: color}
		if err := area.Validate(); err != nil {
			s.Materials = s.Materials[:slot]
			return Area{}, err
		}
		s.Areas = append(s.Areas, area)
	}

	for _, fi := range selected {
		s.Faces[fi].AreaIndex = slot
	}
	return area, nil
}

// ClearAreas removes every area that owns at least one selected face.
// All faces pointing at a removed area are reset to unmarked. It returns
// the removed area indices in ascending order.
func (s *Snapshot) ClearAreas(selected []int) ([]int, error) {
	if len(selected) == 0 {
		return nil, ErrEmptySelection
	}

	table := s.AreaTable()
	doomed := make(map[int]bool)
	for _, fi := range selected {
		if fi < 0 || fi >= len(s.Faces) {
			return nil, fmt.Errorf("%w: %d", ErrFaceOutOfRange, fi)
		}
		if a, ok := table.Resolve(s.Faces[fi]); ok {
			doomed[a.Index] = true
		}
	}

	for i := range s.Faces {
		if doomed[s.Faces[i].AreaIndex] {
			s.Faces[i].AreaIndex = 0
		}
	}

	return s.dropAreas(doomed), nil
}

// PruneAreas removes area records that no face references and returns
// their indices in ascending order.
func (s *Snapshot) PruneAreas() []int {
	used := make(map[int]bool)
	for _, f := range s.Faces {
		used[f.AreaIndex] = true
	}

	stale := make(map[int]bool)
	for _, a := range s.Areas {
		if !used[a.Index] {
			stale[a.Index] = true
		}
	}
	return s.dropAreas(stale)
}

func (s *Snapshot) dropAreas(drop map[int]bool) []int {
	if len(drop) == 0 {
		return nil
	}

	kept := s.Areas[:0]
	var removed []int
	for _, a := range s.Areas {
		if drop[a.Index] {
			removed = append(removed, a.Index)
			continue
		}
		kept = append(kept, a)
	}
	s.Areas = kept
	sort.Ints(removed)
	return removed
}
