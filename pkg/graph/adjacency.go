// Package graph builds the face adjacency graph of a triangle mesh.
//
// Two faces are neighbours when they share at least one vertex. The graph
// is derived from two short-lived index maps, face→points and
// point→faces, instead of back-references between faces and vertices.
package graph

import (
	"errors"
	"fmt"
	"sort"
)

// ErrConsistency is returned when a neighbour references a face that has
// no catalogue position. It indicates a pipeline bug, not bad input.
var ErrConsistency = errors.New("adjacency consistency violation")

// IndexSet is a sorted list of distinct indices.
type IndexSet []int

// Contains reports whether i is in the set.
func (s IndexSet) Contains(i int) bool {
	n := sort.SearchInts(s, i)
	return n < len(s) && s[n] == i
}

// FacePoints maps a face index to the points it uses.
type FacePoints []IndexSet

// PointFaces maps a point index to the faces that use it.
type PointFaces []IndexSet

// BuildMaps derives both maps from per-face vertex index lists. faces[i]
// holds the vertices of host face i; pointCount is the number of host
// vertices (points beyond the highest referenced index get empty sets).
func BuildMaps(faces [][3]int, pointCount int) (FacePoints, PointFaces) {
	fp := make(FacePoints, len(faces))
	pf := make(PointFaces, pointCount)

	for fi, verts := range faces {
		fp[fi] = normalize(verts[:])
		for _, p := range fp[fi] {
			if p < 0 {
				continue
			}
			if p >= len(pf) {
				grown := make(PointFaces, p+1)
				copy(grown, pf)
				pf = grown
			}
			// Faces are visited in ascending order so pf stays sorted.
			pf[p] = append(pf[p], fi)
		}
	}
	return fp, pf
}

// Neighbors returns, for every face, the sorted set of faces sharing at
// least one point with it. A face is never its own neighbour.
func Neighbors(fp FacePoints, pf PointFaces) []IndexSet {
	out := make([]IndexSet, len(fp))
	for f, points := range fp {
		var near []int
		for _, p := range points {
			if p < 0 || p >= len(pf) {
				continue
			}
			for _, other := range pf[p] {
				if other != f {
					near = append(near, other)
				}
			}
		}
		out[f] = normalize(near)
	}
	return out
}

// Remap translates neighbour sets keyed and valued by host face index into
// catalogue positions. oldToNew[h] is the catalogue position of host face
// h, or -1 when the face was not catalogued. The result is indexed by
// catalogue position.
func Remap(neighbors []IndexSet, oldToNew []int) ([]IndexSet, error) {
	out := make([]IndexSet, len(neighbors))
	lookup := func(old int) (int, error) {
		if old < 0 || old >= len(oldToNew) || oldToNew[old] < 0 || oldToNew[old] >= len(out) {
			return 0, fmt.Errorf("%w: face %d has no catalogue position", ErrConsistency, old)
		}
		return oldToNew[old], nil
	}

	for old, near := range neighbors {
		pos, err := lookup(old)
		if err != nil {
			return nil, err
		}
		mapped := make([]int, 0, len(near))
		for _, n := range near {
			np, err := lookup(n)
			if err != nil {
				return nil, fmt.Errorf("neighbour of face %d: %w", old, err)
			}
			mapped = append(mapped, np)
		}
		out[pos] = normalize(mapped)
	}
	return out, nil
}

// normalize returns a sorted, duplicate-free copy of ids.
func normalize(ids []int) IndexSet {
	if len(ids) == 0 {
		return IndexSet{}
	}
	s := append(IndexSet(nil), ids...)
	sort.Ints(s)
	n := 1
	for i := 1; i < len(s); i++ {
		if s[i] != s[n-1] {
			s[n] = s[i]
			n++
		}
	}
	return s[:n]
}
