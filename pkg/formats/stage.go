// Staged record (MGST) format: the binary checkpoint between the
// intermediate JSON and the final catalogue.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/Faultbox/magic-maker/pkg/graph"
	"github.com/Faultbox/magic-maker/pkg/mesh"
)

const stageMagic = "MGST"

// Current staged record version.
const (
	StageVersionMajor uint8 = 1
	StageVersionMinor uint8 = 0
)

// Staged record errors.
var (
	ErrInvalidStageMagic       = errors.New("invalid staged record magic: expected 'MGST'")
	ErrUnsupportedStageVersion = errors.New("unsupported staged record version")
	ErrCorruptStage            = errors.New("corrupt staged record")
)

// StagedFace is a face ready for calibration: positions are still in host
// coordinates, labels are already normalized.
type StagedFace struct {
	Origin    int // host face index
	Marked    bool
	AreaIndex int
	Label     string
	Content   string
	Gesture   string
	Color     mesh.Color
	Vertices  [3]mesh.Point
	Normal    mesh.Point
}

// StagedRecord is the decoded staged checkpoint. Its parts follow the
// layout [[xz, yz], marked, unmarked, [name, description]], faceMap,
// pointMap.
type StagedRecord struct {
	XZ          []mesh.Point
	YZ          []mesh.Point
	Marked      []StagedFace
	Unmarked    []StagedFace
	Name        string
	Description string
	FacePoints  graph.FacePoints
	PointFaces  graph.PointFaces
}

// FaceCount returns the number of marked and unmarked faces.
func (r *StagedRecord) FaceCount() int {
	return len(r.Marked) + len(r.Unmarked)
}

// stageWriter accumulates little-endian fields and keeps the first error.
type stageWriter struct {
	buf bytes.Buffer
	err error
}

func (w *stageWriter) put(v any) {
	if w.err == nil {
		w.err = binary.Write(&w.buf, binary.LittleEndian, v)
	}
}

func (w *stageWriter) count(n int) {
	w.put(uint32(n))
}

func (w *stageWriter) str(s string) {
	w.count(len(s))
	if w.err == nil {
		w.buf.WriteString(s)
	}
}

func (w *stageWriter) point(p mesh.Point) {
	w.put([3]float64{p.X, p.Y, p.Z})
}

func (w *stageWriter) points(ps []mesh.Point) {
	w.count(len(ps))
	for _, p := range ps {
		w.point(p)
	}
}

func (w *stageWriter) face(f StagedFace) {
	w.put(uint32(f.Origin))
	w.put(f.Marked)
	w.put(uint32(f.AreaIndex))
	w.str(f.Label)
	w.str(f.Content)
	w.str(f.Gesture)
	w.put([4]float64(f.Color))
	for _, v := range f.Vertices {
		w.point(v)
	}
	w.point(f.Normal)
}

func (w *stageWriter) faces(fs []StagedFace) {
	w.count(len(fs))
	for _, f := range fs {
		w.face(f)
	}
}

func (w *stageWriter) sets(ss []graph.IndexSet) {
	w.count(len(ss))
	for _, s := range ss {
		w.count(len(s))
		for _, i := range s {
			w.put(uint32(i))
		}
	}
}

// WriteStage encodes a staged record.
func WriteStage(out io.Writer, r *StagedRecord) error {
	w := &stageWriter{}
	w.buf.WriteString(stageMagic)
	w.put(StageVersionMajor)
	w.put(StageVersionMinor)

	w.points(r.XZ)
	w.points(r.YZ)
	w.faces(r.Marked)
	w.faces(r.Unmarked)
	w.str(r.Name)
	w.str(r.Description)
	w.sets(r.FacePoints)
	w.sets(r.PointFaces)
	if w.err != nil {
		return fmt.Errorf("encoding staged record: %w", w.err)
	}

	sum := crc32.ChecksumIEEE(w.buf.Bytes())
	w.put(sum)
	if w.err != nil {
		return fmt.Errorf("encoding staged record: %w", w.err)
	}

	_, err := out.Write(w.buf.Bytes())
	return err
}

// stageReader reads little-endian fields and keeps the first error.
type stageReader struct {
	r   *bytes.Reader
	err error
}

func (r *stageReader) get(v any) {
	if r.err == nil {
		if err := binary.Read(r.r, binary.LittleEndian, v); err != nil {
			r.err = fmt.Errorf("%w: %v", ErrCorruptStage, err)
		}
	}
}

// count reads an element count and rejects counts that cannot fit in the
// remaining data given the minimum encoded element size.
func (r *stageReader) count(minSize int) int {
	var n uint32
	r.get(&n)
	if r.err != nil {
		return 0
	}
	if int64(n)*int64(minSize) > int64(r.r.Len()) {
		r.err = fmt.Errorf("%w: count %d exceeds remaining %d bytes", ErrCorruptStage, n, r.r.Len())
		return 0
	}
	return int(n)
}

func (r *stageReader) str() string {
	n := r.count(1)
	if r.err != nil || n == 0 {
		return ""
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		r.err = fmt.Errorf("%w: %v", ErrCorruptStage, err)
		return ""
	}
	return string(b)
}

func (r *stageReader) point() mesh.Point {
	var a [3]float64
	r.get(&a)
	return mesh.Point{X: a[0], Y: a[1], Z: a[2]}
}

func (r *stageReader) points() []mesh.Point {
	n := r.count(24)
	out := make([]mesh.Point, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, r.point())
	}
	return out
}

// minFaceSize is the encoded size of a face with empty strings.
const minFaceSize = 4 + 1 + 4 + 3*4 + 4*8 + 4*3*8

func (r *stageReader) face() StagedFace {
	var f StagedFace
	var origin, area uint32
	r.get(&origin)
	r.get(&f.Marked)
	r.get(&area)
	f.Origin = int(origin)
	f.AreaIndex = int(area)
	f.Label = r.str()
	f.Content = r.str()
	f.Gesture = r.str()
	var c [4]float64
	r.get(&c)
	f.Color = mesh.Color(c)
	for i := range f.Vertices {
		f.Vertices[i] = r.point()
	}
	f.Normal = r.point()
	return f
}

func (r *stageReader) faces() []StagedFace {
	n := r.count(minFaceSize)
	out := make([]StagedFace, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, r.face())
	}
	return out
}

func (r *stageReader) sets() []graph.IndexSet {
	n := r.count(4)
	out := make([]graph.IndexSet, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		m := r.count(4)
		set := make(graph.IndexSet, m)
		for j := 0; j < m && r.err == nil; j++ {
			var v uint32
			r.get(&v)
			set[j] = int(v)
		}
		out = append(out, set)
	}
	return out
}

// ParseStage decodes a staged record, verifying magic, version and the
// trailing CRC-32 so that a truncated or partially written checkpoint is
// never consumed.
func ParseStage(data []byte) (*StagedRecord, error) {
	const headerSize = len(stageMagic) + 2
	if len(data) < headerSize+4 {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorruptStage, len(data))
	}
	if string(data[:len(stageMagic)]) != stageMagic {
		return nil, ErrInvalidStageMagic
	}
	major, minor := data[4], data[5]
	if major != StageVersionMajor {
		return nil, fmt.Errorf("%w: %d.%d", ErrUnsupportedStageVersion, major, minor)
	}

	body := data[:len(data)-4]
	want := binary.LittleEndian.Uint32(data[len(data)-4:])
	if got := crc32.ChecksumIEEE(body); got != want {
		return nil, fmt.Errorf("%w: checksum mismatch (got %08x, want %08x)", ErrCorruptStage, got, want)
	}

	r := &stageReader{r: bytes.NewReader(body[headerSize:])}
	rec := &StagedRecord{}
	rec.XZ = r.points()
	rec.YZ = r.points()
	rec.Marked = r.faces()
	rec.Unmarked = r.faces()
	rec.Name = r.str()
	rec.Description = r.str()
	rec.FacePoints = r.sets()
	rec.PointFaces = r.sets()
	if r.err != nil {
		return nil, r.err
	}
	if r.r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptStage, r.r.Len())
	}
	if err := rec.validateFloats(); err != nil {
		return nil, err
	}
	return rec, nil
}

// validateFloats rejects NaN and infinite coordinates.
func (r *StagedRecord) validateFloats() error {
	bad := func(p mesh.Point) bool {
		for _, v := range p.Array() {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
		return false
	}
	for _, p := range append(append([]mesh.Point{}, r.XZ...), r.YZ...) {
		if bad(p) {
			return fmt.Errorf("%w: non-finite reference point %v", ErrCorruptStage, p)
		}
	}
	for _, group := range [][]StagedFace{r.Marked, r.Unmarked} {
		for _, f := range group {
			if bad(f.Normal) || bad(f.Vertices[0]) || bad(f.Vertices[1]) || bad(f.Vertices[2]) {
				return fmt.Errorf("%w: non-finite geometry on face %d", ErrCorruptStage, f.Origin)
			}
		}
	}
	return nil
}
