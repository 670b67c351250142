package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/magic-maker/internal/host"
	"github.com/Faultbox/magic-maker/pkg/calibrate"
	"github.com/Faultbox/magic-maker/pkg/catalogue"
	"github.com/Faultbox/magic-maker/pkg/formats"
	m "github.com/Faultbox/magic-maker/pkg/math"
	"github.com/Faultbox/magic-maker/pkg/mesh"
)

// sourceFunc adapts a function to host.Source.
type sourceFunc func(ctx context.Context) (*mesh.Snapshot, error)

func (f sourceFunc) Snapshot(ctx context.Context) (*mesh.Snapshot, error) { return f(ctx) }

// model returns a scaffolded tetrahedron with one labelled face. The xz
// face is B A C and the yz face is B D C.
func model(name string) *mesh.Snapshot {
	s := &mesh.Snapshot{
		Name:        name,
		Description: "scaffold test model",
		Vertices:    []mesh.Point{m.V3(0, 0, 0), m.V3(1, 0, 0), m.V3(0, 0, 1), m.V3(0, 1, 0)},
		Faces: []mesh.RawFace{
			{Index: 0, Vertices: [3]int{0, 1, 2}},
			{Index: 1, Vertices: [3]int{0, 3, 2}},
			{Index: 2, Vertices: [3]int{1, 3, 2}},
			{Index: 3, Vertices: [3]int{0, 1, 3}},
		},
		Materials: []mesh.Material{
			{Name: mesh.MaterialMainBody, Diffuse: 1, Color: [3]float64{1, 1, 1}},
			{Name: mesh.MaterialXZFace, Diffuse: 1, Color: [3]float64{1, 0, 0}},
			{Name: mesh.MaterialYZFace, Diffuse: 1, Color: [3]float64{0, 0, 1}},
		},
	}
	s.Faces[0].AreaIndex = 1
	s.Faces[1].AreaIndex = 2
	if _, err := s.AddArea([]int{2}, "Cockpit", "Pilot seat", mesh.GesturePoint, mesh.DefaultAreaColor); err != nil {
		panic(err)
	}
	s.ComputeNormals()
	return s
}

func staticSource(s *mesh.Snapshot) host.Source {
	return sourceFunc(func(context.Context) (*mesh.Snapshot, error) { return s, nil })
}

func newPipeline(t *testing.T, dir string) *Pipeline {
	return New(Options{
		OutputDir: dir,
		Labels:    catalogue.DefaultLabels(),
		Targets:   calibrate.DefaultTargets(2),
	}, zaptest.NewLogger(t))
}

func readCatalogue(t *testing.T, path string) *formats.Catalogue {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	c, err := formats.ReadCatalogue(f)
	require.NoError(t, err)
	return c
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	p := newPipeline(t, dir)

	res, err := p.Run(context.Background(), staticSource(model("plane")))
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, filepath.Join(dir, "plane.intermediate.json"), res.Intermediate)
	assert.Equal(t, filepath.Join(dir, "plane.stage"), res.Staged)
	assert.Equal(t, filepath.Join(dir, "plane.talkit.json"), res.Catalogue)
	assert.Equal(t, 4, res.Faces)
	assert.Equal(t, 1, res.Marked)
	assert.ElementsMatch(t, []string{"plane.intermediate.json", "plane.stage", "plane.talkit.json"}, dirEntries(t, dir))

	doc := readCatalogue(t, res.Catalogue)
	assert.Equal(t, "plane", doc.ModelName)
	assert.Equal(t, "scaffold test model", doc.ModelIntro)
	require.Len(t, doc.Faces, 4)

	cockpit := doc.Faces[0]
	assert.True(t, cockpit.Marked)
	assert.Equal(t, "cockpit", cockpit.Label)
	assert.Equal(t, "Pilot seat", cockpit.Content)
	assert.InDelta(t, 2, cockpit.Verts.Vert1.X, 1e-9)
	assert.InDelta(t, 2, cockpit.Verts.Vert2.Y, 1e-9)
	assert.InDelta(t, 2, cockpit.Verts.Vert3.Z, 1e-9)
	assert.Equal(t, formats.Indexed[int]{1, 2, 3}, cockpit.NearFaces)

	for _, f := range doc.Faces[1:] {
		assert.False(t, f.Marked)
		assert.False(t, f.Color.Valid)
		assert.Equal(t, "no label", f.Label)
		assert.Equal(t, "This face has no content.", f.Content)
	}
}

func TestFinalize_Idempotent(t *testing.T) {
	dir := t.TempDir()
	p := newPipeline(t, dir)

	res, err := p.Run(context.Background(), staticSource(model("jet")))
	require.NoError(t, err)
	first, err := os.ReadFile(res.Catalogue)
	require.NoError(t, err)

	path, err := p.Finalize(res.Staged)
	require.NoError(t, err)
	assert.Equal(t, res.Catalogue, path)
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStages(t *testing.T) {
	dir := t.TempDir()
	p := newPipeline(t, dir)

	snap, err := p.Snapshot(context.Background(), staticSource(model("glider")))
	require.NoError(t, err)

	in, err := p.WriteIntermediate(snap)
	require.NoError(t, err)
	staged, err := p.Stage(in)
	require.NoError(t, err)
	out, err := p.Finalize(staged)
	require.NoError(t, err)

	assert.Len(t, readCatalogue(t, out).Faces, 4)
}

func writeIntermediateFile(t *testing.T, path string, in *formats.Intermediate) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, formats.WriteIntermediate(f, in))
}

func TestStage_ReferenceFromIntermediate(t *testing.T) {
	dir := t.TempDir()
	p := newPipeline(t, dir)

	// No material carries a reference face name; only the stored xz and yz
	// lists locate the scaffold.
	snap := model("drone")
	snap.Materials[1].Name = "Red"
	snap.Materials[2].Name = "Blue"
	in := formats.NewIntermediate(snap)
	require.Empty(t, in.XZ)
	require.Empty(t, in.YZ)
	in.XZ = [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}}
	in.YZ = [][3]float64{{0, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	path := filepath.Join(dir, "drone"+IntermediateSuffix)
	writeIntermediateFile(t, path, in)

	staged, err := p.Stage(path)
	require.NoError(t, err)
	out, err := p.Finalize(staged)
	require.NoError(t, err)

	doc := readCatalogue(t, out)
	require.Len(t, doc.Faces, 4)
	cockpit := doc.Faces[0]
	assert.True(t, cockpit.Marked)
	assert.InDelta(t, 2, cockpit.Verts.Vert1.X, 1e-9)
	assert.InDelta(t, 2, cockpit.Verts.Vert2.Y, 1e-9)
	assert.InDelta(t, 2, cockpit.Verts.Vert3.Z, 1e-9)
}

func TestStages_NamedAfterModel(t *testing.T) {
	dir := t.TempDir()
	p := newPipeline(t, dir)

	src := filepath.Join(dir, "copy-1"+IntermediateSuffix)
	writeIntermediateFile(t, src, formats.NewIntermediate(model("plane")))

	staged, err := p.Stage(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "plane"+StageSuffix), staged)

	renamed := filepath.Join(dir, "other"+StageSuffix)
	require.NoError(t, os.Rename(staged, renamed))
	out, err := p.Finalize(renamed)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "plane"+CatalogueSuffix), out)

	assert.ElementsMatch(t,
		[]string{"copy-1" + IntermediateSuffix, "other" + StageSuffix, "plane" + CatalogueSuffix},
		dirEntries(t, dir))
}

func TestMissingInput(t *testing.T) {
	ctx := context.Background()

	noDir := New(Options{Labels: catalogue.DefaultLabels()}, nil)
	_, err := noDir.Run(ctx, staticSource(model("plane")))
	assert.True(t, errors.Is(err, ErrMissingInput), "got %v", err)
	_, err = noDir.Finalize("plane.stage")
	assert.True(t, errors.Is(err, ErrMissingInput), "got %v", err)

	p := newPipeline(t, t.TempDir())
	_, err = p.Run(ctx, nil)
	assert.True(t, errors.Is(err, ErrMissingInput), "got %v", err)
	_, err = p.Run(ctx, staticSource(model("")))
	assert.True(t, errors.Is(err, ErrMissingInput), "got %v", err)
	_, err = p.Stage("")
	assert.True(t, errors.Is(err, ErrMissingInput), "got %v", err)
	_, err = p.Finalize("")
	assert.True(t, errors.Is(err, ErrMissingInput), "got %v", err)

	_, err = p.Run(ctx, staticSource(model("../escape")))
	assert.True(t, errors.Is(err, ErrInvalidModelName), "got %v", err)
}

func TestFinalize_CorruptStage(t *testing.T) {
	dir := t.TempDir()
	p := newPipeline(t, dir)

	res, err := p.Run(context.Background(), staticSource(model("plane")))
	require.NoError(t, err)

	data, err := os.ReadFile(res.Staged)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(res.Staged, data[:len(data)/2], 0644))

	_, err = p.Finalize(res.Staged)
	assert.True(t, errors.Is(err, formats.ErrCorruptStage), "got %v", err)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*mesh.Snapshot)
		wantErr error
	}{
		{
			name: "missing yz face",
			mutate: func(s *mesh.Snapshot) {
				s.Faces[1].AreaIndex = 0
			},
			wantErr: calibrate.ErrMalformedScaffold,
		},
		{
			name: "flat scaffold",
			mutate: func(s *mesh.Snapshot) {
				// D moves into the xz plane, so A, B, C, D are coplanar.
				s.Vertices[3] = m.V3(1, 0, 1)
			},
			wantErr: m.ErrSingularCalibration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			s := model("broken")
			tt.mutate(s)

			_, err := newPipeline(t, dir).Run(context.Background(), staticSource(s))
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Empty(t, dirEntries(t, dir), "failed run leaves no artifacts")
		})
	}
}

func TestRun_CancelledBetweenStages(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	src := sourceFunc(func(context.Context) (*mesh.Snapshot, error) {
		cancel()
		return model("plane"), nil
	})

	_, err := newPipeline(t, dir).Run(ctx, src)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.Empty(t, dirEntries(t, dir))
}

func TestRun_Concurrent(t *testing.T) {
	dir := t.TempDir()
	p := newPipeline(t, dir)

	var wg sync.WaitGroup
	errs := make(chan error, 12)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := p.Run(context.Background(), staticSource(model(fmt.Sprintf("model%d", i%3))))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, dirEntries(t, dir), 9, "three artifacts per model and no temp files")
	for i := 0; i < 3; i++ {
		doc := readCatalogue(t, filepath.Join(dir, fmt.Sprintf("model%d.talkit.json", i)))
		assert.Len(t, doc.Faces, 4)
	}
}
