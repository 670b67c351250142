// Package host connects the export pipeline to the mesh editor. The editor
// is an external collaborator; a project file on disk stands in for it so
// the pipeline runs from the command line.
package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/magic-maker/pkg/formats"
	"github.com/Faultbox/magic-maker/pkg/mesh"
)

// ErrNoProject is returned when a project source has no path.
var ErrNoProject = errors.New("no project file")

// Source captures the current mesh and its areas.
type Source interface {
	Snapshot(ctx context.Context) (*mesh.Snapshot, error)
}

// Sink receives a snapshot loaded back from a project file.
type Sink interface {
	Import(s *mesh.Snapshot) error
}

// ProjectFile reads and writes the plain project format. Name and
// Description label snapshots taken from it, since project files do not
// carry model metadata.
type ProjectFile struct {
	Path        string
	Name        string
	Description string
}

// ModelName returns Name, or the project file name without extension.
func (p *ProjectFile) ModelName() string {
	if p.Name != "" {
		return p.Name
	}
	base := filepath.Base(p.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Snapshot loads the project, computes face normals and validates the
// result.
func (p *ProjectFile) Snapshot(ctx context.Context) (*mesh.Snapshot, error) {
	if p.Path == "" {
		return nil, ErrNoProject
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(p.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	proj, err := formats.ReadProject(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Path, err)
	}

	s, err := proj.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Path, err)
	}
	s.Name = p.ModelName()
	s.Description = p.Description
	s.ComputeNormals()

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", p.Path, err)
	}
	return s, nil
}

// Import writes the snapshot back to the project file, replacing it
// atomically.
func (p *ProjectFile) Import(s *mesh.Snapshot) error {
	if p.Path == "" {
		return ErrNoProject
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.Path), "."+filepath.Base(p.Path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := formats.WriteProject(tmp, formats.NewProject(s)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p.Path)
}
