package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/magic-maker/internal/host"
	"github.com/Faultbox/magic-maker/pkg/calibrate"
	"github.com/Faultbox/magic-maker/pkg/catalogue"
	"github.com/Faultbox/magic-maker/pkg/formats"
	"github.com/Faultbox/magic-maker/pkg/mesh"
)

// Snapshot captures the model from src without transforming it.
func (p *Pipeline) Snapshot(ctx context.Context, src host.Source) (*mesh.Snapshot, error) {
	snap, err := src.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if err := checkModelName(snap.Name); err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return snap, nil
}

// WriteIntermediate writes <name>.intermediate.json and returns its path.
func (p *Pipeline) WriteIntermediate(snap *mesh.Snapshot) (string, error) {
	if err := p.checkOutputDir(); err != nil {
		return "", err
	}
	if err := checkModelName(snap.Name); err != nil {
		return "", err
	}
	defer p.lock(snap.Name)()
	return p.newRun(snap.Name).writeIntermediate(snap)
}

// Stage re-reads an intermediate artifact and writes <name>.stage next to
// the other artifacts. It returns the staged record path. The artifact is
// named after the model it holds, not after intermediatePath.
func (p *Pipeline) Stage(intermediatePath string) (string, error) {
	if err := p.checkOutputDir(); err != nil {
		return "", err
	}
	if intermediatePath == "" {
		return "", fmt.Errorf("%w: intermediate path", ErrMissingInput)
	}
	in, snap, err := loadIntermediate(intermediatePath)
	if err != nil {
		return "", err
	}
	defer p.lock(snap.Name)()
	return p.newRun(snap.Name).stage(in, snap)
}

// Finalize loads a staged record, calibrates it and writes
// <name>.talkit.json. Finalizing the same staged record again produces a
// byte-identical catalogue.
func (p *Pipeline) Finalize(stagedPath string) (string, error) {
	if err := p.checkOutputDir(); err != nil {
		return "", err
	}
	if stagedPath == "" {
		return "", fmt.Errorf("%w: staged record path", ErrMissingInput)
	}
	rec, err := loadStage(stagedPath)
	if err != nil {
		return "", err
	}
	defer p.lock(rec.Name)()
	_, path, err := p.newRun(rec.Name).finalize(rec)
	return path, err
}

// loadIntermediate decodes and validates the intermediate artifact at path.
func loadIntermediate(path string) (*formats.Intermediate, *mesh.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	in, err := formats.ReadIntermediate(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	snap, err := in.Snapshot()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := checkModelName(snap.Name); err != nil {
		return nil, nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, snap, nil
}

func loadStage(path string) (*formats.StagedRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rec, err := formats.ParseStage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := checkModelName(rec.Name); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *run) write(path string, encode func(io.Writer) error) error {
	if err := writeAtomic(path, encode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	r.created = append(r.created, path)
	return nil
}

func (r *run) writeIntermediate(snap *mesh.Snapshot) (string, error) {
	path := artifactPath(r.opts.OutputDir, snap.Name, IntermediateSuffix)
	in := formats.NewIntermediate(snap)

	err := r.write(path, func(w io.Writer) error {
		return formats.WriteIntermediate(w, in)
	})
	if err != nil {
		return "", err
	}

	r.log.Debug("intermediate written", zap.String("path", path),
		zap.Int("xz", len(in.XZ)), zap.Int("yz", len(in.YZ)))
	return path, nil
}

// stage writes the staged record for snap. The reference points are the xz
// and yz lists stored in the intermediate.
func (r *run) stage(in *formats.Intermediate, snap *mesh.Snapshot) (string, error) {
	rec := catalogue.Stage(snap, r.opts.Labels)
	rec.XZ, rec.YZ = in.Reference()
	path := artifactPath(r.opts.OutputDir, snap.Name, StageSuffix)

	err := r.write(path, func(w io.Writer) error {
		return formats.WriteStage(w, rec)
	})
	if err != nil {
		return "", err
	}

	r.log.Debug("staged record written", zap.String("path", path),
		zap.Int("marked", len(rec.Marked)), zap.Int("unmarked", len(rec.Unmarked)))
	return path, nil
}

func (r *run) finalize(rec *formats.StagedRecord) (*catalogue.Catalogue, string, error) {
	frame, err := calibrate.Calibrate(rec.XZ, rec.YZ, r.opts.Targets)
	if err != nil {
		return nil, "", fmt.Errorf("calibration: %w", err)
	}
	r.log.Debug("calibrated",
		zap.Stringer("a", frame.A), zap.Stringer("b", frame.B),
		zap.Stringer("c", frame.C), zap.Stringer("d", frame.D))

	c, err := catalogue.Build(rec, frame)
	if err != nil {
		return nil, "", err
	}

	path := artifactPath(r.opts.OutputDir, rec.Name, CatalogueSuffix)
	doc := c.Document()
	err = r.write(path, func(w io.Writer) error {
		return formats.WriteCatalogue(w, doc)
	})
	if err != nil {
		return nil, "", err
	}

	r.log.Debug("catalogue written", zap.String("path", path), zap.Int("faces", len(c.Faces)))
	return c, path, nil
}
