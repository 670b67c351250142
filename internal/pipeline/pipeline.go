// Package pipeline runs the export stages that turn an annotated mesh into
// a device catalogue:
//
//	snapshot -> <name>.intermediate.json -> <name>.stage -> <name>.talkit.json
//
// Each stage writes its artifact durably and the next stage re-reads it
// from disk. Runs for the same model are serialised; runs for different
// models proceed independently.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/magic-maker/internal/host"
	"github.com/Faultbox/magic-maker/pkg/calibrate"
	"github.com/Faultbox/magic-maker/pkg/catalogue"
)

// Pipeline errors.
var (
	ErrMissingInput     = errors.New("missing input")
	ErrInvalidModelName = errors.New("invalid model name")
)

// Options configure a pipeline.
type Options struct {
	OutputDir string
	Labels    catalogue.Labels
	Targets   calibrate.Targets
}

// Result describes a completed run.
type Result struct {
	RunID        string
	Model        string
	Intermediate string
	Staged       string
	Catalogue    string
	Faces        int
	Marked       int
}

// Pipeline exports models into OutputDir.
type Pipeline struct {
	opts Options
	log  *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a pipeline. A nil logger disables logging.
func New(opts Options, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		opts:  opts,
		log:   log,
		locks: make(map[string]*sync.Mutex),
	}
}

// lock acquires the per-model lock and returns its release function.
func (p *Pipeline) lock(model string) func() {
	p.mu.Lock()
	l, ok := p.locks[model]
	if !ok {
		l = &sync.Mutex{}
		p.locks[model] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// run carries the state of one export run.
type run struct {
	*Pipeline
	id      string
	log     *zap.Logger
	created []string
}

func (p *Pipeline) newRun(model string) *run {
	id := uuid.NewString()
	return &run{
		Pipeline: p,
		id:       id,
		log:      p.log.With(zap.String("run", id), zap.String("model", model)),
	}
}

// rollback removes every artifact written during a failed run.
func (r *run) rollback() {
	for _, path := range r.created {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.log.Warn("failed to remove artifact", zap.String("path", path), zap.Error(err))
		}
	}
	r.created = nil
}

func (p *Pipeline) checkOutputDir() error {
	if p.opts.OutputDir == "" {
		return fmt.Errorf("%w: output directory", ErrMissingInput)
	}
	return nil
}

// Run executes all stages for the model provided by src. The context is
// checked between stages; a stage in progress always completes. On failure
// every artifact written by this run is removed.
func (p *Pipeline) Run(ctx context.Context, src host.Source) (res *Result, err error) {
	if err := p.checkOutputDir(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: mesh source", ErrMissingInput)
	}

	snap, err := p.Snapshot(ctx, src)
	if err != nil {
		return nil, err
	}

	defer p.lock(snap.Name)()
	r := p.newRun(snap.Name)
	r.log.Info("export started", zap.Int("faces", len(snap.Faces)), zap.Int("areas", len(snap.Areas)))
	defer func() {
		if err != nil {
			r.log.Error("export failed", zap.Error(err))
			r.rollback()
		}
	}()

	res = &Result{RunID: r.id, Model: snap.Name}

	if res.Intermediate, err = r.writeIntermediate(snap); err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	in, staged, err := loadIntermediate(res.Intermediate)
	if err != nil {
		return nil, err
	}
	if res.Staged, err = r.stage(in, staged); err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := loadStage(res.Staged)
	if err != nil {
		return nil, err
	}
	c, path, err := r.finalize(rec)
	if err != nil {
		return nil, err
	}
	res.Catalogue = path
	res.Faces = len(c.Faces)
	res.Marked = c.Marked()

	r.log.Info("export finished",
		zap.String("catalogue", res.Catalogue),
		zap.Int("faces", res.Faces),
		zap.Int("marked", res.Marked))
	return res, nil
}
