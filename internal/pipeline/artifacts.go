package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Artifact file suffixes, one per durable stage.
const (
	IntermediateSuffix = ".intermediate.json"
	StageSuffix        = ".stage"
	CatalogueSuffix    = ".talkit.json"
)

// artifactPath returns the path of a model's artifact in dir.
func artifactPath(dir, model, suffix string) string {
	return filepath.Join(dir, model+suffix)
}

// checkModelName rejects names that cannot be used as a file name stem.
func checkModelName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: model name", ErrMissingInput)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidModelName, name)
	}
	return nil
}

// writeAtomic writes an artifact through a temp file in the same
// directory, syncs it and renames it into place, so readers only ever see
// a complete file.
func writeAtomic(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	if err = write(w); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
