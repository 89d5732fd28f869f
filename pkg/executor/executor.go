// Package executor performs the destination-side mutations decided by
// the walker: parent directory creation, symlinks, transformed writes,
// and override removal. In dry-run mode nothing here is called.
package executor

import (
	"path/filepath"

	"github.com/Dima-369/dotty/pkg/errors"
	"github.com/Dima-369/dotty/pkg/logging"
	"github.com/Dima-369/dotty/pkg/types"
)

// tmpSuffix names the temporary file used for atomic transform writes.
const tmpSuffix = ".dotty-tmp"

// Executor materializes decisions onto the destination filesystem.
type Executor struct {
	fs types.FS
}

// New creates an Executor writing through the given filesystem.
func New(fs types.FS) *Executor {
	return &Executor{fs: fs}
}

// Materialize realizes a decision at destPath. Transform decisions are
// written with a write-then-rename so a failure never leaves a
// truncated destination; everything else becomes a symlink whose
// target is sourcePath exactly as the walker resolved it.
func (e *Executor) Materialize(decision types.Decision, sourcePath, destPath string) error {
	log := logging.GetLogger("executor")

	parent := filepath.Dir(destPath)
	if err := e.fs.MkdirAll(parent, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", parent)
	}

	if decision.HasTransform {
		return e.writeTransformed(decision.Transform, destPath)
	}

	if err := e.fs.Symlink(sourcePath, destPath); err != nil {
		return errors.Wrapf(err, errors.ErrSymlinkCreate,
			"failed to symlink %s -> %s", destPath, sourcePath)
	}
	log.Debug().Str("source", sourcePath).Str("dest", destPath).Msg("Created symlink")
	return nil
}

// Override removes the existing destination entry so it can be
// recreated. It refuses to remove directories; the classifier never
// marks a directory override-eligible and this guards against it.
func (e *Executor) Override(destPath string) error {
	info, err := e.fs.Lstat(destPath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrRemove, "failed to inspect %s", destPath)
	}
	if info.IsDir() {
		return errors.Newf(errors.ErrRemove, "refusing to remove directory %s", destPath)
	}
	if err := e.fs.Remove(destPath); err != nil {
		return errors.Wrapf(err, errors.ErrRemove, "failed to remove %s", destPath)
	}
	log := logging.GetLogger("executor")
	log.Debug().Str("dest", destPath).Msg("Removed identical destination")
	return nil
}

// writeTransformed writes content to destPath atomically.
func (e *Executor) writeTransformed(content []byte, destPath string) error {
	tmp := destPath + tmpSuffix
	if err := e.fs.WriteFile(tmp, content, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", tmp)
	}
	if err := e.fs.Rename(tmp, destPath); err != nil {
		// Best effort cleanup; the destination itself is untouched.
		_ = e.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to move %s into place", destPath)
	}
	log := logging.GetLogger("executor")
	log.Debug().Str("dest", destPath).Int("bytes", len(content)).Msg("Wrote transformed file")
	return nil
}
