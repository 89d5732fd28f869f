package reconcile

import (
	"bytes"
	"os"

	"github.com/Dima-369/dotty/pkg/errors"
	"github.com/Dima-369/dotty/pkg/types"
)

// Classify determines the state of the destination path relative to
// the outcome the decision asks for. It never mutates anything.
//
// A symlink already pointing at the exact source path short-circuits
// before any content is read. A regular file with the same bytes as
// the source is only StateIdentical: eligible for override, but not
// treated as already linked. Directories always conflict.
func Classify(fsys types.FS, decision types.Decision, sourcePath, destPath string) (types.TargetState, error) {
	info, err := fsys.Lstat(destPath)
	if err != nil {
		if os.IsNotExist(err) {
			return types.StateAbsent, nil
		}
		return types.StateConflict, errors.Wrapf(err, errors.ErrFileRead,
			"failed to inspect %s", destPath)
	}

	if decision.HasTransform {
		return classifyTransform(fsys, decision.Transform, destPath, info.Mode())
	}
	return classifyLink(fsys, sourcePath, destPath, info.Mode())
}

// classifyTransform compares an existing destination against the
// transform content.
func classifyTransform(fsys types.FS, want []byte, destPath string, mode os.FileMode) (types.TargetState, error) {
	if !mode.IsRegular() {
		return types.StateConflict, nil
	}
	existing, err := fsys.ReadFile(destPath)
	if err != nil {
		return types.StateConflict, errors.Wrapf(err, errors.ErrFileRead,
			"failed to read %s", destPath)
	}
	if bytes.Equal(existing, want) {
		return types.StateSatisfied, nil
	}
	return types.StateConflict, nil
}

// classifyLink compares an existing destination against the desired
// symlink to sourcePath.
func classifyLink(fsys types.FS, sourcePath, destPath string, mode os.FileMode) (types.TargetState, error) {
	if mode&os.ModeSymlink != 0 {
		target, err := fsys.Readlink(destPath)
		if err != nil {
			return types.StateConflict, errors.Wrapf(err, errors.ErrFileRead,
				"failed to read symlink %s", destPath)
		}
		// Byte comparison on purpose; the walker always resolves the
		// same absolute source path, so no canonicalization is needed.
		if target == sourcePath {
			return types.StateAlreadyLinked, nil
		}
		return types.StateConflict, nil
	}

	if !mode.IsRegular() {
		return types.StateConflict, nil
	}

	existing, err := fsys.ReadFile(destPath)
	if err != nil {
		return types.StateConflict, errors.Wrapf(err, errors.ErrFileRead,
			"failed to read %s", destPath)
	}
	want, err := fsys.ReadFile(sourcePath)
	if err != nil {
		return types.StateConflict, errors.Wrapf(err, errors.ErrFileRead,
			"failed to read %s", sourcePath)
	}
	if bytes.Equal(existing, want) {
		return types.StateIdentical, nil
	}
	return types.StateConflict, nil
}
