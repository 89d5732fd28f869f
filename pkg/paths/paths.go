// Package paths provides path handling for dotty: destination-root
// resolution, descriptor/source pairing by filename convention, and
// rename validation.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Dima-369/dotty/pkg/errors"
)

// DefaultDescriptorSuffix is the filename suffix marking a policy
// descriptor.
const DefaultDescriptorSuffix = ".lua"

// ResolveDestRoot resolves a destination root specification into an
// absolute path. A leading "~" is expanded against the user's home
// directory; relative paths are made absolute against the working
// directory.
func ResolveDestRoot(spec string) (string, error) {
	if spec == "" {
		spec = "~"
	}

	if spec == "~" || strings.HasPrefix(spec, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return "", errors.Wrap(err, errors.ErrConfigInvalid, "cannot resolve home directory")
			}
		}
		if spec == "~" {
			return home, nil
		}
		return filepath.Join(home, spec[2:]), nil
	}

	abs, err := filepath.Abs(spec)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrConfigInvalid, "cannot resolve destination root %q", spec)
	}
	return abs, nil
}

// DescriptorPath returns the path of the descriptor that would govern
// the given source file.
func DescriptorPath(sourcePath, suffix string) string {
	return sourcePath + suffix
}

// SourceForDescriptor returns the source path a descriptor file
// describes, and whether the path has the descriptor suffix at all.
// A bare suffix with no stem (a file literally named ".lua") is not a
// descriptor.
func SourceForDescriptor(path, suffix string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, suffix) || base == suffix {
		return "", false
	}
	return strings.TrimSuffix(path, suffix), true
}

// ValidateRename checks that a rename_to value is a legal single path
// component.
func ValidateRename(name string) error {
	if name == "" {
		return errors.New(errors.ErrRenameInvalid, "rename_to cannot be empty")
	}
	if strings.ContainsAny(name, "/\\") {
		return errors.Newf(errors.ErrRenameInvalid, "rename_to %q cannot contain path separators", name)
	}
	if name == "." || name == ".." {
		return errors.Newf(errors.ErrRenameInvalid, "rename_to cannot be %q", name)
	}
	return nil
}

// ValidateSourceRoot checks that the source root exists and is a
// directory, before any walk begins.
func ValidateSourceRoot(root string) (string, error) {
	if root == "" {
		return "", errors.New(errors.ErrRootMissing, "source root not set (use --root or DOTTY_ROOT)")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrRootMissing, "cannot resolve source root %q", root)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrRootMissing, "source root %s does not exist", abs)
	}
	if !info.IsDir() {
		return "", errors.Newf(errors.ErrRootMissing, "source root %s is not a directory", abs)
	}
	return abs, nil
}
