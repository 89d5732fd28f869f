// Package types defines the shared types used throughout dotty.
package types

import "io/fs"

// Decision is the typed result of evaluating a policy descriptor.
// The zero value is not meaningful; use DefaultDecision for entries
// without a descriptor.
type Decision struct {
	// Include controls whether the entry participates at all. When
	// false, every other field is ignored.
	Include bool

	// RenameTo, when non-empty, replaces the final component of the
	// destination path. It must be a single path component; the
	// evaluator validates this before the decision escapes.
	RenameTo string

	// Transform holds the exact bytes to write to the destination
	// instead of symlinking. Valid only when HasTransform is true,
	// so an empty transform result is distinguishable from "none".
	Transform []byte

	// HasTransform reports whether Transform is set.
	HasTransform bool
}

// DefaultDecision is the decision applied to entries with no
// descriptor: include, no rename, symlink as-is.
func DefaultDecision() Decision {
	return Decision{Include: true}
}

// TargetState classifies what currently exists at a destination path
// relative to the desired outcome.
type TargetState int

const (
	// StateAbsent means nothing exists at the destination.
	StateAbsent TargetState = iota

	// StateAlreadyLinked means the destination is a symlink whose
	// target equals the source path exactly.
	StateAlreadyLinked

	// StateSatisfied means the destination is a regular file whose
	// bytes already equal the transform content.
	StateSatisfied

	// StateIdentical means the destination is a regular file whose
	// bytes equal the source bytes. Eligible for override, but not
	// for the already-linked short circuit.
	StateIdentical

	// StateConflict means something incompatible occupies the
	// destination: a directory, a symlink with the wrong target, or
	// differing content.
	StateConflict
)

// String returns a human-readable name for the state.
func (s TargetState) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateAlreadyLinked:
		return "already-linked"
	case StateSatisfied:
		return "satisfied"
	case StateIdentical:
		return "identical"
	case StateConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Counters aggregates the outcomes of a walk subtree. Counters from
// nested directories are summed into the parent's on return.
type Counters struct {
	// Planned counts actions that are, or would be, performed.
	// Already-satisfied entries count as planned.
	Planned int

	// Conflicts counts destinations occupied by something
	// incompatible that was not overridden.
	Conflicts int

	// Skips counts entries excluded by their descriptor.
	Skips int

	// Overrides counts identical destinations that were removed and
	// recreated because override mode was enabled.
	Overrides int
}

// Add folds another set of counters into c.
func (c *Counters) Add(other Counters) {
	c.Planned += other.Planned
	c.Conflicts += other.Conflicts
	c.Skips += other.Skips
	c.Overrides += other.Overrides
}

// Options is the resolved, immutable configuration for one run. The
// CLI builds it once and the core treats it as read-only.
type Options struct {
	// SourceRoot is the absolute path of the managed tree. It must
	// exist and be a directory before the walk begins.
	SourceRoot string

	// DestRoot is the absolute path the tree is materialized under,
	// normally the user's home directory.
	DestRoot string

	// DescriptorSuffix is the filename suffix that marks a policy
	// descriptor, e.g. ".lua".
	DescriptorSuffix string

	// Ignore lists names that are invisible to the walk.
	Ignore []string

	// DryRun disables all filesystem mutation.
	DryRun bool

	// OverrideIdentical allows destructive replacement of
	// destinations proven byte-identical to the desired content.
	OverrideIdentical bool
}

// FS abstracts the filesystem operations the reconciler performs,
// allowing tests to substitute implementations.
type FS interface {
	Lstat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
}
