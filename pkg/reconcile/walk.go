// Package reconcile implements dotty's reconciliation engine: the
// recursive source-tree walk, per-entry policy evaluation, target
// classification, and dispatch to the action executor.
//
// The walk is a pure fold: each directory level returns its own
// counters, and parents sum them on return. Nothing is shared across
// subtrees, repeated runs against an already-reconciled tree perform
// no mutations, and any fatal error unwinds immediately.
package reconcile

import (
	"os"
	"path/filepath"

	"github.com/Dima-369/dotty/pkg/errors"
	"github.com/Dima-369/dotty/pkg/logging"
	"github.com/Dima-369/dotty/pkg/paths"
	"github.com/Dima-369/dotty/pkg/types"
)

// PolicyEvaluator turns a descriptor into a decision.
type PolicyEvaluator interface {
	Evaluate(descriptorPath, sourcePath string) (types.Decision, error)
}

// Materializer performs the destination-side mutations.
type Materializer interface {
	Materialize(decision types.Decision, sourcePath, destPath string) error
	Override(destPath string) error
}

// Reporter receives one call per entry outcome.
type Reporter interface {
	Symlink(destPath, sourcePath string)
	Transform(destPath string)
	AlreadyInPlace(destPath string)
	Conflict(destPath string)
	Identical(destPath string)
	Override(destPath, sourcePath string)
	Skip(sourcePath string)
}

// Walker reconciles a source tree against a destination tree.
type Walker struct {
	fs   types.FS
	eval PolicyEvaluator
	exec Materializer
	rep  Reporter
	opts types.Options
}

// NewWalker creates a Walker. The options are treated as immutable for
// the lifetime of the run.
func NewWalker(fs types.FS, eval PolicyEvaluator, exec Materializer, rep Reporter, opts types.Options) *Walker {
	return &Walker{fs: fs, eval: eval, exec: exec, rep: rep, opts: opts}
}

// Run walks the whole source tree and returns the aggregate counters.
func (w *Walker) Run() (types.Counters, error) {
	log := logging.GetLogger("reconcile")
	log.Info().
		Str("source", w.opts.SourceRoot).
		Str("dest", w.opts.DestRoot).
		Bool("dryRun", w.opts.DryRun).
		Bool("overrideIdentical", w.opts.OverrideIdentical).
		Msg("Starting walk")

	counters, err := w.walkDir(w.opts.SourceRoot, w.opts.DestRoot)
	if err != nil {
		return counters, err
	}

	log.Info().
		Int("planned", counters.Planned).
		Int("conflicts", counters.Conflicts).
		Int("skips", counters.Skips).
		Int("overrides", counters.Overrides).
		Msg("Walk finished")
	return counters, nil
}

// walkDir processes one directory level, depth-first and pre-order,
// folding every child's counters into its own.
func (w *Walker) walkDir(srcDir, destDir string) (types.Counters, error) {
	var counters types.Counters

	entries, err := w.fs.ReadDir(srcDir)
	if err != nil {
		return counters, errors.Wrapf(err, errors.ErrDirRead, "failed to read directory %s", srcDir)
	}

	for _, entry := range entries {
		name := entry.Name()
		if w.ignored(name) {
			continue
		}

		srcPath := filepath.Join(srcDir, name)

		if entry.IsDir() {
			child, err := w.walkDir(srcPath, filepath.Join(destDir, name))
			if err != nil {
				return counters, err
			}
			counters.Add(child)
			continue
		}

		descriptor, err := w.isDescriptor(srcPath)
		if err != nil {
			return counters, err
		}
		if descriptor {
			continue
		}

		child, err := w.walkFile(srcPath, destDir, name)
		if err != nil {
			return counters, err
		}
		counters.Add(child)
	}

	return counters, nil
}

// isDescriptor reports whether srcPath is a policy descriptor for an
// existing companion source file. An orphaned descriptor is walked as
// an ordinary entry. Only a missing companion means orphaned; any
// other inspection failure is fatal.
func (w *Walker) isDescriptor(srcPath string) (bool, error) {
	companion, ok := paths.SourceForDescriptor(srcPath, w.opts.DescriptorSuffix)
	if !ok {
		return false, nil
	}
	if _, err := w.fs.Lstat(companion); err != nil {
		if os.IsNotExist(err) {
			log := logging.GetLogger("reconcile")
			log.Debug().
				Str("descriptor", srcPath).
				Msg("Descriptor has no companion source file, walking it as an ordinary entry")
			return false, nil
		}
		return false, errors.Wrapf(err, errors.ErrFileRead, "failed to inspect %s", companion)
	}
	return true, nil
}

// walkFile evaluates, classifies and realizes a single source file.
func (w *Walker) walkFile(srcPath, destDir, name string) (types.Counters, error) {
	var counters types.Counters

	decision, err := w.decide(srcPath)
	if err != nil {
		return counters, err
	}

	if !decision.Include {
		counters.Skips++
		w.rep.Skip(srcPath)
		return counters, nil
	}

	destName := name
	if decision.RenameTo != "" {
		destName = decision.RenameTo
	}
	destPath := filepath.Join(destDir, destName)

	state, err := Classify(w.fs, decision, srcPath, destPath)
	if err != nil {
		return counters, err
	}

	switch state {
	case types.StateAbsent:
		if !w.opts.DryRun {
			if err := w.exec.Materialize(decision, srcPath, destPath); err != nil {
				return counters, err
			}
		}
		counters.Planned++
		w.reportCreate(decision, srcPath, destPath)

	case types.StateAlreadyLinked, types.StateSatisfied:
		counters.Planned++
		w.rep.AlreadyInPlace(destPath)

	case types.StateIdentical:
		if w.opts.OverrideIdentical && !w.opts.DryRun {
			if err := w.exec.Override(destPath); err != nil {
				return counters, err
			}
			if err := w.exec.Materialize(decision, srcPath, destPath); err != nil {
				return counters, err
			}
			counters.Planned++
			counters.Overrides++
			w.rep.Override(destPath, srcPath)
		} else {
			counters.Conflicts++
			w.rep.Identical(destPath)
		}

	case types.StateConflict:
		counters.Conflicts++
		w.rep.Conflict(destPath)
	}

	return counters, nil
}

// reportCreate reports a creation in terms of what it materializes.
func (w *Walker) reportCreate(decision types.Decision, srcPath, destPath string) {
	if decision.HasTransform {
		w.rep.Transform(destPath)
		return
	}
	w.rep.Symlink(destPath, srcPath)
}

// decide returns the decision governing srcPath: the evaluated
// descriptor when one exists, the default otherwise. An inspection
// failure is fatal so a descriptor can never be silently bypassed.
func (w *Walker) decide(srcPath string) (types.Decision, error) {
	descriptorPath := paths.DescriptorPath(srcPath, w.opts.DescriptorSuffix)
	if _, err := w.fs.Lstat(descriptorPath); err != nil {
		if os.IsNotExist(err) {
			return types.DefaultDecision(), nil
		}
		return types.Decision{}, errors.Wrapf(err, errors.ErrFileRead,
			"failed to inspect %s", descriptorPath)
	}
	return w.eval.Evaluate(descriptorPath, srcPath)
}

// ignored reports whether the name is on the ignore list.
func (w *Walker) ignored(name string) bool {
	for _, ig := range w.opts.Ignore {
		if name == ig {
			return true
		}
	}
	return false
}
