// Package policy evaluates Lua descriptors into typed decisions.
//
// A descriptor is a Lua chunk whose value decides how its companion
// source file is materialized. The chunk must produce either a boolean
// (include or skip, nothing else) or a table with optional fields:
//
//	return { rename_to = ".bashrc", transform = function(content) ... end }
//
// Anything else is a fatal descriptor error. Untyped Lua values never
// escape this package; the walker and classifier only ever see a
// validated types.Decision.
package policy

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/Dima-369/dotty/pkg/errors"
	"github.com/Dima-369/dotty/pkg/logging"
	"github.com/Dima-369/dotty/pkg/paths"
	"github.com/Dima-369/dotty/pkg/types"
)

// Evaluator runs descriptor chunks and validates their results.
type Evaluator struct {
	fs types.FS
}

// NewEvaluator creates an Evaluator reading descriptors and source
// content through the given filesystem.
func NewEvaluator(fs types.FS) *Evaluator {
	return &Evaluator{fs: fs}
}

// Evaluate executes the descriptor at descriptorPath and returns the
// decision for the source file at sourcePath. Each call runs in a
// fresh Lua state, so evaluation is deterministic for fixed descriptor
// and source content.
func (e *Evaluator) Evaluate(descriptorPath, sourcePath string) (types.Decision, error) {
	log := logging.GetLogger("policy")

	src, err := e.fs.ReadFile(descriptorPath)
	if err != nil {
		return types.Decision{}, errors.Wrapf(err, errors.ErrDescriptorRead,
			"failed to read descriptor %s", descriptorPath)
	}

	L := lua.NewState()
	defer L.Close()

	if err := L.DoString(string(src)); err != nil {
		return types.Decision{}, errors.Wrapf(err, errors.ErrDescriptorEval,
			"descriptor %s failed", descriptorPath)
	}

	ret := L.Get(-1)
	L.Pop(1)

	switch v := ret.(type) {
	case lua.LBool:
		log.Debug().Str("descriptor", descriptorPath).Bool("include", bool(v)).Msg("Boolean decision")
		return types.Decision{Include: bool(v)}, nil
	case *lua.LTable:
		return e.tableDecision(L, v, descriptorPath, sourcePath)
	default:
		return types.Decision{}, errors.Newf(errors.ErrDescriptorType,
			"descriptor %s returned %s, want boolean or table", descriptorPath, ret.Type().String())
	}
}

// tableDecision builds a Decision from a table result. A table always
// means include; the fields only refine how.
func (e *Evaluator) tableDecision(L *lua.LState, tbl *lua.LTable, descriptorPath, sourcePath string) (types.Decision, error) {
	decision := types.Decision{Include: true}

	if raw := tbl.RawGetString("rename_to"); raw != lua.LNil {
		name, ok := raw.(lua.LString)
		if !ok {
			return types.Decision{}, errors.Newf(errors.ErrDescriptorType,
				"descriptor %s: rename_to must be a string, got %s", descriptorPath, raw.Type().String())
		}
		if err := paths.ValidateRename(string(name)); err != nil {
			return types.Decision{}, errors.Wrapf(err, errors.ErrRenameInvalid,
				"descriptor %s has an invalid rename_to", descriptorPath)
		}
		decision.RenameTo = string(name)
	}

	if raw := tbl.RawGetString("transform"); raw != lua.LNil {
		fn, ok := raw.(*lua.LFunction)
		if !ok {
			return types.Decision{}, errors.Newf(errors.ErrDescriptorType,
				"descriptor %s: transform must be a function, got %s", descriptorPath, raw.Type().String())
		}

		content, err := e.fs.ReadFile(sourcePath)
		if err != nil {
			return types.Decision{}, errors.Wrapf(err, errors.ErrFileRead,
				"failed to read source file %s for transform", sourcePath)
		}

		transformed, err := callTransform(L, fn, string(content))
		if err != nil {
			return types.Decision{}, errors.Wrapf(err, errors.ErrTransformFailed,
				"transform in descriptor %s failed", descriptorPath)
		}

		decision.Transform = []byte(transformed)
		decision.HasTransform = true
	}

	return decision, nil
}

// callTransform invokes the transform function with the source content
// and returns the resulting string.
func callTransform(L *lua.LState, fn *lua.LFunction, content string) (string, error) {
	err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(content))
	if err != nil {
		return "", err
	}

	ret := L.Get(-1)
	L.Pop(1)

	out, ok := ret.(lua.LString)
	if !ok {
		return "", errors.Newf(errors.ErrDescriptorType,
			"transform returned %s, want string", ret.Type().String())
	}
	return string(out), nil
}
