package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dima-369/dotty/pkg/errors"
	"github.com/Dima-369/dotty/pkg/filesystem"
	"github.com/Dima-369/dotty/pkg/policy"
	"github.com/Dima-369/dotty/pkg/testutil"
)

func newEvaluator() *policy.Evaluator {
	return policy.NewEvaluator(filesystem.NewOS())
}

func TestEvaluateBoolean(t *testing.T) {
	env := testutil.NewTestEnv(t)
	source := env.WriteSource(t, "a.txt", "A")

	tests := []struct {
		name    string
		chunk   string
		include bool
	}{
		{name: "return true includes", chunk: "return true", include: true},
		{name: "return false excludes", chunk: "return false", include: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			descriptor := env.WriteSource(t, "a.txt.lua", tt.chunk)

			decision, err := newEvaluator().Evaluate(descriptor, source)
			require.NoError(t, err)
			assert.Equal(t, tt.include, decision.Include)
			assert.Empty(t, decision.RenameTo)
			assert.False(t, decision.HasTransform)
		})
	}
}

func TestEvaluateTableRename(t *testing.T) {
	env := testutil.NewTestEnv(t)
	source := env.WriteSource(t, "orig.txt", "content")
	descriptor := env.WriteSource(t, "orig.txt.lua", `return { rename_to = "renamed.txt" }`)

	decision, err := newEvaluator().Evaluate(descriptor, source)
	require.NoError(t, err)
	assert.True(t, decision.Include)
	assert.Equal(t, "renamed.txt", decision.RenameTo)
	assert.False(t, decision.HasTransform)
}

func TestEvaluateTableTransform(t *testing.T) {
	env := testutil.NewTestEnv(t)
	source := env.WriteSource(t, "config.txt", "email = OLD@example.com")
	descriptor := env.WriteSource(t, "config.txt.lua", `
		return {
			transform = function(content)
				return content:gsub("OLD", "new")
			end
		}
	`)

	decision, err := newEvaluator().Evaluate(descriptor, source)
	require.NoError(t, err)
	assert.True(t, decision.Include)
	assert.True(t, decision.HasTransform)
	assert.Equal(t, "email = new@example.com", string(decision.Transform))
}

func TestEvaluateTransformWithRename(t *testing.T) {
	env := testutil.NewTestEnv(t)
	source := env.WriteSource(t, "config.txt", "old")
	descriptor := env.WriteSource(t, "config.txt.lua", `
		return {
			rename_to = ".config_renamed",
			transform = function(content)
				return content:gsub("old", "new")
			end
		}
	`)

	decision, err := newEvaluator().Evaluate(descriptor, source)
	require.NoError(t, err)
	assert.Equal(t, ".config_renamed", decision.RenameTo)
	assert.Equal(t, "new", string(decision.Transform))
}

func TestEvaluateEmptyTableIsPlainInclude(t *testing.T) {
	env := testutil.NewTestEnv(t)
	source := env.WriteSource(t, "a.txt", "A")
	descriptor := env.WriteSource(t, "a.txt.lua", "return {}")

	decision, err := newEvaluator().Evaluate(descriptor, source)
	require.NoError(t, err)
	assert.True(t, decision.Include)
	assert.Empty(t, decision.RenameTo)
	assert.False(t, decision.HasTransform)
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
		code  errors.ErrorCode
	}{
		{
			name:  "string result",
			chunk: `return "yes"`,
			code:  errors.ErrDescriptorType,
		},
		{
			name:  "number result",
			chunk: `return 1`,
			code:  errors.ErrDescriptorType,
		},
		{
			name:  "nil result",
			chunk: `return nil`,
			code:  errors.ErrDescriptorType,
		},
		{
			name:  "syntax error",
			chunk: `return {`,
			code:  errors.ErrDescriptorEval,
		},
		{
			name:  "runtime error",
			chunk: `error("nope")`,
			code:  errors.ErrDescriptorEval,
		},
		{
			name:  "rename_to not a string",
			chunk: `return { rename_to = 42 }`,
			code:  errors.ErrDescriptorType,
		},
		{
			name:  "rename_to with separator",
			chunk: `return { rename_to = "a/b" }`,
			code:  errors.ErrRenameInvalid,
		},
		{
			name:  "rename_to empty",
			chunk: `return { rename_to = "" }`,
			code:  errors.ErrRenameInvalid,
		},
		{
			name:  "transform not a function",
			chunk: `return { transform = "upper" }`,
			code:  errors.ErrDescriptorType,
		},
		{
			name:  "transform raises",
			chunk: `return { transform = function(c) error("broken") end }`,
			code:  errors.ErrTransformFailed,
		},
		{
			name:  "transform returns non-string",
			chunk: `return { transform = function(c) return 42 end }`,
			code:  errors.ErrTransformFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewTestEnv(t)
			source := env.WriteSource(t, "a.txt", "A")
			descriptor := env.WriteSource(t, "a.txt.lua", tt.chunk)

			_, err := newEvaluator().Evaluate(descriptor, source)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, tt.code),
				"want code %s, got %s (%v)", tt.code, errors.GetErrorCode(err), err)
		})
	}
}

func TestEvaluateMissingDescriptor(t *testing.T) {
	env := testutil.NewTestEnv(t)
	source := env.WriteSource(t, "a.txt", "A")

	_, err := newEvaluator().Evaluate(env.SourcePath("a.txt.lua"), source)
	assert.True(t, errors.IsErrorCode(err, errors.ErrDescriptorRead))
}

func TestEvaluateIsDeterministic(t *testing.T) {
	env := testutil.NewTestEnv(t)
	source := env.WriteSource(t, "config.txt", "alpha beta alpha")
	descriptor := env.WriteSource(t, "config.txt.lua", `
		return {
			rename_to = ".cfg",
			transform = function(content)
				return content:gsub("alpha", "gamma")
			end
		}
	`)

	eval := newEvaluator()
	first, err := eval.Evaluate(descriptor, source)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := eval.Evaluate(descriptor, source)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
