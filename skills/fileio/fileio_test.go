package fileio

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/aikernel/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKernel(t *testing.T) *kernel.Kernel {
	t.Helper()
	k, err := kernel.NewBuilder().WithSkill(SkillName, New()).Build()
	require.NoError(t, err)
	return k
}

func TestFunctions(t *testing.T) {
	k := newKernel(t)
	names, err := k.Functions(SkillName)
	require.NoError(t, err)
	assert.Equal(t, []string{ReadFunction, WriteFunction}, names)
}

func TestRead(t *testing.T) {
	k := newKernel(t)
	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\nworld"), 0644))

	out, err := k.Run(context.Background(), SkillName, ReadFunction, kernel.NewVariables(path))
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", out)
}

func TestRead_Errors(t *testing.T) {
	k := newKernel(t)
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		_, err := k.Run(ctx, SkillName, ReadFunction, kernel.NewVariables(filepath.Join(t.TempDir(), "nope.txt")))
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := k.Run(ctx, SkillName, ReadFunction, nil)
		assert.ErrorIs(t, err, ErrMissingVariable)
	})

	t.Run("canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := k.Run(cctx, SkillName, ReadFunction, kernel.NewVariables("x"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWrite(t *testing.T) {
	k := newKernel(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.txt")

	vars := kernel.NewVariables("").
		Set(PathVariable, path).
		Set(ContentVariable, "first")
	out, err := k.Run(ctx, SkillName, WriteFunction, vars)
	require.NoError(t, err)
	assert.Equal(t, path, out)

	// Overwrites and round-trips through Read
	vars.Set(ContentVariable, "second")
	_, err = k.Run(ctx, SkillName, WriteFunction, vars)
	require.NoError(t, err)

	got, err := k.Run(ctx, SkillName, ReadFunction, kernel.NewVariables(path))
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestWrite_Errors(t *testing.T) {
	k := newKernel(t)
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name string
		vars *kernel.Variables
	}{
		{"missing path", kernel.NewVariables("").Set(ContentVariable, "x")},
		{"empty path", kernel.NewVariables("").Set(PathVariable, "").Set(ContentVariable, "x")},
		{"missing content", kernel.NewVariables("").Set(PathVariable, filepath.Join(dir, "a.txt"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := k.Run(ctx, SkillName, WriteFunction, tt.vars)
			assert.ErrorIs(t, err, ErrMissingVariable)
		})
	}

	t.Run("empty content is allowed", func(t *testing.T) {
		path := filepath.Join(dir, "empty.txt")
		vars := kernel.NewVariables("").Set(PathVariable, path).Set(ContentVariable, "")
		_, err := k.Run(ctx, SkillName, WriteFunction, vars)
		require.NoError(t, err)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Zero(t, info.Size())
	})
}

func TestWrite_ReadOnlyTarget(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	k := newKernel(t)
	path := filepath.Join(t.TempDir(), "locked.txt")
	require.NoError(t, os.WriteFile(path, []byte("keep"), 0444))

	vars := kernel.NewVariables("").Set(PathVariable, path).Set(ContentVariable, "overwrite")
	_, err := k.Run(context.Background(), SkillName, WriteFunction, vars)
	assert.ErrorIs(t, err, fs.ErrPermission)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}
