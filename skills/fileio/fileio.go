// Package fileio provides a kernel skill for reading and writing local files.
package fileio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/poiesic/aikernel/kernel"
)

// Skill and function names as registered with the kernel.
const (
	SkillName     = "file"
	ReadFunction  = "Read"
	WriteFunction = "Write"
)

// Variable names read by Write.
const (
	PathVariable    = "path"
	ContentVariable = "content"
)

// ErrMissingVariable is returned when a required variable is not set.
var ErrMissingVariable = errors.New("missing variable")

// Skill reads and writes files on the local file system.
type Skill struct {
	perm   os.FileMode
	logger *slog.Logger
}

var _ kernel.Skill = (*Skill)(nil)

// New creates the file skill. Files are created with mode 0644.
func New() *Skill {
	return &Skill{
		perm:   0644,
		logger: slog.Default().With("component", "fileio"),
	}
}

// Functions implements kernel.Skill.
func (s *Skill) Functions() map[string]kernel.Function {
	return map[string]kernel.Function{
		ReadFunction:  s.Read,
		WriteFunction: s.Write,
	}
}

// Read returns the contents of the file named by the input variable.
// A missing file yields an error wrapping fs.ErrNotExist.
func (s *Skill) Read(ctx context.Context, vars *kernel.Variables) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := vars.Input()
	if path == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingVariable, kernel.InputKey)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	s.logger.Debug("read file", "path", path, "bytes", len(data))
	return string(data), nil
}

// Write stores the content variable in the file named by the path variable,
// replacing existing contents. It returns the path written. Writing to a
// read-only file yields an error wrapping fs.ErrPermission.
func (s *Skill) Write(ctx context.Context, vars *kernel.Variables) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, ok := vars.Get(PathVariable)
	if !ok || path == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingVariable, PathVariable)
	}
	content, ok := vars.Get(ContentVariable)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingVariable, ContentVariable)
	}

	if err := os.WriteFile(path, []byte(content), s.perm); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	s.logger.Debug("wrote file", "path", path, "bytes", len(content))
	return path, nil
}
