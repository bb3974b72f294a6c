package rpm

import (
	"context"
	"fmt"

	"gitrpm/internal/run"
)

// Macro is one rpmbuild --define binding. Defines keep the caller's
// order; duplicate names are passed through unreconciled and rpmbuild's
// own last-wins semantics apply.
type Macro struct {
	Name  string
	Value string
}

// BuildError reports a failed rpmbuild invocation. The tool's own
// diagnostics have already been streamed to the user by then.
type BuildError struct {
	Message string
	Err     error
}

func (e *BuildError) Error() string {
	return e.Message
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Builder invokes rpmbuild against a prepared workspace.
type Builder struct {
	Runner       run.Runner
	RPMBuildPath string // rpmbuild binary override; empty means "rpmbuild" from PATH
}

func (b *Builder) rpmbuild() string {
	if b.RPMBuildPath != "" {
		return b.RPMBuildPath
	}
	return "rpmbuild"
}

// Build produces both the binary and source packages from the staged
// descriptor. topDir becomes rpmbuild's _topdir so all inputs and
// outputs stay inside the workspace. The descriptor's own Version field
// rules; the version is not re-passed as a macro. Quiet mode uses
// rpmbuild's --quiet flag rather than suppressing output locally.
func (b *Builder) Build(ctx context.Context, topDir, descriptorPath, name, dist string, defines []Macro, quiet bool) error {
	args := []string{
		"-ba",
		"--define", "_topdir " + topDir,
		"--define", "name " + name,
	}
	if dist != "" {
		args = append(args, "--define", "dist "+dist)
	}
	for _, macro := range defines {
		args = append(args, "--define", macro.Name+" "+macro.Value)
	}
	if quiet {
		args = append(args, "--quiet")
	}
	args = append(args, descriptorPath)

	if err := b.Runner.Run(ctx, b.rpmbuild(), args...); err != nil {
		return &BuildError{
			Message: fmt.Sprintf("package build failed: %v", err),
			Err:     err,
		}
	}
	return nil
}
