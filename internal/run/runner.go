package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner executes external tools on behalf of the pipeline. Output is
// used for discovery calls whose stdout must be parsed; Run is used for
// build-style calls whose streams belong to the user.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]string, error)
	Run(ctx context.Context, name string, args ...string) error
}

// ExternalToolError reports an invoked tool that exited non-zero.
// Callers inspect this type rather than raw exit codes.
type ExternalToolError struct {
	Command  string
	ExitCode int
}

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("command %q exited with status %d", e.Command, e.ExitCode)
}

// ExecRunner runs commands through os/exec. Children inherit the
// parent's environment; stderr always reaches the user.
type ExecRunner struct{}

func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, commandError(cmd, err)
	}
	return SplitLines(string(out)), nil
}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return commandError(cmd, err)
	}
	return nil
}

func commandError(cmd *exec.Cmd, err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExternalToolError{
			Command:  strings.Join(cmd.Args, " "),
			ExitCode: exitErr.ExitCode(),
		}
	}
	return fmt.Errorf("run %s: %w", cmd.Args[0], err)
}

// SplitLines splits captured stdout into lines, dropping the empty
// trailing element produced by a final newline.
func SplitLines(out string) []string {
	lines := strings.Split(out, "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
