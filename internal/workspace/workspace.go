package workspace

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Subdirectories of the rpmbuild _topdir layout. SPECS and SOURCES are
// staged here; RPMS and SRPMS are produced by the build step.
const (
	SpecsDir   = "SPECS"
	SourcesDir = "SOURCES"
	RPMSDir    = "RPMS"
	SRPMSDir   = "SRPMS"
)

// WorkspaceError reports a failed staging step. Staging failures are
// fatal; the already-scheduled workspace teardown is the only cleanup.
type WorkspaceError struct {
	Op  string
	Err error
}

func (e *WorkspaceError) Error() string {
	return fmt.Sprintf("workspace %s: %v", e.Op, e.Err)
}

func (e *WorkspaceError) Unwrap() error {
	return e.Err
}

// Archiver produces a compressed source archive of the tree at ref.
// Implemented by git.Inspector.
type Archiver interface {
	Archive(ctx context.Context, ref, prefix, outPath string) error
}

// Workspace is the directory tree handed to rpmbuild as its _topdir.
// It is exclusive to one pipeline run; two concurrent runs against the
// same explicit path are undefined behavior.
type Workspace struct {
	Root string

	implicit bool
}

// Acquire returns a workspace rooted at explicitPath, creating it if
// needed. With an empty path a temporary directory is allocated instead
// and Release will remove it; an explicit workspace is never deleted,
// so it survives later-stage failures for inspection.
func Acquire(explicitPath string) (*Workspace, error) {
	if explicitPath != "" {
		abs, err := filepath.Abs(explicitPath)
		if err != nil {
			return nil, &WorkspaceError{Op: "resolve directory", Err: err}
		}
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, &WorkspaceError{Op: "create directory", Err: err}
		}
		return &Workspace{Root: abs}, nil
	}

	dir, err := os.MkdirTemp("", "gitrpm-*")
	if err != nil {
		return nil, &WorkspaceError{Op: "allocate temporary directory", Err: err}
	}
	return &Workspace{Root: dir, implicit: true}, nil
}

// Release removes an implicitly allocated workspace. It runs on every
// exit path, success or failure; explicit workspaces are left alone.
func (w *Workspace) Release() {
	if w == nil || !w.implicit {
		return
	}
	os.RemoveAll(w.Root)
}

// DescriptorPath is the staged descriptor location for a package name.
func (w *Workspace) DescriptorPath(name string) string {
	return filepath.Join(w.Root, SpecsDir, name+".spec")
}

// SourcePath is the staged source archive location for a package.
func (w *Workspace) SourcePath(name, version string) string {
	return filepath.Join(w.Root, SourcesDir, name+"-"+version+".tar.gz")
}

// Prepare populates the workspace for a build: the descriptor is copied
// to SPECS/<name>.spec and the source tree at ref is archived to
// SOURCES/<name>-<version>.tar.gz with every archived path prefixed by
// <name>-<version>/. Returns the staged descriptor path.
func Prepare(ctx context.Context, w *Workspace, name, version, descriptorPath, ref string, archiver Archiver) (string, error) {
	dest := w.DescriptorPath(name)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", &WorkspaceError{Op: "create " + SpecsDir, Err: err}
	}
	if err := copyFile(descriptorPath, dest); err != nil {
		return "", &WorkspaceError{Op: "stage descriptor", Err: err}
	}

	archivePath := w.SourcePath(name, version)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return "", &WorkspaceError{Op: "create " + SourcesDir, Err: err}
	}
	if err := archiver.Archive(ctx, ref, name+"-"+version+"/", archivePath); err != nil {
		return "", &WorkspaceError{Op: "archive sources", Err: err}
	}
	return dest, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
