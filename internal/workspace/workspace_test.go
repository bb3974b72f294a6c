package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeArchiver struct {
	ref     string
	prefix  string
	outPath string
	err     error
}

func (f *fakeArchiver) Archive(_ context.Context, ref, prefix, outPath string) error {
	f.ref = ref
	f.prefix = prefix
	f.outPath = outPath
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, []byte("archive"), 0o644)
}

func TestAcquireImplicitReleasedOnRelease(t *testing.T) {
	t.Parallel()

	ws, err := Acquire("")
	if err != nil {
		t.Fatalf("Acquire(\"\") error = %v", err)
	}
	if _, err := os.Stat(ws.Root); err != nil {
		t.Fatalf("implicit workspace not created: %v", err)
	}

	ws.Release()
	if _, err := os.Stat(ws.Root); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("implicit workspace still present after Release: %v", err)
	}
}

func TestAcquireExplicitSurvivesRelease(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "build-ws")
	ws, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire(%q) error = %v", dir, err)
	}

	ws.Release()
	if _, err := os.Stat(ws.Root); err != nil {
		t.Fatalf("explicit workspace removed by Release: %v", err)
	}
}

func TestPrepareStagesDescriptorAndArchive(t *testing.T) {
	t.Parallel()

	descriptor := filepath.Join(t.TempDir(), "input.spec")
	if err := os.WriteFile(descriptor, []byte("Version: 2.0\n"), 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}

	ws, err := Acquire(filepath.Join(t.TempDir(), "ws"))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	archiver := &fakeArchiver{}

	dest, err := Prepare(context.Background(), ws, "widget", "2.0", descriptor, "develop", archiver)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if want := ws.DescriptorPath("widget"); dest != want {
		t.Fatalf("staged descriptor = %q, want %q", dest, want)
	}
	staged, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read staged descriptor: %v", err)
	}
	if string(staged) != "Version: 2.0\n" {
		t.Fatalf("staged descriptor content = %q, want original content", staged)
	}

	if archiver.ref != "develop" {
		t.Fatalf("archiver ref = %q, want %q", archiver.ref, "develop")
	}
	if archiver.prefix != "widget-2.0/" {
		t.Fatalf("archiver prefix = %q, want %q", archiver.prefix, "widget-2.0/")
	}
	if want := filepath.Join(ws.Root, SourcesDir, "widget-2.0.tar.gz"); archiver.outPath != want {
		t.Fatalf("archiver out path = %q, want %q", archiver.outPath, want)
	}
	if _, err := os.Stat(archiver.outPath); err != nil {
		t.Fatalf("archive not written: %v", err)
	}
}

func TestPrepareIdempotentDirectories(t *testing.T) {
	t.Parallel()

	descriptor := filepath.Join(t.TempDir(), "input.spec")
	if err := os.WriteFile(descriptor, []byte("Version: 1.0\n"), 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}

	ws, err := Acquire(filepath.Join(t.TempDir(), "ws"))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := Prepare(context.Background(), ws, "pkg", "1.0", descriptor, "main", &fakeArchiver{}); err != nil {
			t.Fatalf("Prepare() pass %d error = %v", i+1, err)
		}
	}
}

func TestPrepareArchiveFailure(t *testing.T) {
	t.Parallel()

	descriptor := filepath.Join(t.TempDir(), "input.spec")
	if err := os.WriteFile(descriptor, []byte("Version: 1.0\n"), 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}

	ws, err := Acquire(filepath.Join(t.TempDir(), "ws"))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	archiveErr := errors.New("archive tool exploded")
	_, err = Prepare(context.Background(), ws, "pkg", "1.0", descriptor, "main", &fakeArchiver{err: archiveErr})

	var wsErr *WorkspaceError
	if !errors.As(err, &wsErr) {
		t.Fatalf("Prepare() error = %v, want *WorkspaceError", err)
	}
	if !errors.Is(err, archiveErr) {
		t.Fatalf("Prepare() error does not wrap the archiver failure: %v", err)
	}
}

func TestPrepareMissingDescriptor(t *testing.T) {
	t.Parallel()

	ws, err := Acquire(filepath.Join(t.TempDir(), "ws"))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	archiver := &fakeArchiver{}
	_, err = Prepare(context.Background(), ws, "pkg", "1.0", filepath.Join(t.TempDir(), "absent.spec"), "main", archiver)

	var wsErr *WorkspaceError
	if !errors.As(err, &wsErr) {
		t.Fatalf("Prepare() error = %v, want *WorkspaceError", err)
	}
	if archiver.ref != "" {
		t.Fatal("archiver invoked despite descriptor staging failure")
	}
}
