package git

import (
	"context"
	"strings"
	"testing"
)

type recordingRunner struct {
	outputs [][]string
	calls   []string
}

func (r *recordingRunner) Output(_ context.Context, name string, args ...string) ([]string, error) {
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))
	if len(r.outputs) == 0 {
		return nil, nil
	}
	out := r.outputs[0]
	r.outputs = r.outputs[1:]
	return out, nil
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) error {
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))
	return nil
}

func TestInspectorUsesConfiguredGitPath(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{}
	inspector := &Inspector{Runner: runner, GitPath: "/opt/git/bin/git"}

	if _, err := inspector.BranchesContainingHead(context.Background()); err != nil {
		t.Fatalf("BranchesContainingHead() error = %v", err)
	}
	if _, err := inspector.Remotes(context.Background()); err != nil {
		t.Fatalf("Remotes() error = %v", err)
	}

	want := []string{
		"/opt/git/bin/git branch -a --contains HEAD",
		"/opt/git/bin/git remote -v",
	}
	for i, call := range want {
		if runner.calls[i] != call {
			t.Fatalf("call %d = %q, want %q", i, runner.calls[i], call)
		}
	}
}

func TestInspectorArchiveDefault(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{}
	inspector := &Inspector{Runner: runner}

	if err := inspector.Archive(context.Background(), "develop", "widget-2.0/", "/ws/SOURCES/widget-2.0.tar.gz"); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	want := "git archive --format=tar.gz --prefix=widget-2.0/ -o /ws/SOURCES/widget-2.0.tar.gz develop"
	if runner.calls[0] != want {
		t.Fatalf("archive call = %q, want %q", runner.calls[0], want)
	}
}

func TestInspectorArchiveOverride(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{}
	inspector := &Inspector{Runner: runner, ArchiveCommand: []string{"git-archive-all", "--force-submodules"}}

	if err := inspector.Archive(context.Background(), "v1.0", "pkg-1.0/", "/out/pkg-1.0.tar.gz"); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	want := "git-archive-all --force-submodules --prefix pkg-1.0/ -o /out/pkg-1.0.tar.gz v1.0"
	if runner.calls[0] != want {
		t.Fatalf("archive call = %q, want %q", runner.calls[0], want)
	}
}
