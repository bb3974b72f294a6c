package git

import (
	"context"
	"slices"

	"gitrpm/internal/run"
)

// Inspector answers repository questions by shelling out to the
// configured git binary. It only issues commands and returns raw output
// lines; interpreting those lines is the resolver's job.
type Inspector struct {
	Runner  run.Runner
	GitPath string // git binary override; empty means "git" from PATH

	// ArchiveCommand replaces the default `git archive` invocation,
	// e.g. for archivers that include nested submodule trees. The
	// command is invoked as <cmd...> --prefix <p> -o <out> <ref>.
	ArchiveCommand []string
}

func (i *Inspector) git() string {
	if i.GitPath != "" {
		return i.GitPath
	}
	return "git"
}

// BranchesContainingHead lists every local and remote-tracking branch
// that contains the current checkout position.
func (i *Inspector) BranchesContainingHead(ctx context.Context) ([]string, error) {
	return i.Runner.Output(ctx, i.git(), "branch", "-a", "--contains", "HEAD")
}

// Remotes lists the configured remotes with their URLs, one line per
// remote and direction, in git's own listing order.
func (i *Inspector) Remotes(ctx context.Context) ([]string, error) {
	return i.Runner.Output(ctx, i.git(), "remote", "-v")
}

// Archive writes a compressed archive of the tree at ref to outPath,
// with every path inside the archive prefixed by prefix.
func (i *Inspector) Archive(ctx context.Context, ref, prefix, outPath string) error {
	if len(i.ArchiveCommand) > 0 {
		args := append(slices.Clone(i.ArchiveCommand[1:]), "--prefix", prefix, "-o", outPath, ref)
		return i.Runner.Run(ctx, i.ArchiveCommand[0], args...)
	}
	return i.Runner.Run(ctx, i.git(), "archive", "--format=tar.gz", "--prefix="+prefix, "-o", outPath, ref)
}
