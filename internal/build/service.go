package build

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"gitrpm/internal/artifacts"
	"gitrpm/internal/logging"
	"gitrpm/internal/rpm"
	"gitrpm/internal/workspace"
)

// Resolver derives the package name and build branch from repository
// state. Implemented by resolve.Resolver.
type Resolver interface {
	ResolveName(ctx context.Context, explicit string) (string, error)
	ResolveBranch(ctx context.Context, explicit string) (string, error)
}

// VersionReader extracts the package version from the descriptor file.
type VersionReader func(descriptorPath string) (string, error)

// DistTagger synthesizes the dist tag for a resolved branch.
type DistTagger interface {
	Synthesize(ctx context.Context, explicit, branch string) (string, error)
}

// PackageBuilder invokes the packaging tool against a prepared
// workspace. Implemented by rpm.Builder.
type PackageBuilder interface {
	Build(ctx context.Context, topDir, descriptorPath, name, dist string, defines []rpm.Macro, quiet bool) error
}

// Collector relocates produced packages to the caller's directory.
type Collector interface {
	Collect(root, destDir string) ([]artifacts.Collected, error)
}

// Service runs the packaging pipeline: resolve identity and branch,
// synthesize the dist tag, stage the workspace, build, collect. Stages
// run strictly in sequence and the first failure aborts the run.
type Service struct {
	Logger *slog.Logger

	Resolver    Resolver
	ReadVersion VersionReader
	DistTagger  DistTagger
	Archiver    workspace.Archiver
	Builder     PackageBuilder
	Collector   Collector
}

func (s *Service) logger() *slog.Logger {
	return logging.Ensure(s.Logger)
}

// Run executes the pipeline for req. An implicitly allocated workspace
// is removed on every exit path; an explicit one persists for
// inspection even when a later stage fails.
func (s *Service) Run(ctx context.Context, req *BuildRequest) error {
	logger := s.logger().With("run_id", uuid.New().String())

	descriptorPath := strings.TrimSpace(req.DescriptorPath)
	if descriptorPath == "" {
		return &InputError{Reason: "a package descriptor is required"}
	}
	if err := validateDescriptor(descriptorPath); err != nil {
		return err
	}

	version, err := s.ReadVersion(descriptorPath)
	if err != nil {
		return err
	}

	name, err := s.Resolver.ResolveName(ctx, req.Name)
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return &InputError{Reason: "package name is empty"}
	}

	branch, err := s.Resolver.ResolveBranch(ctx, req.Branch)
	if err != nil {
		return err
	}

	logger = logger.With("package", name, "version", version, "branch", branch)
	logger.Info("resolved build identity")

	dist, err := s.DistTagger.Synthesize(ctx, req.DistTag, branch)
	if err != nil {
		return err
	}

	ws, err := workspace.Acquire(req.WorkDir)
	if err != nil {
		return err
	}
	defer ws.Release()

	stagedDescriptor, err := workspace.Prepare(ctx, ws, name, version, descriptorPath, branch, s.Archiver)
	if err != nil {
		return err
	}
	logger.Info("workspace prepared", "workdir", ws.Root, "dist", dist)

	if err := s.Builder.Build(ctx, ws.Root, stagedDescriptor, name, dist, req.Defines, req.Quiet); err != nil {
		return err
	}

	collected, err := s.Collector.Collect(ws.Root, req.OutputDir)
	if err != nil {
		return err
	}
	logger.Info("build completed", "artifacts", len(collected))
	return nil
}
