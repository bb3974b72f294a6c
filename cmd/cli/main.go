package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"gitrpm/internal/artifacts"
	"gitrpm/internal/build"
	"gitrpm/internal/config"
	"gitrpm/internal/git"
	"gitrpm/internal/logging"
	"gitrpm/internal/resolve"
	"gitrpm/internal/rpm"
	"gitrpm/internal/run"
)

const defaultLogLevel = "info"

func main() {
	var levelVar slog.LevelVar
	levelVar.Set(slog.LevelInfo)

	logger := logging.NewCLI(os.Stderr, &levelVar)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(logger, &levelVar)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("build interrupted", "error", err)
			os.Exit(130)
		}
		logger.Error("build failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand(logger *slog.Logger, levelVar *slog.LevelVar) *cobra.Command {
	var (
		logLevel   string
		logJSON    bool
		configPath string

		gitPath  string
		specPath string
		name     string
		distTag  string
		branch   string
		workDir  string
		defines  []string
		quiet    bool
	)

	root := &cobra.Command{
		Use:           "gitrpm",
		Short:         "Build binary and source RPM packages from a git checkout",
		Long: "gitrpm resolves the package name, version and branch from the " +
			"repository and its spec file, stages an rpmbuild workspace, archives " +
			"the source tree at the resolved ref, runs rpmbuild -ba, and moves the " +
			"produced packages into the current directory.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       version,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "Set log verbosity (debug, info, warning, error)")
	root.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit log records as JSON")

	root.Flags().StringVar(&configPath, "config", "", "Path to a gitrpm config file")
	root.Flags().StringVar(&gitPath, "git", "", "Path to the git binary")
	root.Flags().StringVar(&specPath, "spec", "", "Path to the spec file (default: the only *.spec in the current directory)")
	root.Flags().StringVar(&name, "name", "", "Package name (default: derived from the origin remote URL)")
	root.Flags().StringVar(&distTag, "dist", "", "Dist tag to use verbatim instead of synthesizing one")
	root.Flags().StringVar(&branch, "branch", "", "Branch or ref to build (default: detected from the repository)")
	root.Flags().StringVar(&workDir, "workdir", "", "Workspace directory (default: a temporary directory removed on exit)")
	root.Flags().StringArrayVarP(&defines, "define", "D", nil, "Extra rpmbuild macro as name=value; repeat to add more")
	root.Flags().BoolVarP(&quiet, "quiet", "q", false, "Pass --quiet to rpmbuild and only report errors")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := parseLogLevel(logLevel)
		if err != nil {
			return err
		}
		levelVar.Set(level)
		if logJSON {
			logger = logging.NewJSON(os.Stderr, levelVar)
			slog.SetDefault(logger)
		}
		return nil
	}

	root.RunE = func(cmd *cobra.Command, args []string) error {
		if quiet {
			levelVar.Set(slog.LevelError)
		}
		if cmd.Flags().Changed("name") && strings.TrimSpace(name) == "" {
			return &build.InputError{Reason: "--name must not be empty"}
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		if specPath == "" {
			specPath, err = build.DiscoverDescriptor(cwd)
			if err != nil {
				return err
			}
		}

		macros, err := build.ParseDefines(append(append([]string(nil), cfg.Defines...), defines...))
		if err != nil {
			return err
		}

		cmdLogger := logging.Ensure(logger).With("command", "build")
		runner := run.ExecRunner{}
		inspector := &git.Inspector{
			Runner:         runner,
			GitPath:        firstNonEmpty(gitPath, cfg.GitPath),
			ArchiveCommand: cfg.ArchiveCommand,
		}

		service := build.Service{
			Logger:      cmdLogger,
			Resolver:    &resolve.Resolver{Repo: inspector},
			ReadVersion: resolve.ResolveVersion,
			DistTagger:  &rpm.DistTagger{Runner: runner, RPMPath: cfg.RPMPath},
			Archiver:    inspector,
			Builder:     &rpm.Builder{Runner: runner, RPMBuildPath: cfg.RPMBuildPath},
			Collector:   &artifacts.Collector{Logger: cmdLogger.With("component", "collector")},
		}

		request := &build.BuildRequest{
			DescriptorPath: specPath,
			Name:           name,
			Branch:         branch,
			DistTag:        distTag,
			WorkDir:        workDir,
			Defines:        macros,
			OutputDir:      cwd,
			Quiet:          quiet,
		}
		return service.Run(cmd.Context(), request)
	}

	return root
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "err":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", value)
	}
}
