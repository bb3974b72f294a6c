package artifacts

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/sys/unix"

	"gitrpm/internal/logging"
)

// Suffix identifying produced package files under the workspace.
const artifactSuffix = ".rpm"

// Collected describes one package file relocated to the caller.
type Collected struct {
	Name     string
	Path     string
	Checksum string
}

// CollectError means a produced package could not be relocated, which
// leaves the invocation without its primary output.
type CollectError struct {
	Path string
	Err  error
}

func (e *CollectError) Error() string {
	return fmt.Sprintf("collect artifact %s: %v", e.Path, e.Err)
}

func (e *CollectError) Unwrap() error {
	return e.Err
}

// Collector relocates produced packages from the workspace's output
// trees to the caller's directory.
type Collector struct {
	Logger *slog.Logger
}

func (c *Collector) logger() *slog.Logger {
	if c != nil {
		return logging.Ensure(c.Logger)
	}
	return slog.Default()
}

// Collect walks root and moves every regular *.rpm file into destDir,
// keeping only the basename so architecture subdirectories flatten
// away. A second pass over an unchanged tree finds nothing and
// succeeds. Each relocation is reported with its blake3 checksum.
func (c *Collector) Collect(root, destDir string) ([]Collected, error) {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var collected []Collected
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !entry.Type().IsRegular() || !strings.HasSuffix(entry.Name(), artifactSuffix) {
			return nil
		}

		sum, err := checksum(path)
		if err != nil {
			return &CollectError{Path: path, Err: err}
		}

		dest := filepath.Join(destDir, entry.Name())
		if err := relocate(path, dest); err != nil {
			return &CollectError{Path: path, Err: err}
		}

		c.logger().Info("collected package", "artifact", entry.Name(), "blake3", sum)
		collected = append(collected, Collected{Name: entry.Name(), Path: dest, Checksum: sum})
		return nil
	})
	if walkErr != nil {
		var collectErr *CollectError
		if errors.As(walkErr, &collectErr) {
			return nil, walkErr
		}
		return nil, &CollectError{Path: root, Err: walkErr}
	}
	return collected, nil
}

// relocate prefers a rename and falls back to copy-and-remove when the
// destination sits on another filesystem.
func relocate(src, dest string) error {
	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.EXDEV) {
		return err
	}

	in, openErr := os.Open(src)
	if openErr != nil {
		return openErr
	}
	defer in.Close()

	out, createErr := os.Create(dest)
	if createErr != nil {
		return createErr
	}
	if _, copyErr := io.Copy(out, in); copyErr != nil {
		out.Close()
		return copyErr
	}
	if closeErr := out.Close(); closeErr != nil {
		return closeErr
	}
	return os.Remove(src)
}

func checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
