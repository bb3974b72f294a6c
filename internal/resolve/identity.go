package resolve

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// IdentityError means the package name or version could not be
// determined from the available inputs.
type IdentityError struct {
	Reason string
	Hint   string
}

func (e *IdentityError) Error() string {
	if e.Hint == "" {
		return e.Reason
	}
	return e.Reason + " (" + e.Hint + ")"
}

// Last path segment of a remote URL ending in ".git", e.g. "myproj"
// from "git@github.com:org/myproj.git (fetch)".
var remoteNamePattern = regexp.MustCompile(`([^\s/:]+)\.git(\s|$)`)

// First "Version: <token>" line of a package descriptor, matched
// case-insensitively.
var versionLinePattern = regexp.MustCompile(`(?i)^version:\s*(\S+)`)

// ResolveName returns the package name, either the explicit override or
// the repository name derived from the remote URLs. The origin remote
// is preferred; otherwise the first listed remote is used.
func (r *Resolver) ResolveName(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	lines, err := r.Repo.Remotes(ctx)
	if err != nil {
		return "", err
	}
	return nameFromRemotes(lines)
}

func nameFromRemotes(lines []string) (string, error) {
	if len(lines) == 0 {
		return "", &IdentityError{
			Reason: "repository has no remotes to derive a package name from",
			Hint:   "pass --name explicitly",
		}
	}
	line := lines[0]
	for _, candidate := range lines {
		if remote, _, found := strings.Cut(candidate, "\t"); found && remote == "origin" {
			line = candidate
			break
		}
	}
	match := remoteNamePattern.FindStringSubmatch(line)
	if match == nil {
		return "", &IdentityError{
			Reason: fmt.Sprintf("remote %q does not look like a <name>.git URL", line),
			Hint:   "pass --name explicitly",
		}
	}
	return match[1], nil
}

// ResolveVersion extracts the package version from the descriptor file:
// the first line matching "version: <token>", case-insensitively. The
// descriptor is the single source of truth for the version.
func ResolveVersion(descriptorPath string) (string, error) {
	f, err := os.Open(descriptorPath)
	if err != nil {
		return "", &IdentityError{Reason: fmt.Sprintf("open descriptor: %v", err)}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if match := versionLinePattern.FindStringSubmatch(scanner.Text()); match != nil {
			return match[1], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", &IdentityError{Reason: fmt.Sprintf("read descriptor %s: %v", descriptorPath, err)}
	}
	return "", &IdentityError{
		Reason: fmt.Sprintf("descriptor %s has no Version: line", descriptorPath),
	}
}
