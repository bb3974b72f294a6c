package resolve

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// BranchEnvVar overrides branch detection entirely when set. It is
// consulted before any repository query.
const BranchEnvVar = "GITRPM_BRANCH"

// Repository is the seam between the resolution heuristics and the
// actual version-control tool. Implemented by git.Inspector; stubbed in
// tests with synthetic listings.
type Repository interface {
	BranchesContainingHead(ctx context.Context) ([]string, error)
	Remotes(ctx context.Context) ([]string, error)
}

// BranchDetectionError means no usable branch could be derived from the
// repository state.
type BranchDetectionError struct {
	Reason string
}

func (e *BranchDetectionError) Error() string {
	return fmt.Sprintf("cannot determine current branch: %s (pass --branch to name one explicitly)", e.Reason)
}

// Resolver derives build identity from repository state.
type Resolver struct {
	Repo Repository
}

// ResolveBranch returns the branch to build from. An explicit value or
// the environment override wins without touching the repository; else
// the branch is picked from the listing of branches containing HEAD,
// degrading from the checked-out branch to local branches to
// remote-tracking ones.
func (r *Resolver) ResolveBranch(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(BranchEnvVar); env != "" {
		return env, nil
	}
	lines, err := r.Repo.BranchesContainingHead(ctx)
	if err != nil {
		return "", err
	}
	return branchFromListing(lines)
}

func branchFromListing(lines []string) (string, error) {
	if len(lines) == 0 {
		return "", &BranchDetectionError{Reason: "no branch contains HEAD"}
	}

	// Checked-out branch. A parenthesized name is the detached-HEAD
	// sentinel ("(no branch)", "(HEAD detached at ...)"), not a branch.
	for _, line := range lines {
		if name, ok := strings.CutPrefix(line, "* "); ok {
			if !strings.HasPrefix(name, "(") {
				return name, nil
			}
		}
	}

	// Any plain local branch.
	for _, line := range lines {
		if strings.HasPrefix(line, "* ") || strings.Contains(line, "/") {
			continue
		}
		if name := strings.TrimSpace(line); name != "" {
			return name, nil
		}
	}

	// Remote-tracking branches, excluding symbolic aliases like
	// "origin/HEAD -> origin/master".
	var candidates []string
	for _, line := range lines {
		if strings.HasPrefix(line, "* ") || !strings.Contains(line, "/") || strings.Contains(line, "->") {
			continue
		}
		if name := strings.TrimSpace(line); name != "" {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return "", &BranchDetectionError{Reason: "branch listing had no usable entries"}
	}

	chosen := ""
	for _, candidate := range candidates {
		if strings.TrimPrefix(candidate, "remotes/") == "origin/master" {
			chosen = candidate
			break
		}
	}
	if chosen == "" {
		for _, candidate := range candidates {
			if strings.HasSuffix(candidate, "/master") {
				chosen = candidate
				break
			}
		}
	}
	if chosen == "" {
		chosen = candidates[0]
	}

	if name, ok := strings.CutPrefix(chosen, "remotes/"); ok {
		return name, nil
	}
	return chosen[strings.LastIndex(chosen, "/")+1:], nil
}
