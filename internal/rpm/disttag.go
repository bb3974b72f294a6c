package rpm

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gitrpm/internal/run"
)

// Characters rpm does not accept in a dist tag; every maximal run
// collapses to a single underscore.
var distUnsafePattern = regexp.MustCompile(`[^A-Za-z0-9._+]+`)

// DistTagger composes the dist tag that makes a build uniquely
// identifiable: a timestamp, the sanitized branch name (omitted for
// master), and the platform's own dist suffix.
type DistTagger struct {
	Runner  run.Runner
	RPMPath string // rpm binary override; empty means "rpm" from PATH

	// Now is the clock used for the timestamp component. Tests pin it;
	// nil means time.Now.
	Now func() time.Time
}

func (d *DistTagger) rpm() string {
	if d.RPMPath != "" {
		return d.RPMPath
	}
	return "rpm"
}

func (d *DistTagger) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Synthesize returns the dist tag for a build from branch. An explicit
// tag is returned verbatim; the caller owns its validity.
func (d *DistTagger) Synthesize(ctx context.Context, explicit, branch string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	local := branch[strings.LastIndex(branch, "/")+1:]
	sanitized := distUnsafePattern.ReplaceAllString(local, "_")

	suffix, err := d.platformSuffix(ctx)
	if err != nil {
		return "", err
	}

	tag := strconv.FormatInt(d.now().Unix(), 10)
	if sanitized != "master" {
		tag += "." + sanitized
	}
	return tag + suffix, nil
}

// platformSuffix asks rpm for the host's default dist suffix, e.g.
// ".el9". An empty expansion is valid.
func (d *DistTagger) platformSuffix(ctx context.Context) (string, error) {
	lines, err := d.Runner.Output(ctx, d.rpm(), "--eval", "%{?dist}")
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}
	return strings.TrimSpace(lines[0]), nil
}
