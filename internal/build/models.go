package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gitrpm/internal/rpm"
)

// BuildRequest collects the resolved inputs for one pipeline run. It is
// created once and not mutated afterwards.
type BuildRequest struct {
	// DescriptorPath is the package descriptor (spec file) to build.
	DescriptorPath string

	// Name, Branch and DistTag are explicit overrides; empty means
	// "derive from repository state".
	Name    string
	Branch  string
	DistTag string

	// WorkDir is an explicit workspace root; empty allocates a
	// temporary one removed on exit.
	WorkDir string

	// Defines are extra rpmbuild macro bindings in caller order.
	Defines []rpm.Macro

	// OutputDir receives the collected packages, normally the caller's
	// working directory at invocation time.
	OutputDir string

	Quiet bool
}

// InputError reports a missing or invalid explicit argument, caught
// before any subprocess is spawned.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return e.Reason
}

// ParseDefines converts "name=value" entries into ordered macros.
func ParseDefines(entries []string) ([]rpm.Macro, error) {
	var macros []rpm.Macro
	for _, entry := range entries {
		name, value, found := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, &InputError{Reason: fmt.Sprintf("malformed define %q, expected name=value", entry)}
		}
		macros = append(macros, rpm.Macro{Name: name, Value: value})
	}
	return macros, nil
}

// DiscoverDescriptor finds the descriptor in dir when none was named:
// exactly one *.spec file must exist there.
func DiscoverDescriptor(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &InputError{Reason: fmt.Sprintf("scan %s for a descriptor: %v", dir, err)}
	}

	var specs []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), ".spec") {
			specs = append(specs, entry.Name())
		}
	}
	switch len(specs) {
	case 1:
		return filepath.Join(dir, specs[0]), nil
	case 0:
		return "", &InputError{Reason: fmt.Sprintf("no .spec descriptor in %s, pass --spec", dir)}
	default:
		return "", &InputError{Reason: fmt.Sprintf("%d .spec descriptors in %s, pass --spec to pick one", len(specs), dir)}
	}
}

func validateDescriptor(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &InputError{Reason: fmt.Sprintf("descriptor %s does not exist", path)}
		}
		return &InputError{Reason: fmt.Sprintf("descriptor %s is not readable: %v", path, err)}
	}
	if info.IsDir() || !info.Mode().IsRegular() {
		return &InputError{Reason: fmt.Sprintf("descriptor %s is not a regular file", path)}
	}
	return nil
}
