// SPDX-License-Identifier: Apache-2.0
package gpg

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-version"
)

const (
	// ModernBinary is preferred when both variants are installed
	ModernBinary = "gpg2"
	// LegacyBinary is the fallback name
	LegacyBinary = "gpg"
	// AgentControlBinary is used to stop agents started for throwaway keyrings
	AgentControlBinary = "gpgconf"
)

// Since 2.1 a passphrase supplied by the caller is only honoured with
// loopback pinentry.
var loopbackConstraint = version.MustConstraints(version.NewConstraint(">= 2.1"))

var versionPattern = regexp.MustCompile(`\d+\.\d+(?:\.\d+)*`)

// LookPathFunc resolves an executable name to a path (exec.LookPath)
type LookPathFunc func(file string) (string, error)

// Tool is a resolved gpg executable
type Tool struct {
	Path    string
	Version *version.Version // nil when the version could not be determined

	// AgentControl is the gpgconf path, empty when unavailable
	AgentControl string
}

// NeedsLoopback reports whether passphrases must go through loopback pinentry
func (t Tool) NeedsLoopback() bool {
	return t.Version != nil && loopbackConstraint.Check(t.Version)
}

func (t Tool) String() string {
	if t.Version == nil {
		return t.Path
	}
	return fmt.Sprintf("%s (%s)", t.Path, t.Version)
}

// Locate returns the path of the first resolvable binary, modern first
func Locate(lookPath LookPathFunc) (string, error) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, name := range []string{ModernBinary, LegacyBinary} {
		if path, err := lookPath(name); err == nil && path != "" {
			return path, nil
		}
	}
	return "", ErrToolNotFound
}

// Detect locates the tool and probes its version. A non-empty binary
// bypasses the gpg2/gpg search but must still resolve.
func Detect(ctx context.Context, runner Runner, binary string, lookPath LookPathFunc) (Tool, error) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if runner == nil {
		runner = ExecRunner{}
	}

	var tool Tool
	if binary != "" {
		path, err := lookPath(binary)
		if err != nil {
			return Tool{}, fmt.Errorf("%w: %s: %v", ErrToolNotFound, binary, err)
		}
		tool.Path = path
	} else {
		path, err := Locate(lookPath)
		if err != nil {
			return Tool{}, err
		}
		tool.Path = path
	}

	if path, err := lookPath(AgentControlBinary); err == nil {
		tool.AgentControl = path
	}

	res, err := runner.Call(ctx, versionArgs(tool.Path), nil)
	if err != nil {
		return Tool{}, fmt.Errorf("failed to run %s --version: %w", tool.Path, err)
	}
	v, err := ParseVersion(string(res.Stdout))
	if err != nil {
		log.Debugf("Could not determine gpg version for %s: %v", tool.Path, err)
		return tool, nil
	}
	tool.Version = v

	log.Debugf("Using %s", tool)
	return tool, nil
}

// ParseVersion extracts the version from the first line of `gpg --version`
func ParseVersion(output string) (*version.Version, error) {
	firstLine, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	match := versionPattern.FindString(firstLine)
	if match == "" {
		return nil, fmt.Errorf("no version in %q", firstLine)
	}
	return version.NewVersion(match)
}
