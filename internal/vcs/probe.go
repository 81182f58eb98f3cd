package vcs

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/Masterminds/semver/v3"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
)

var versionRe = regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?)`)

// minimumVersions are the oldest tool releases whose output the parsers
// understand. svn 1.7 introduced the single .svn directory layout.
var minimumVersions = map[models.BackendKind]string{
	models.BackendCVS: ">= 1.11",
	models.BackendSVN: ">= 1.7",
	models.BackendGit: ">= 2.0",
}

var versionArgs = map[models.BackendKind][]string{
	models.BackendCVS: {"--version"},
	models.BackendSVN: {"--version", "--quiet"},
	models.BackendGit: {"--version"},
}

// ProbeResult describes the installed tool.
type ProbeResult struct {
	Kind       models.BackendKind `json:"backend"`
	Command    string             `json:"command"`
	Version    *semver.Version    `json:"version"`
	Constraint string             `json:"constraint"`
	Supported  bool               `json:"supported"`
}

// parseToolVersion extracts the first dotted version from a --version banner.
func parseToolVersion(lines []string) (*semver.Version, error) {
	for _, line := range lines {
		if m := versionRe.FindString(line); m != "" {
			return semver.NewVersion(m)
		}
	}
	return nil, fmt.Errorf("no version found in tool output")
}

// Probe runs the backend's version command and checks it against the
// minimum supported release.
func (s *Service) Probe(ctx context.Context) (*ProbeResult, error) {
	kind := s.backend.Kind()
	out, err := s.runner.Run(ctx, os.TempDir(), versionArgs[kind], RunOptions{MergeStderr: true})
	if err != nil {
		return nil, err
	}

	version, err := parseToolVersion(out.Stdout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.backend.Command(), err)
	}

	result := &ProbeResult{
		Kind:       kind,
		Command:    s.backend.Command(),
		Version:    version,
		Constraint: minimumVersions[kind],
	}
	constraint, err := semver.NewConstraint(result.Constraint)
	if err != nil {
		return nil, err
	}
	result.Supported = constraint.Check(version)
	return result, nil
}
