package vcs

import (
	"fmt"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
)

// ParseStatus turns a backend's status output into records keyed by path
// relative to the command's working directory. Lines that match nothing
// are ignored. The grammars read the same whether or not the status was
// recursive.
func ParseStatus(kind models.BackendKind, lines []string, _ bool) map[string]models.StatusRecord {
	switch kind {
	case models.BackendCVS:
		return parseCVSStatus(lines)
	case models.BackendSVN:
		return parseSVNStatus(lines)
	case models.BackendGit:
		return parseGitStatus(lines)
	}
	return map[string]models.StatusRecord{}
}

// ParseHistory turns a backend's log output into revision records, newest
// first as emitted. The svn log is not parsed and yields
// ErrHistoryUnsupported.
func ParseHistory(kind models.BackendKind, lines []string) ([]models.HistoryRecord, error) {
	switch kind {
	case models.BackendCVS:
		return parseCVSHistory(lines), nil
	case models.BackendGit:
		return parseGitHistory(lines), nil
	case models.BackendSVN:
		return nil, ErrHistoryUnsupported
	}
	return nil, fmt.Errorf("%w: %s", ErrHistoryUnsupported, kind)
}
