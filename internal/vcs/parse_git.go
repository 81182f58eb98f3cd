package vcs

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
)

var (
	gitCommitRe = regexp.MustCompile(`^commit\s+([0-9a-f]{7,64})`)
	gitAuthorRe = regexp.MustCompile(`^Author:\s+(.+?)\s*$`)
	gitDateRe   = regexp.MustCompile(`^Date:\s+(.+?)\s*$`)
)

// unquoteGitPath undoes the C-style quoting git applies to unusual names.
func unquoteGitPath(p string) string {
	if strings.HasPrefix(p, `"`) {
		if unquoted, err := strconv.Unquote(p); err == nil {
			return unquoted
		}
	}
	return p
}

func gitStatusKind(x, y byte) (models.StatusKind, bool) {
	switch string([]byte{x, y}) {
	case "??", "!!":
		return "", false
	case "DD", "AU", "UD", "UA", "DU", "AA", "UU":
		return models.StatusConflict, true
	}
	switch {
	case x == 'D' || y == 'D':
		return models.StatusDeleted, true
	case x == 'A' || x == 'R' || x == 'C':
		return models.StatusAdded, true
	case x == 'M' || y == 'M' || x == 'T' || y == 'T':
		return models.StatusModified, true
	case x == ' ' && y == ' ':
		return models.StatusUpToDate, true
	}
	return "", false
}

// parseGitStatus reads `git status --porcelain` (v1) lines. Renames and
// copies are keyed by their new name.
func parseGitStatus(lines []string) map[string]models.StatusRecord {
	records := make(map[string]models.StatusRecord)

	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r\n")
		if len(line) < 4 || line[2] != ' ' {
			continue
		}
		kind, ok := gitStatusKind(line[0], line[1])
		if !ok {
			continue
		}

		p := line[3:]
		if idx := strings.Index(p, " -> "); idx >= 0 {
			p = p[idx+len(" -> "):]
		}
		p = unquoteGitPath(p)
		records[p] = models.StatusRecord{Path: p, Status: kind}
	}

	return records
}

// parseGitHistory reads the default `git log` format.
func parseGitHistory(lines []string) []models.HistoryRecord {
	history := []models.HistoryRecord{}
	var current *models.HistoryRecord
	var message []string

	flush := func() {
		if current == nil {
			return
		}
		current.Comment = strings.TrimSpace(strings.Join(message, "\n"))
		history = append(history, *current)
		current = nil
		message = nil
	}

	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r\n")
		if m := gitCommitRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &models.HistoryRecord{Revision: m[1]}
			continue
		}
		if current == nil {
			continue
		}
		if m := gitAuthorRe.FindStringSubmatch(line); m != nil && current.Author == "" {
			current.Author = m[1]
			continue
		}
		if m := gitDateRe.FindStringSubmatch(line); m != nil && current.Date == "" {
			current.Date = m[1]
			continue
		}
		if current.Date != "" && (line == "" || strings.HasPrefix(line, "    ")) {
			message = append(message, strings.TrimPrefix(line, "    "))
		}
	}
	flush()

	return history
}
