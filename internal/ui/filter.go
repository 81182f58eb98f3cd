package ui

import (
	"sort"
	"strings"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
)

// FilterHistory keeps the records whose revision, author or comment
// contains every whitespace-separated term of query, ignoring case.
func FilterHistory(records []models.HistoryRecord, query string) []models.HistoryRecord {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return records
	}

	filtered := make([]models.HistoryRecord, 0, len(records))
	for _, r := range records {
		haystack := strings.ToLower(strings.Join([]string{r.Revision, r.Author, r.Comment}, "\x00"))
		match := true
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				match = false
				break
			}
		}
		if match {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// FilterStatus keeps the records whose path contains query, ignoring case.
func FilterStatus(records []models.StatusRecord, query string) []models.StatusRecord {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records
	}
	filtered := make([]models.StatusRecord, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Path), query) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// SortedStatus flattens a status map ordered by path.
func SortedStatus(records map[string]models.StatusRecord) []models.StatusRecord {
	out := make([]models.StatusRecord, 0, len(records))
	for _, r := range records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// firstLine returns the summary line of a commit comment.
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
