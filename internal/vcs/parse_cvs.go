package vcs

import (
	"path"
	"regexp"
	"strings"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
)

const cvsNone = "(none)"

var (
	cvsStatusRe    = regexp.MustCompile(`^File:\s+(?:no file\s+)?(\S+)\s+Status:\s+(.+?)\s*$`)
	cvsWorkRevRe   = regexp.MustCompile(`^\s*Working revision:\s*(\S+)`)
	cvsRepoRevRe   = regexp.MustCompile(`^\s*Repository revision:\s*(\S+)`)
	cvsStickyTagRe = regexp.MustCompile(`^\s*Sticky Tag:\s*(\S+)`)
	cvsStickyDtRe  = regexp.MustCompile(`^\s*Sticky Date:\s*(\S+)`)
	cvsStickyOptRe = regexp.MustCompile(`^\s*Sticky Options:\s*(\S+)`)
	cvsExaminingRe = regexp.MustCompile(`^cvs (?:server|status): Examining (\S+)`)

	cvsWorkingFileRe = regexp.MustCompile(`^Working file:\s+(.+?)\s*$`)
	cvsRevisionRe    = regexp.MustCompile(`^revision\s+(\S+)`)
	cvsDateLineRe    = regexp.MustCompile(`^date:\s+(\S+\s+\S+);\s+author:\s+(\S+);\s+state:\s+(\S+);`)
)

// cvsStatusKind maps the status text of a "File:" line. The text is
// compared with dashes and spaces removed, lowercased.
func cvsStatusKind(text string) (models.StatusKind, bool) {
	v := strings.ToLower(strings.NewReplacer("-", "", " ", "").Replace(text))
	switch {
	case strings.Contains(v, "modified"):
		return models.StatusModified, true
	case strings.Contains(v, "added"):
		return models.StatusAdded, true
	case strings.Contains(v, "uptodate"):
		return models.StatusUpToDate, true
	case strings.Contains(v, "remove"):
		return models.StatusDeleted, true
	case strings.Contains(v, "conflict"), strings.Contains(v, "merge"):
		return models.StatusConflict, true
	}
	return "", false
}

func cvsValue(re *regexp.Regexp, line string) (string, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// parseCVSStatus reads `cvs status -l` blocks. Metadata lines attach to the
// most recent "File:" line until the next one; "(none)" leaves the field
// empty. Files with an unmapped status are skipped with their metadata.
func parseCVSStatus(lines []string) map[string]models.StatusRecord {
	records := make(map[string]models.StatusRecord)
	dir := ""
	var current *models.StatusRecord

	flush := func() {
		if current != nil {
			records[current.Path] = *current
			current = nil
		}
	}

	set := func(field *string, value string) {
		if value != cvsNone {
			*field = value
		}
	}

	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r\n")

		if m := cvsStatusRe.FindStringSubmatch(line); m != nil {
			flush()
			key := m[1]
			if dir != "" && dir != "." {
				key = path.Join(dir, key)
			}
			kind, ok := cvsStatusKind(m[2])
			if !ok {
				continue
			}
			current = &models.StatusRecord{Path: key, Status: kind}
			continue
		}
		if v, ok := cvsValue(cvsExaminingRe, line); ok {
			flush()
			dir = v
			continue
		}
		if current == nil {
			continue
		}
		if v, ok := cvsValue(cvsWorkRevRe, line); ok {
			set(&current.Revision, v)
		} else if v, ok := cvsValue(cvsRepoRevRe, line); ok {
			set(&current.RRevision, v)
		} else if v, ok := cvsValue(cvsStickyTagRe, line); ok {
			set(&current.Tag, v)
		} else if v, ok := cvsValue(cvsStickyDtRe, line); ok {
			set(&current.Date, v)
		} else if v, ok := cvsValue(cvsStickyOptRe, line); ok {
			set(&current.Options, v)
		}
	}
	flush()

	return records
}

func isCVSDelimiter(line string) bool {
	return strings.HasPrefix(line, "----------")
}

func isCVSTerminator(line string) bool {
	return strings.HasPrefix(line, "==========")
}

// parseCVSHistory reads `cvs log` output. Each revision block is a
// delimiter, a revision line, a date/author/state line and the comment.
// Blocks that break that order are dropped.
func parseCVSHistory(lines []string) []models.HistoryRecord {
	history := []models.HistoryRecord{}
	file := ""

	clean := make([]string, len(lines))
	for i, l := range lines {
		clean[i] = strings.TrimRight(l, "\r\n")
	}

	for i := 0; i < len(clean); i++ {
		line := clean[i]
		if v, ok := cvsValue(cvsWorkingFileRe, line); ok {
			file = v
			continue
		}
		if !isCVSDelimiter(line) || i+2 >= len(clean) {
			continue
		}

		rev, ok := cvsValue(cvsRevisionRe, clean[i+1])
		if !ok {
			continue
		}
		m := cvsDateLineRe.FindStringSubmatch(clean[i+2])
		if m == nil {
			continue
		}

		record := models.HistoryRecord{
			Path:     file,
			Revision: rev,
			Date:     m[1],
			Author:   m[2],
			State:    m[3],
		}

		j := i + 3
		if j < len(clean) && strings.HasPrefix(clean[j], "branches:") {
			j++
		}
		var comment []string
		for ; j < len(clean); j++ {
			if isCVSDelimiter(clean[j]) || isCVSTerminator(clean[j]) {
				break
			}
			comment = append(comment, clean[j])
		}
		record.Comment = strings.TrimSpace(strings.Join(comment, "\n"))
		history = append(history, record)
		i = j - 1
	}

	return history
}
