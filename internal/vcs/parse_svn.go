package vcs

import (
	"regexp"
	"strings"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
)

var svnCodes = map[byte]models.StatusKind{
	' ': models.StatusUpToDate,
	'A': models.StatusAdded,
	'C': models.StatusConflict,
	'D': models.StatusDeleted,
	'M': models.StatusModified,
}

// svnVerboseRe matches the tail of a `status -v` line: working revision,
// last changed revision, author, path.
var svnVerboseRe = regexp.MustCompile(`^\s*(\d+|-)\s+(\d+|\?|-)\s+(\S+)\s+(.+?)\s*$`)

// svnColumns is the width of the status columns before the path.
const svnColumns = 8

// parseSVNStatus reads `svn status` or `svn status -v` lines. The first
// column holds the status code; unknown codes are skipped.
func parseSVNStatus(lines []string) map[string]models.StatusRecord {
	records := make(map[string]models.StatusRecord)

	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r\n")
		if len(line) <= svnColumns {
			continue
		}
		kind, ok := svnCodes[line[0]]
		if !ok {
			continue
		}

		rest := line[svnColumns:]
		record := models.StatusRecord{Status: kind}
		if m := svnVerboseRe.FindStringSubmatch(rest); m != nil {
			record.Path = m[4]
			if m[1] != "-" {
				record.Revision = m[1]
			}
		} else {
			record.Path = strings.TrimSpace(rest)
		}
		if record.Path == "" {
			continue
		}
		records[record.Path] = record
	}

	return records
}
