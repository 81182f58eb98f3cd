package bootstrap

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
	"github.com/google-code-export/editra-plugins-sub001/internal/ui"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// relativeToCwd shortens p for display when it lies below the working
// directory.
func relativeToCwd(p string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return p
	}
	rel, err := filepath.Rel(cwd, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p
	}
	return rel
}

func printStatus(w io.Writer, records []models.StatusRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range records {
		rev := r.Revision
		if rev == "" {
			rev = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Status, rev, relativeToCwd(r.Path))
	}
	return tw.Flush()
}

func printHistory(w io.Writer, records []models.HistoryRecord) error {
	for i, r := range records {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s  %s  %s", r.Revision, r.Author, r.Date)
		if r.State != "" {
			fmt.Fprintf(w, "  [%s]", r.State)
		}
		fmt.Fprintln(w)
		if r.Path != "" {
			fmt.Fprintf(w, "  %s\n", relativeToCwd(r.Path))
		}
		for _, line := range strings.Split(r.Comment, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	return nil
}

func sortedStatus(records map[string]models.StatusRecord) []models.StatusRecord {
	return ui.SortedStatus(records)
}
