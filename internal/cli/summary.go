package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"ytearnings/internal/core"
	"ytearnings/internal/sheets/memory"
)

// PrintSummary writes the end-of-run report: counts per category followed
// by every skipped file, row and period.
func PrintSummary(w io.Writer, s *core.RunSummary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUMMARY\tCOUNT")
	for _, c := range s.Counts() {
		fmt.Fprintf(tw, "%s\t%d\n", c.Name, c.Count)
	}
	tw.Flush()

	if len(s.Periods) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TAB\tREVENUE ROWS\tEXPENSE ROWS\tREVENUE TOTAL\tSTATUS")
		for _, p := range s.Periods {
			status := "written"
			if !p.Written {
				status = "FAILED"
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", p.Period.Label(), p.RevenueRows, p.ExpenseRows, p.RevenueTotal.StringFixed(2), status)
		}
		tw.Flush()
	}

	section(w, "Ignored files", len(s.FilesIgnored), func() {
		for _, f := range s.FilesIgnored {
			fmt.Fprintf(w, "  %s\n", f)
		}
	})
	section(w, "Classification errors", len(s.ClassificationErrors), func() {
		for _, e := range s.ClassificationErrors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	})
	section(w, "Extraction errors", len(s.ExtractionErrors), func() {
		for _, e := range s.ExtractionErrors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	})
	section(w, "Row warnings", len(s.RowWarnings), func() {
		for _, rw := range s.RowWarnings {
			fmt.Fprintf(w, "  %s\n", rw)
		}
	})
	section(w, "Sink errors", len(s.SinkErrors), func() {
		for _, e := range s.SinkErrors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	})
}

func section(w io.Writer, title string, n int, body func()) {
	if n == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d):\n", title, n)
	body()
}

// PrintTabs dumps every tab of an in-memory workbook as tab separated rows.
func PrintTabs(w io.Writer, store *memory.Store) {
	for _, label := range store.Tabs() {
		values, _ := store.Values(label)
		fmt.Fprintf(w, "== %s ==\n", label)
		for _, row := range values {
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		fmt.Fprintln(w)
	}
}
