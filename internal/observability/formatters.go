// Package observability provides formatted output for the CLI commands.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/agency-ats/internal/feedbacksync"
	"github.com/jonathan/agency-ats/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for CLI summaries
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintShortlist outputs a shortlist header with its stats.
func (p *Printer) PrintShortlist(sl *types.Shortlist, stats types.ShortlistStats) {
	if sl == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:     %s\n", sl.Name))
	sb.WriteString(fmt.Sprintf("ID:       %s\n", sl.ID))
	sb.WriteString(fmt.Sprintf("Job:      %s\n", sl.JobID))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Candidates: %d\n", stats.Total))
	sb.WriteString(fmt.Sprintf("  Approved: %d\n", stats.Approved))
	sb.WriteString(fmt.Sprintf("  Rejected: %d\n", stats.Rejected))
	sb.WriteString(fmt.Sprintf("  Pending:  %d", stats.Pending))

	p.printBox("SHORTLIST", sb.String())
}

// PrintResyncOutcomes outputs reason counts followed by the first synced applications.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintResyncOutcomes(outcomes []feedbacksync.ResyncOutcome, syncEnabled bool) {
	if len(outcomes) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO FEEDBACK TO RESYNC")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	if !syncEnabled {
		sb.WriteString("Feedback sync is disabled (FEEDBACK_SYNC_ENABLED)\n\n")
	}
	sb.WriteString(fmt.Sprintf("Processed %d decisions:\n", len(outcomes)))

	counts := feedbacksync.Summarize(outcomes)
	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		sb.WriteString(fmt.Sprintf("  %-24s %d\n", reason, counts[reason]))
	}

	var synced []feedbacksync.ResyncOutcome
	for _, o := range outcomes {
		if o.Result.Synced {
			synced = append(synced, o)
		}
	}
	if len(synced) > 0 {
		sb.WriteString("\nUpdated:\n")
		count := min(len(synced), maxItemsToShow)
		for i := 0; i < count; i++ {
			o := synced[i]
			sb.WriteString(fmt.Sprintf("  • %s %s → %s\n", o.ApplicationID.String()[:8], o.Result.PreviousStatus, o.Result.NewStatus))
		}
		if len(synced) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(synced)-maxItemsToShow))
		}
	}

	p.printBox("FEEDBACK RESYNC", strings.TrimSuffix(sb.String(), "\n"))
}
