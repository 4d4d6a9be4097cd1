package dashboard

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/stintapp/stint/internal/view"
	"github.com/stintapp/stint/pkg/tracker"
)

// FormatTable writes the derived view as a formatted table: one row per
// application plus a per-status count line that always reflects the whole
// collection, not just the visible subset. now is passed in so the AGE
// column is reproducible in tests. Returns the number of rows written.
func FormatTable(w io.Writer, state view.State, now time.Time) int {
	if state.Counts.Total == 0 {
		fmt.Fprintf(w, "No applications yet\n")
		return 0
	}

	if len(state.Applications) == 0 {
		fmt.Fprintf(w, "No applications match the current view\n\n")
		writeCounts(w, state.Counts)
		return 0
	}

	fmt.Fprintf(w, "%-8s %-20s %-24s %-11s %-9s %s\n",
		"ID", "COMPANY", "ROLE", "STATUS", "AGE", "NOTES")
	fmt.Fprintf(w, "%-8s %-20s %-24s %-11s %-9s %s\n",
		"--------", "--------------------", "------------------------", "-----------", "---------", "----------------------------------------")

	for _, a := range state.Applications {
		fmt.Fprintf(w, "%-8s %-20s %-24s %-11s %-9s %s\n",
			shortID(a.ID),
			clip(a.Company, 20),
			clip(a.Role, 24),
			shortStatus(a.Status),
			formatAge(a.CreatedAtMs, now),
			formatNotes(a.Notes),
		)
	}

	fmt.Fprintf(w, "\n")
	writeCounts(w, state.Counts)

	return len(state.Applications)
}

// FormatJSON writes the derived view as pretty-printed JSON, list and
// counts together.
func FormatJSON(w io.Writer, state view.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal view state to JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// FormatJSONL writes applications as line-delimited JSON, one record per
// line, for piping into tools like jq.
func FormatJSONL(w io.Writer, apps []tracker.Application) error {
	for _, a := range apps {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("failed to marshal application to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", string(data)); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatSingleJSON writes one application as pretty-printed JSON.
func FormatSingleJSON(w io.Writer, a *tracker.Application) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal application to JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// FormatCSV writes applications as CSV with a header row. Creation times
// become RFC 3339 timestamps; pending records get an empty cell.
func FormatCSV(w io.Writer, apps []tracker.Application) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"id", "company", "role", "status", "notes", "created_at"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, a := range apps {
		createdAt := ""
		if a.CreatedAtMs != 0 {
			createdAt = time.UnixMilli(a.CreatedAtMs).UTC().Format(time.RFC3339)
		}
		row := []string{a.ID, a.Company, a.Role, string(a.Status), a.Notes, createdAt}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	return nil
}

// writeCounts writes the per-status totals in display order.
func writeCounts(w io.Writer, t view.Tally) {
	parts := make([]string, 0, len(tracker.Statuses()))
	for _, s := range tracker.Statuses() {
		parts = append(parts, fmt.Sprintf("%s %d", shortStatus(s), t.ByStatus[s]))
	}
	fmt.Fprintf(w, "%d total | %s\n", t.Total, strings.Join(parts, " | "))
}

// shortID truncates an ID to its first 8 characters for compact display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// shortStatus maps statuses to table-width labels.
func shortStatus(s tracker.Status) string {
	if s == tracker.StatusOnlineAssessment {
		return "assessment"
	}
	return string(s)
}

// clip truncates a value to max characters for table display.
func clip(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

// formatNotes reduces notes to their first non-empty line, truncated to
// 40 characters. Empty notes return "-".
func formatNotes(notes string) string {
	if notes == "" {
		return "-"
	}

	var firstLine string
	for _, line := range strings.Split(notes, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			firstLine = trimmed
			break
		}
	}
	if firstLine == "" {
		return "-"
	}

	if len(firstLine) > 40 {
		return firstLine[:37] + "..."
	}
	return firstLine
}

// formatAge renders a creation timestamp as a relative age. A zero
// timestamp means the server has not acknowledged the write yet.
func formatAge(createdAtMs int64, now time.Time) string {
	if createdAtMs == 0 {
		return "pending"
	}

	diff := now.Sub(time.UnixMilli(createdAtMs))
	if diff < 0 {
		diff = 0
	}

	if diff < time.Minute {
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	} else if diff < time.Hour {
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	} else if diff < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
}
