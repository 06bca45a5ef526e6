package main

import (
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"animeharvest/internal/harvest"
	"animeharvest/pkg/models"
)

func newTable(title string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)
	return tw
}

// renderSummary prints the per-run tally.
func renderSummary(sum *harvest.Summary) string {
	status := "complete"
	if sum.Aborted {
		status = "aborted: " + sum.Reason
	}
	stored := strconv.Itoa(sum.Appended)
	if sum.PersistErr != nil {
		if sum.PersistErr.Recovered() {
			stored = "0 (saved to " + sum.PersistErr.FallbackPath + ")"
		} else {
			stored = "0 (lost)"
		}
	}

	tw := newTable("harvest " + sum.Season + " " + strconv.Itoa(sum.Year))
	tw.AppendRows([]table.Row{
		{"run", sum.RunID},
		{"status", status},
		{"listed", sum.Listed},
		{"new", sum.New},
		{"fetched", len(sum.Records)},
		{"failed", len(sum.Failed)},
		{"appended", stored},
		{"elapsed", sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond).String()},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return tw.Render()
}

// renderFailed lists the candidates that produced no record.
func renderFailed(failed []models.FailedCandidate) string {
	tw := newTable("failed candidates")
	tw.AppendHeader(table.Row{"id", "title", "reason"})
	for _, f := range failed {
		tw.AppendRow(table.Row{f.ID, f.Title, f.Reason})
	}
	return tw.Render()
}

func renderRun(run *models.HarvestRun) string {
	fallback := run.FallbackPath
	if fallback == "" {
		fallback = "-"
	}
	tw := newTable("last harvest run")
	tw.AppendRows([]table.Row{
		{"run", run.ID},
		{"season", run.Season + " " + strconv.Itoa(run.Year)},
		{"listed", run.Listed},
		{"new", run.New},
		{"fetched", run.Fetched},
		{"failed", run.Failed},
		{"appended", run.Appended},
		{"aborted", run.Aborted},
		{"fallback", fallback},
		{"started", run.StartedAt.Format(time.RFC3339)},
		{"finished", run.FinishedAt.Format(time.RFC3339)},
	})
	return tw.Render()
}
