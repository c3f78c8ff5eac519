package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"podcast-notes-go/internal/logger"
	"podcast-notes-go/internal/types"
)

const (
	PodcastsSheet = "Podcasts"
	SummarySheet  = "Summary"
	StaleSheet    = "Stale"
)

var podcastHeader = []interface{}{
	"ID", "Title", "Status", "Duration (s)", "Key Takeaways", "Chapters", "File Size", "Audio URL", "Created At", "Updated At",
}

// Workbook is the xlsx export of the podcasts table.
type Workbook struct {
	f *excelize.File
}

// Build lays out the Podcasts and Summary sheets, plus a Stale sheet when any
// stale records are passed.
func Build(records, stale []types.PodcastRecord, log *logger.Logger) (*Workbook, error) {
	log = log.Component("report")
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), PodcastsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}

	if err := writeRecords(f, PodcastsSheet, records, bold); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSummary(f, Summarize(records, stale), bold); err != nil {
		f.Close()
		return nil, err
	}
	if len(stale) > 0 {
		if _, err := f.NewSheet(StaleSheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", StaleSheet, err)
		}
		if err := writeRecords(f, StaleSheet, stale, bold); err != nil {
			f.Close()
			return nil, err
		}
	}

	log.WithField("records", len(records)).WithField("stale", len(stale)).Info("workbook built")
	return &Workbook{f: f}, nil
}

func (w *Workbook) Write(out io.Writer) error {
	if err := w.f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (w *Workbook) SaveAs(path string) error {
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func (w *Workbook) Close() error {
	return w.f.Close()
}

func writeRecords(f *excelize.File, sheet string, records []types.PodcastRecord, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &podcastHeader); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.ID,
			r.Title,
			string(r.ProcessingStatus),
			r.Duration,
			len(r.KeyTakeaways),
			len(r.Timestamps),
			r.FileSize,
			r.AudioURL,
			formatTime(r.CreatedAt),
			formatTime(r.UpdatedAt),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	if err := f.SetColWidth(sheet, "B", "B", 40); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "H", "H", 60)
}

func writeSummary(f *excelize.File, s Summary, headerStyle int) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", SummarySheet, err)
	}
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total Podcasts", s.TotalPodcasts},
	}
	for _, st := range statusOrder {
		rows = append(rows, []interface{}{"Status: " + string(st), s.ByStatus[st]})
	}
	rows = append(rows,
		[]interface{}{"Total Seconds", s.TotalSeconds},
		[]interface{}{"Total Hours", s.TotalHours},
		[]interface{}{"Average Seconds (completed)", s.AverageSeconds},
		[]interface{}{"Stale Processing", s.StaleProcessing},
	)
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	if err := f.SetRowStyle(SummarySheet, 1, 1, headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "A", "A", 30)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
