package report

import (
	"math"
	"sort"
	"time"

	"podcast-notes-go/internal/types"
)

// Summary mirrors the dashboard stats cards plus a per-status breakdown.
type Summary struct {
	TotalPodcasts   int                            `json:"total_podcasts"`
	ByStatus        map[types.ProcessingStatus]int `json:"by_status"`
	TotalSeconds    int                            `json:"total_seconds"`
	TotalHours      int                            `json:"total_hours"`
	AverageSeconds  float64                        `json:"average_seconds"`
	StaleProcessing int                            `json:"stale_processing"`
}

// Summarize aggregates the records. The average covers completed records only
// since pending and failed rows carry no meaningful duration.
func Summarize(records []types.PodcastRecord, stale []types.PodcastRecord) Summary {
	s := Summary{
		TotalPodcasts: len(records),
		ByStatus: map[types.ProcessingStatus]int{
			types.StatusPending:    0,
			types.StatusProcessing: 0,
			types.StatusCompleted:  0,
			types.StatusFailed:     0,
		},
		StaleProcessing: len(stale),
	}

	completedSeconds := 0
	for _, r := range records {
		s.ByStatus[r.ProcessingStatus]++
		s.TotalSeconds += r.Duration
		if r.ProcessingStatus == types.StatusCompleted {
			completedSeconds += r.Duration
		}
	}
	s.TotalHours = int(math.Round(float64(s.TotalSeconds) / 3600))
	if n := s.ByStatus[types.StatusCompleted]; n > 0 {
		s.AverageSeconds = float64(completedSeconds) / float64(n)
	}
	return s
}

// Stale returns records still in processing whose last update is older than
// olderThan, oldest first. Nothing resets them; the export only surfaces them.
func Stale(records []types.PodcastRecord, olderThan time.Duration, now time.Time) []types.PodcastRecord {
	cutoff := now.Add(-olderThan)
	var out []types.PodcastRecord
	for _, r := range records {
		if r.ProcessingStatus == types.StatusProcessing && r.UpdatedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out
}

// statusOrder fixes the row order of the summary sheet.
var statusOrder = []types.ProcessingStatus{
	types.StatusPending,
	types.StatusProcessing,
	types.StatusCompleted,
	types.StatusFailed,
}
