// Package history holds the rolling window of fused feature rows that
// every read path serves from. Writers publish immutable snapshots;
// readers never block.
package history

import (
	"sort"
	"sync/atomic"
	"time"

	"sentivol/internal/domain"
)

// Retention bounds the window to the trailing week of rows.
const Retention = 7 * 24 * time.Hour

// Snapshot is one immutable version of the window. Rows are sorted
// ascending by timestamp and must not be mutated after publication.
type Snapshot struct {
	Rows      []domain.FusedRow `json:"rows"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Window is a single-writer, many-reader snapshot store.
type Window struct {
	current atomic.Pointer[Snapshot]
}

func NewWindow() *Window {
	w := &Window{}
	w.current.Store(&Snapshot{})
	return w
}

// Load returns the current snapshot. Never nil; an untouched window
// yields an empty snapshot.
func (w *Window) Load() *Snapshot {
	return w.current.Load()
}

// Commit merges freshly fused rows into the window and publishes the
// result as a new snapshot. The previous snapshot stays intact, so a
// reader holding it is unaffected.
func (w *Window) Commit(rows []domain.FusedRow, now time.Time) *Snapshot {
	merged := Merge(w.current.Load().Rows, rows, now)
	snap := &Snapshot{Rows: merged, UpdatedAt: now}
	w.current.Store(snap)
	return snap
}

// Merge combines existing and incoming rows: duplicates by timestamp
// resolve to the newest insertion (incoming beats existing, later beats
// earlier), rows older than the retention horizon are dropped, and the
// result is sorted ascending.
func Merge(existing, incoming []domain.FusedRow, now time.Time) []domain.FusedRow {
	cutoff := now.Add(-Retention)

	byTS := make(map[time.Time]domain.FusedRow, len(existing)+len(incoming))
	order := make([]time.Time, 0, len(existing)+len(incoming))
	for _, row := range existing {
		if _, seen := byTS[row.Timestamp]; !seen {
			order = append(order, row.Timestamp)
		}
		byTS[row.Timestamp] = row
	}
	for _, row := range incoming {
		if _, seen := byTS[row.Timestamp]; !seen {
			order = append(order, row.Timestamp)
		}
		byTS[row.Timestamp] = row
	}

	merged := make([]domain.FusedRow, 0, len(order))
	for _, ts := range order {
		if !ts.After(cutoff) {
			continue
		}
		merged = append(merged, byTS[ts])
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged
}

// Tail returns the last n rows of the snapshot, fewer if the window is
// shorter.
func (s *Snapshot) Tail(n int) []domain.FusedRow {
	if s == nil || n <= 0 {
		return nil
	}
	if len(s.Rows) <= n {
		return s.Rows
	}
	return s.Rows[len(s.Rows)-n:]
}

// Latest returns the most recent row, or false for an empty window.
func (s *Snapshot) Latest() (domain.FusedRow, bool) {
	if s == nil || len(s.Rows) == 0 {
		return domain.FusedRow{}, false
	}
	return s.Rows[len(s.Rows)-1], true
}

// MeanTotalSentiment averages TotalSentiment across the whole window.
func (s *Snapshot) MeanTotalSentiment() (float64, bool) {
	if s == nil || len(s.Rows) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, row := range s.Rows {
		sum += row.TotalSentiment
	}
	return sum / float64(len(s.Rows)), true
}
