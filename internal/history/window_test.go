package history

import (
	"testing"
	"time"

	"sentivol/internal/domain"
)

func row(ts time.Time, price float64) domain.FusedRow {
	return domain.FusedRow{Timestamp: ts, Price: price, TotalSentiment: price / 100}
}

func TestMergeDedupeKeepsNewest(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	ts := now.Add(-24 * time.Hour)

	existing := []domain.FusedRow{row(ts, 100)}
	incoming := []domain.FusedRow{row(ts, 105)}

	merged := Merge(existing, incoming, now)
	if len(merged) != 1 {
		t.Fatalf("expected 1 row after dedupe, got %d", len(merged))
	}
	if merged[0].Price != 105 {
		t.Fatalf("expected incoming row to win, got price %f", merged[0].Price)
	}
}

func TestMergeDedupeWithinIncoming(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	ts := now.Add(-time.Hour)

	merged := Merge(nil, []domain.FusedRow{row(ts, 1), row(ts, 2), row(ts, 3)}, now)
	if len(merged) != 1 || merged[0].Price != 3 {
		t.Fatalf("expected last insertion to win, got %+v", merged)
	}
}

func TestMergeDropsRowsPastRetention(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	fresh := row(now.Add(-6*24*time.Hour), 1)
	boundary := row(now.Add(-Retention), 2) // exactly at the horizon, dropped
	stale := row(now.Add(-8*24*time.Hour), 3)

	merged := Merge([]domain.FusedRow{stale, boundary}, []domain.FusedRow{fresh}, now)
	if len(merged) != 1 {
		t.Fatalf("expected only the fresh row, got %d rows", len(merged))
	}
	if merged[0].Price != 1 {
		t.Fatalf("wrong surviving row: %+v", merged[0])
	}
}

func TestMergeSortsAscending(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	a := row(now.Add(-3*24*time.Hour), 1)
	b := row(now.Add(-2*24*time.Hour), 2)
	c := row(now.Add(-1*24*time.Hour), 3)

	merged := Merge([]domain.FusedRow{c}, []domain.FusedRow{a, b}, now)
	if len(merged) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(merged))
	}
	for i := 1; i < len(merged); i++ {
		if !merged[i-1].Timestamp.Before(merged[i].Timestamp) {
			t.Fatalf("rows not ascending at %d", i)
		}
	}
}

func TestWindowCommitLeavesOldSnapshotIntact(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	w := NewWindow()
	w.Commit([]domain.FusedRow{row(now.Add(-time.Hour), 100)}, now)

	old := w.Load()
	w.Commit([]domain.FusedRow{row(now.Add(-time.Minute), 200)}, now)

	if len(old.Rows) != 1 {
		t.Fatalf("old snapshot mutated: %d rows", len(old.Rows))
	}
	if got := w.Load(); len(got.Rows) != 2 {
		t.Fatalf("new snapshot wrong: %d rows", len(got.Rows))
	}
}

func TestWindowStartsEmptyNotNil(t *testing.T) {
	t.Parallel()

	w := NewWindow()
	snap := w.Load()
	if snap == nil {
		t.Fatal("expected non-nil empty snapshot")
	}
	if len(snap.Rows) != 0 {
		t.Fatalf("expected empty rows, got %d", len(snap.Rows))
	}
	if _, ok := snap.Latest(); ok {
		t.Fatal("expected no latest row on empty window")
	}
	if _, ok := snap.MeanTotalSentiment(); ok {
		t.Fatal("expected no sentiment on empty window")
	}
}

func TestSnapshotTail(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	rows := make([]domain.FusedRow, 0, 5)
	for i := 0; i < 5; i++ {
		rows = append(rows, row(now.Add(time.Duration(i)*time.Hour), float64(i)))
	}
	snap := &Snapshot{Rows: rows}

	tail := snap.Tail(3)
	if len(tail) != 3 || tail[0].Price != 2 || tail[2].Price != 4 {
		t.Fatalf("unexpected tail: %+v", tail)
	}
	if got := snap.Tail(10); len(got) != 5 {
		t.Fatalf("short window tail should return everything, got %d", len(got))
	}
	if got := snap.Tail(0); got != nil {
		t.Fatalf("tail(0) should be nil, got %+v", got)
	}
}

func TestSnapshotMeanTotalSentiment(t *testing.T) {
	t.Parallel()

	snap := &Snapshot{Rows: []domain.FusedRow{
		{TotalSentiment: 0.2},
		{TotalSentiment: 0.4},
		{TotalSentiment: 0.6},
	}}
	mean, ok := snap.MeanTotalSentiment()
	if !ok {
		t.Fatal("expected a mean for a populated window")
	}
	if diff := mean - 0.4; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("expected mean 0.4, got %f", mean)
	}
}
