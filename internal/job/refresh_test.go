package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"sentivol/internal/domain"
	"sentivol/internal/history"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type stubRunner struct {
	rows  []domain.FusedRow
	err   error
	calls atomic.Int32
}

func (r *stubRunner) Run(ctx context.Context) ([]domain.FusedRow, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return r.rows, nil
}

type stubPersister struct {
	saved *history.Snapshot
	err   error
	calls int
}

func (p *stubPersister) SaveSnapshot(ctx context.Context, snap *history.Snapshot) error {
	p.calls++
	p.saved = snap
	return p.err
}

func fusedRow(ts time.Time) domain.FusedRow {
	return domain.FusedRow{Timestamp: ts, Price: 100}
}

func TestRefreshJobCommitsOnSuccess(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	runner := &stubRunner{rows: []domain.FusedRow{fusedRow(now.Add(-time.Hour))}}
	window := history.NewWindow()
	persister := &stubPersister{}

	j := NewRefreshJob(testTracer, runner, window, persister, time.Hour)
	j.now = func() time.Time { return now }

	j.runOnce(context.Background())

	if got := window.Load(); len(got.Rows) != 1 {
		t.Fatalf("expected committed window, got %d rows", len(got.Rows))
	}
	if persister.calls != 1 || persister.saved == nil {
		t.Fatalf("expected one snapshot save, got %d", persister.calls)
	}
}

func TestRefreshJobKeepsWindowOnError(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	window := history.NewWindow()
	window.Commit([]domain.FusedRow{fusedRow(now.Add(-2 * time.Hour))}, now)
	before := window.Load()

	runner := &stubRunner{err: errors.New("pipeline failed")}
	persister := &stubPersister{}
	j := NewRefreshJob(testTracer, runner, window, persister, time.Hour)
	j.now = func() time.Time { return now }

	j.runOnce(context.Background())

	if got := window.Load(); got != before {
		t.Fatal("failed cycle must not publish a new snapshot")
	}
	if persister.calls != 0 {
		t.Fatalf("failed cycle must not persist, got %d saves", persister.calls)
	}
}

func TestRefreshJobPersistFailureStillCommits(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	runner := &stubRunner{rows: []domain.FusedRow{fusedRow(now.Add(-time.Hour))}}
	window := history.NewWindow()
	persister := &stubPersister{err: errors.New("redis down")}

	j := NewRefreshJob(testTracer, runner, window, persister, time.Hour)
	j.now = func() time.Time { return now }

	j.runOnce(context.Background())

	if got := window.Load(); len(got.Rows) != 1 {
		t.Fatal("persist failure must not roll back the window")
	}
}

func TestRefreshJobRunsImmediately(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{rows: nil}
	window := history.NewWindow()
	j := NewRefreshJob(testTracer, runner, window, nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for runner.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected an immediate first run")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if runner.calls.Load() != 1 {
		t.Fatalf("expected exactly one run before the first tick, got %d", runner.calls.Load())
	}
}

func TestRefreshJobDisabledWithoutRunner(t *testing.T) {
	t.Parallel()

	j := NewRefreshJob(testTracer, nil, history.NewWindow(), nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("disabled job did not stop on context cancellation")
	}
}

func TestNewRefreshJobDefaultsInterval(t *testing.T) {
	t.Parallel()

	j := NewRefreshJob(testTracer, &stubRunner{}, history.NewWindow(), nil, 0)
	if j.interval != time.Hour {
		t.Fatalf("expected default interval 1h, got %v", j.interval)
	}
}
