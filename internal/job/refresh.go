package job

import (
	"context"
	"log"
	"time"

	"sentivol/internal/domain"
	"sentivol/internal/history"

	"go.opentelemetry.io/otel/trace"
)

type PipelineRunner interface {
	Run(ctx context.Context) ([]domain.FusedRow, error)
}

type SnapshotPersister interface {
	SaveSnapshot(ctx context.Context, snap *history.Snapshot) error
}

// RefreshJob drives the pipeline on a fixed interval. The loop is
// sequential, so a cycle that outlasts its tick simply delays the next
// one; cycles never overlap.
type RefreshJob struct {
	tracer   trace.Tracer
	runner   PipelineRunner
	window   *history.Window
	store    SnapshotPersister
	interval time.Duration
	now      func() time.Time
}

func NewRefreshJob(
	tracer trace.Tracer,
	runner PipelineRunner,
	window *history.Window,
	store SnapshotPersister,
	interval time.Duration,
) *RefreshJob {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RefreshJob{
		tracer:   tracer,
		runner:   runner,
		window:   window,
		store:    store,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs one refresh immediately, then on every tick until the
// context is cancelled.
func (j *RefreshJob) Start(ctx context.Context) {
	if j.runner == nil || j.window == nil {
		log.Println("Refresh job disabled: no pipeline runner")
		<-ctx.Done()
		return
	}

	j.runOnce(ctx)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

// runOnce executes one pipeline cycle. Failures leave the window on its
// previous snapshot; only a clean run commits.
func (j *RefreshJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "refresh-job.run-once")
	defer span.End()

	rows, err := j.runner.Run(ctx)
	if err != nil {
		log.Printf("Refresh cycle error, keeping previous window: %v", err)
		return
	}

	snap := j.window.Commit(rows, j.now().UTC())
	log.Printf("Refresh cycle complete rows=%d window=%d", len(rows), len(snap.Rows))

	if j.store != nil {
		if err := j.store.SaveSnapshot(ctx, snap); err != nil {
			log.Printf("Snapshot persist error: %v", err)
		}
	}
}
