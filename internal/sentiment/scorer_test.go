package sentiment

import (
	"context"
	"errors"
	"math"
	"testing"
)

type stubClassifier struct {
	probs []float64
	err   error
}

func (s *stubClassifier) ProbPositive(ctx context.Context, texts []string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.probs, nil
}

func TestScoreBatchMapsProbabilities(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(&stubClassifier{probs: []float64{0, 0.25, 0.5, 0.75, 1}})
	scores, err := scorer.ScoreBatch(context.Background(), []string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float64{-1, -0.5, 0, 0.5, 1}
	for i := range want {
		if math.Abs(scores[i]-want[i]) > 1e-12 {
			t.Fatalf("score[%d] = %f, want %f", i, scores[i], want[i])
		}
	}
}

func TestScoreBatchClampsOutOfRange(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(&stubClassifier{probs: []float64{-0.2, 1.3}})
	scores, err := scorer.ScoreBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scores[0] != -1 || scores[1] != 1 {
		t.Fatalf("expected clamped scores, got %v", scores)
	}
}

func TestScoreBatchEmpty(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(&stubClassifier{})
	if _, err := scorer.ScoreBatch(context.Background(), nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestScoreBatchClassifierFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("upstream down")
	scorer := NewScorer(&stubClassifier{err: boom})
	if _, err := scorer.ScoreBatch(context.Background(), []string{"a"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped classifier error, got %v", err)
	}
}

func TestScoreBatchLengthMismatch(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(&stubClassifier{probs: []float64{0.5}})
	if _, err := scorer.ScoreBatch(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error on probability count mismatch")
	}
}
