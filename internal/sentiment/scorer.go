package sentiment

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyBatch distinguishes "nothing to score" from a zero score.
// Callers must treat it as sentiment-unavailable, never substitute 0.
var ErrEmptyBatch = errors.New("sentiment batch is empty")

// Classifier turns a batch of normalized strings into P(positive)
// probabilities, one per input. Implementations are frozen artifacts or
// remote services; the pipeline treats them as opaque.
type Classifier interface {
	ProbPositive(ctx context.Context, texts []string) ([]float64, error)
}

// Scorer maps classifier probabilities to signed sentiment scores via
// 2*P(positive) - 1.
type Scorer struct {
	clf Classifier
}

func NewScorer(clf Classifier) *Scorer {
	return &Scorer{clf: clf}
}

// ScoreBatch scores each text in order, returning values in [-1, 1].
// An empty batch or a classifier failure yields no result at all rather
// than a partial list.
func (s *Scorer) ScoreBatch(ctx context.Context, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyBatch
	}
	if s == nil || s.clf == nil {
		return nil, errors.New("no sentiment classifier configured")
	}

	probs, err := s.clf.ProbPositive(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("classify batch: %w", err)
	}
	if len(probs) != len(texts) {
		return nil, fmt.Errorf("classifier returned %d probabilities for %d texts", len(probs), len(texts))
	}

	scores := make([]float64, len(probs))
	for i, p := range probs {
		scores[i] = clamp(2*p-1, -1, 1)
	}
	return scores, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
