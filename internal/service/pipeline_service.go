package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"sentivol/internal/domain"
	"sentivol/internal/pipeline"
	"sentivol/internal/sentiment"

	"go.opentelemetry.io/otel/trace"
)

// ErrNoData means every social feed failed or returned nothing. It is
// distinct from an empty-after-filtering batch, which is valid (if
// useless) data.
var ErrNoData = errors.New("no social data available")

type SocialFeed interface {
	FetchHot(ctx context.Context, subreddit string, limit int) ([]domain.RawPost, error)
}

type MarketData interface {
	FetchDailySeries(ctx context.Context, assetID string, days int) ([]domain.MarketPoint, error)
}

type SentimentScorer interface {
	ScoreBatch(ctx context.Context, texts []string) ([]float64, error)
}

// PipelineService orchestrates one end-to-end refresh: collect posts,
// score sentiment, fetch the market series, and fuse everything into
// feature rows.
type PipelineService struct {
	tracer     trace.Tracer
	feed       SocialFeed
	market     MarketData
	scorer     SentimentScorer
	subreddits []string
	postLimit  int
	assetID    string
	marketDays int
}

func NewPipelineService(
	tracer trace.Tracer,
	feed SocialFeed,
	market MarketData,
	scorer SentimentScorer,
	subreddits []string,
	postLimit int,
	assetID string,
	marketDays int,
) *PipelineService {
	return &PipelineService{
		tracer:     tracer,
		feed:       feed,
		market:     market,
		scorer:     scorer,
		subreddits: subreddits,
		postLimit:  postLimit,
		assetID:    assetID,
		marketDays: marketDays,
	}
}

// CollectPosts pulls hot posts from every configured subreddit. A feed
// that errors contributes nothing; only when the whole sweep comes back
// empty does the method fail with ErrNoData.
func (s *PipelineService) CollectPosts(ctx context.Context) ([]domain.RawPost, error) {
	_, span := s.tracer.Start(ctx, "pipeline-service.collect-posts")
	defer span.End()

	var posts []domain.RawPost
	for _, sub := range s.subreddits {
		fetched, err := s.feed.FetchHot(ctx, sub, s.postLimit)
		if err != nil {
			log.Printf("social feed r/%s failed: %v", sub, err)
			continue
		}
		posts = append(posts, fetched...)
	}
	if len(posts) == 0 {
		return nil, ErrNoData
	}
	return posts, nil
}

// ScorePosts drops posts without a body, normalizes the surviving text,
// and scores titles and bodies in two batches. An empty survivor set is
// returned as-is; the scorer is never called with nothing to score.
func (s *PipelineService) ScorePosts(ctx context.Context, posts []domain.RawPost) ([]domain.ScoredPost, error) {
	_, span := s.tracer.Start(ctx, "pipeline-service.score-posts")
	defer span.End()

	kept := make([]domain.RawPost, 0, len(posts))
	for _, post := range posts {
		if post.Description == "" {
			continue
		}
		kept = append(kept, post)
	}
	if len(kept) == 0 {
		return nil, nil
	}

	titles := make([]string, len(kept))
	bodies := make([]string, len(kept))
	for i, post := range kept {
		titles[i] = sentiment.Normalize(post.Title)
		bodies[i] = sentiment.Normalize(post.Description)
	}

	titleScores, err := s.scorer.ScoreBatch(ctx, titles)
	if err != nil {
		return nil, fmt.Errorf("score titles: %w", err)
	}
	bodyScores, err := s.scorer.ScoreBatch(ctx, bodies)
	if err != nil {
		return nil, fmt.Errorf("score bodies: %w", err)
	}

	scored := make([]domain.ScoredPost, len(kept))
	for i, post := range kept {
		scored[i] = domain.ScoredPost{
			RawPost:              post,
			TitleSentiment:       titleScores[i],
			DescriptionSentiment: bodyScores[i],
		}
	}
	return scored, nil
}

// Run executes the full pipeline and returns fused feature rows sorted
// ascending by timestamp. Any failure leaves the caller's state alone;
// there are no partial results.
func (s *PipelineService) Run(ctx context.Context) ([]domain.FusedRow, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline-service.run")
	defer span.End()

	posts, err := s.CollectPosts(ctx)
	if err != nil {
		return nil, err
	}

	scored, err := s.ScorePosts(ctx, posts)
	if err != nil {
		return nil, err
	}
	daily := pipeline.AggregateDaily(scored)

	points, err := s.market.FetchDailySeries(ctx, s.assetID, s.marketDays)
	if err != nil {
		return nil, fmt.Errorf("fetch market series: %w", err)
	}

	enriched, err := pipeline.Enrich(points)
	if err != nil {
		return nil, fmt.Errorf("enrich market series: %w", err)
	}

	rows, err := pipeline.Fuse(enriched, daily)
	if err != nil {
		return nil, fmt.Errorf("fuse features: %w", err)
	}

	log.Printf("Pipeline produced %d fused rows from %d posts", len(rows), len(posts))
	return rows, nil
}
