package domain

import (
	"strconv"
	"time"
)

// LagDepth is how many trailing rows feed the lagged social features.
const LagDepth = 7

// RawPost is a single Reddit submission as fetched from a feed.
// Description holds the selftext body; posts with an empty body are
// dropped before scoring.
type RawPost struct {
	ID          string
	Subreddit   string
	Title       string
	Description string
	URL         string
	Score       float64
	NoComments  float64
	Created     time.Time
}

// ScoredPost is a RawPost with sentiment attached to its normalized
// title and description. Scores are in [-1, 1].
type ScoredPost struct {
	RawPost
	TitleSentiment       float64
	DescriptionSentiment float64
}

// DailyAggregate is the per-calendar-date rollup of scored posts.
type DailyAggregate struct {
	Date                     time.Time
	MeanScore                float64
	TotalComments            float64
	MeanTitleSentiment       float64
	MeanDescriptionSentiment float64
}

// MarketPoint is one daily observation from the market data provider.
// Date is truncated to a UTC calendar day.
type MarketPoint struct {
	Date      time.Time
	Price     float64
	Volume    float64
	MarketCap float64
}

// EnrichedMarketPoint carries the derived return and rolling
// annualized volatility columns. Both are backfilled from the column
// mean where the window is too short to define them.
type EnrichedMarketPoint struct {
	MarketPoint
	Returns    float64
	Volatility float64
}

// FusedRow is one output row of the fusion pipeline: market history
// left-joined with the daily social aggregate, plus row-offset lag
// features and the blended sentiment columns.
type FusedRow struct {
	Timestamp time.Time `json:"timestamp"`

	Price      float64 `json:"price"`
	Volume     float64 `json:"volume"`
	MarketCap  float64 `json:"market_cap"`
	Returns    float64 `json:"returns"`
	Volatility float64 `json:"volatility"`

	PostScore            float64 `json:"score"`
	NoComments           float64 `json:"no_comments"`
	TitleSentiment       float64 `json:"title_sentiment"`
	DescriptionSentiment float64 `json:"description_sentiment"`

	PostScoreLags            [LagDepth]float64 `json:"score_lags"`
	NoCommentsLags           [LagDepth]float64 `json:"no_comments_lags"`
	TitleSentimentLags       [LagDepth]float64 `json:"title_sentiment_lags"`
	DescriptionSentimentLags [LagDepth]float64 `json:"description_sentiment_lags"`

	Sentiment      float64           `json:"sentiment"`
	SentimentLags  [LagDepth]float64 `json:"sentiment_lags"`
	TotalSentiment float64           `json:"total_sentiment"`
}

// FeatureVector flattens the row into the model input order. Timestamp
// and the realized Volatility column are excluded: the former is not a
// feature and the latter is the quantity the model forecasts.
func (r FusedRow) FeatureVector() []float64 {
	out := make([]float64, 0, FeatureCount)
	out = append(out, r.Price, r.Volume, r.MarketCap, r.Returns)
	out = append(out, r.PostScore, r.NoComments, r.TitleSentiment, r.DescriptionSentiment)
	out = append(out, r.PostScoreLags[:]...)
	out = append(out, r.NoCommentsLags[:]...)
	out = append(out, r.TitleSentimentLags[:]...)
	out = append(out, r.DescriptionSentimentLags[:]...)
	out = append(out, r.Sentiment)
	out = append(out, r.SentimentLags[:]...)
	out = append(out, r.TotalSentiment)
	return out
}

// FeatureCount is the length of FeatureVector: 8 base columns, 4 lag
// blocks of LagDepth, and the 9 blended sentiment columns.
const FeatureCount = 8 + 4*LagDepth + 1 + LagDepth + 1

// FeatureNames returns the column names in FeatureVector order. Model
// artifacts record the same list so a mismatched artifact is caught at
// load time.
func FeatureNames() []string {
	names := []string{
		"price", "volume", "market_cap", "returns",
		"score", "no_comments", "title_sentiment", "description_sentiment",
	}
	for _, col := range []string{"score", "no_comments", "title_sentiment", "description_sentiment"} {
		for i := 1; i <= LagDepth; i++ {
			names = append(names, col+"_lag"+strconv.Itoa(i))
		}
	}
	names = append(names, "sentiment")
	for i := 1; i <= LagDepth; i++ {
		names = append(names, "sentiment_lag"+strconv.Itoa(i))
	}
	return append(names, "total_sentiment")
}
