package pipeline

import (
	"fmt"
	"math"
	"sort"
	"time"

	"sentivol/internal/domain"
)

// DateOf truncates a timestamp to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AggregateDaily groups scored posts by the calendar date they were
// created on: mean post score, summed comment counts, mean sentiment
// per field. Dates with no posts simply have no aggregate row.
func AggregateDaily(posts []domain.ScoredPost) []domain.DailyAggregate {
	type acc struct {
		n         int
		score     float64
		comments  float64
		titleSent float64
		descrSent float64
	}
	byDate := make(map[time.Time]*acc)
	for _, p := range posts {
		date := DateOf(p.Created)
		a, ok := byDate[date]
		if !ok {
			a = &acc{}
			byDate[date] = a
		}
		a.n++
		a.score += p.Score
		a.comments += p.NoComments
		a.titleSent += p.TitleSentiment
		a.descrSent += p.DescriptionSentiment
	}

	out := make([]domain.DailyAggregate, 0, len(byDate))
	for date, a := range byDate {
		out = append(out, domain.DailyAggregate{
			Date:                     date,
			MeanScore:                a.score / float64(a.n),
			TotalComments:            a.comments,
			MeanTitleSentiment:       a.titleSent / float64(a.n),
			MeanDescriptionSentiment: a.descrSent / float64(a.n),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Fuse left-joins the enriched market series with the daily social
// aggregates on calendar date, fills the gaps, and derives the lagged
// and blended sentiment features. Every market date is kept; social
// columns for dates with no aggregate are imputed from the joined
// column (mean, or median for comment counts). Lags are row-offset in
// date order, with leading undefined values backfilled from each lag
// column's own mean. Output is sorted ascending by timestamp.
func Fuse(market []domain.EnrichedMarketPoint, daily []domain.DailyAggregate) ([]domain.FusedRow, error) {
	if len(market) == 0 {
		return nil, fmt.Errorf("fuse: %w", ErrNoSamples)
	}

	sorted := make([]domain.EnrichedMarketPoint, len(market))
	copy(sorted, market)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	byDate := make(map[time.Time]domain.DailyAggregate, len(daily))
	for _, agg := range daily {
		byDate[DateOf(agg.Date)] = agg
	}

	n := len(sorted)
	score := make([]float64, n)
	comments := make([]float64, n)
	titleSent := make([]float64, n)
	descrSent := make([]float64, n)
	for i, pt := range sorted {
		if agg, ok := byDate[DateOf(pt.Date)]; ok {
			score[i] = agg.MeanScore
			comments[i] = agg.TotalComments
			titleSent[i] = agg.MeanTitleSentiment
			descrSent[i] = agg.MeanDescriptionSentiment
			continue
		}
		score[i] = math.NaN()
		comments[i] = math.NaN()
		titleSent[i] = math.NaN()
		descrSent[i] = math.NaN()
	}

	// Fill order matters: base columns are imputed post-join, then lags
	// are generated from the filled columns.
	if err := fillMean(score); err != nil {
		return nil, fmt.Errorf("fill score: %w", err)
	}
	if err := fillMedian(comments); err != nil {
		return nil, fmt.Errorf("fill no_comments: %w", err)
	}
	if err := fillMean(titleSent); err != nil {
		return nil, fmt.Errorf("fill title_sentiment: %w", err)
	}
	if err := fillMean(descrSent); err != nil {
		return nil, fmt.Errorf("fill description_sentiment: %w", err)
	}

	scoreLags, err := lagColumns(score)
	if err != nil {
		return nil, fmt.Errorf("lag score: %w", err)
	}
	commentLags, err := lagColumns(comments)
	if err != nil {
		return nil, fmt.Errorf("lag no_comments: %w", err)
	}
	titleLags, err := lagColumns(titleSent)
	if err != nil {
		return nil, fmt.Errorf("lag title_sentiment: %w", err)
	}
	descrLags, err := lagColumns(descrSent)
	if err != nil {
		return nil, fmt.Errorf("lag description_sentiment: %w", err)
	}

	rows := make([]domain.FusedRow, n)
	for i, pt := range sorted {
		row := domain.FusedRow{
			Timestamp:            pt.Date,
			Price:                pt.Price,
			Volume:               pt.Volume,
			MarketCap:            pt.MarketCap,
			Returns:              pt.Returns,
			Volatility:           pt.Volatility,
			PostScore:            score[i],
			NoComments:           comments[i],
			TitleSentiment:       titleSent[i],
			DescriptionSentiment: descrSent[i],
		}
		for lag := 0; lag < domain.LagDepth; lag++ {
			row.PostScoreLags[lag] = scoreLags[lag][i]
			row.NoCommentsLags[lag] = commentLags[lag][i]
			row.TitleSentimentLags[lag] = titleLags[lag][i]
			row.DescriptionSentimentLags[lag] = descrLags[lag][i]
		}

		row.Sentiment = (row.TitleSentiment + row.DescriptionSentiment) / 2
		total := row.Sentiment
		for lag := 0; lag < domain.LagDepth; lag++ {
			blended := (row.TitleSentimentLags[lag] + row.DescriptionSentimentLags[lag]) / 2
			row.SentimentLags[lag] = blended
			total += blended
		}
		row.TotalSentiment = total / float64(domain.LagDepth+1)

		rows[i] = row
	}
	return rows, nil
}

// lagColumns builds the lag-1..lag-7 columns for one filled base
// column. Lag i shifts values down i rows; the first i entries are
// undefined and take the lag column's own mean.
func lagColumns(column []float64) ([domain.LagDepth][]float64, error) {
	var out [domain.LagDepth][]float64
	for lag := 1; lag <= domain.LagDepth; lag++ {
		shifted := make([]float64, len(column))
		for i := range column {
			if i-lag < 0 {
				shifted[i] = math.NaN()
				continue
			}
			shifted[i] = column[i-lag]
		}
		if err := fillMean(shifted); err != nil {
			return out, fmt.Errorf("lag%d: %w", lag, err)
		}
		out[lag-1] = shifted
	}
	return out, nil
}
