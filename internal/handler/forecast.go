package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// Timestamps on the wire use the same layout the dashboard charts
// parse.
const timestampLayout = "2006-01-02 15:04:05"

const historicalTail = 7

// HistoricalData godoc
// @Summary      Recent price and sentiment history
// @Description  Returns the last 7 fused rows as parallel timestamp, price, and sentiment arrays
// @Tags         data
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/historical_data [get]
func (h *Handler) HistoricalData(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.historical-data")
	defer span.End()

	snap := h.window.Load()
	rows := snap.Tail(historicalTail)
	span.SetAttributes(attribute.Int("rows", len(rows)))
	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No historical data available"})
		return
	}

	timestamps := make([]string, len(rows))
	prices := make([]float64, len(rows))
	sentiments := make([]float64, len(rows))
	for i, row := range rows {
		timestamps[i] = row.Timestamp.Format(timestampLayout)
		prices[i] = row.Price
		sentiments[i] = row.TotalSentiment
	}

	c.JSON(http.StatusOK, gin.H{
		"timestamp": timestamps,
		"price":     prices,
		"sentiment": sentiments,
	})
}

// VolatilityForecast godoc
// @Summary      Next-day volatility forecast
// @Description  Runs the frozen regression model on the latest feature row
// @Tags         forecast
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/volatility_forecast [get]
func (h *Handler) VolatilityForecast(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.volatility-forecast")
	defer span.End()

	latest, ok := h.window.Load().Latest()
	if !ok || h.model == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to make volatility forecast"})
		return
	}

	prediction, err := h.model.Predict(latest.FeatureVector())
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to make volatility forecast"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"predicted_volatility": prediction,
		"forecast_period":      "24 hours",
	})
}

// SentimentAnalysis godoc
// @Summary      Aggregate sentiment score
// @Description  Returns the mean total sentiment over the whole retained window
// @Tags         sentiment
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/sentiment_analysis [get]
func (h *Handler) SentimentAnalysis(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.sentiment-analysis")
	defer span.End()

	score, ok := h.window.Load().MeanTotalSentiment()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No sentiment data available"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sentiment_score": score,
		"analysis_period": "24 hours",
	})
}
