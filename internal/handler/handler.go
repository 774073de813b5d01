package handler

import (
	"net/http"
	"path/filepath"

	"sentivol/internal/history"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// Forecaster predicts next-day volatility from one feature vector.
type Forecaster interface {
	Predict(sample []float64) (float64, error)
}

type Handler struct {
	tracer    trace.Tracer
	window    *history.Window
	model     Forecaster
	staticDir string
}

func New(tracer trace.Tracer, window *history.Window, model Forecaster, staticDir string) *Handler {
	return &Handler{
		tracer:    tracer,
		window:    window,
		model:     model,
		staticDir: staticDir,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Index)
	if h.staticDir != "" {
		r.Static("/static", h.staticDir)
	}
	r.GET("/health", h.Health)
	r.GET("/api/historical_data", h.HistoricalData)
	r.GET("/api/volatility_forecast", h.VolatilityForecast)
	r.GET("/api/sentiment_analysis", h.SentimentAnalysis)
}

// Index serves the dashboard when a static dir is configured.
func (h *Handler) Index(c *gin.Context) {
	if h.staticDir == "" {
		c.JSON(http.StatusOK, gin.H{"service": "sentivol"})
		return
	}
	c.File(filepath.Join(h.staticDir, "index.html"))
}
