package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentivol/internal/bot"
	"sentivol/internal/cache"
	"sentivol/internal/config"
	"sentivol/internal/handler"
	"sentivol/internal/history"
	"sentivol/internal/job"
	"sentivol/internal/ml/forest"
	"sentivol/internal/ml/textclf"
	"sentivol/internal/provider"
	"sentivol/internal/sentiment"
	"sentivol/internal/service"
	"sentivol/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "sentivol/docs"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initRedisFunc  = cache.InitRedis
	initTracerFunc = tracing.InitTracer

	loadForestFunc  = forest.LoadFile
	loadTextclfFunc = textclf.LoadFile

	newRedditProviderFunc = func(tracer trace.Tracer) service.SocialFeed {
		return provider.NewRedditProvider(tracer)
	}
	newCoinGeckoProviderFunc = func(tracer trace.Tracer) service.MarketData {
		return provider.NewCoinGeckoProvider(tracer)
	}
	newPipelineServiceFunc = service.NewPipelineService
	newRefreshJobFunc      = job.NewRefreshJob
	startRefreshJobFunc    = func(j *job.RefreshJob, ctx context.Context) { go j.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Sentivol API
// @version         1.0
// @description     Crypto sentiment and volatility forecast service.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("REDIS_URL", cfg.RedisURL)
	redisClient := initRedisFunc(ctx)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// The volatility model is required; the service cannot forecast
	// without it.
	volModel, err := loadForestFunc(cfg.VolatilityModelPath)
	if err != nil {
		log.Fatalf("failed to load volatility model from %s: %v", cfg.VolatilityModelPath, err)
	}

	scorer := buildScorer(cfg)

	redditProvider := newRedditProviderFunc(tracer)
	cgProvider := newCoinGeckoProviderFunc(tracer)
	pipelineSvc := newPipelineServiceFunc(
		tracer,
		redditProvider,
		cgProvider,
		scorer,
		cfg.Subreddits,
		cfg.PostLimit,
		cfg.AssetID,
		cfg.MarketDays,
	)

	window := history.NewWindow()
	var store *history.Store
	if redisClient != nil {
		store = history.NewStore(redisClient)
		if snap, err := store.Restore(ctx); err != nil {
			log.Printf("snapshot restore error: %v", err)
		} else if snap != nil {
			window.Commit(snap.Rows, time.Now().UTC())
			log.Printf("Restored %d rows from snapshot", len(snap.Rows))
		}
	}

	refreshJob := newRefreshJobFunc(tracer, pipelineSvc, window, store,
		time.Duration(cfg.RefreshIntervalS)*time.Second)
	startRefreshJobFunc(refreshJob, ctx)

	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	startTelegramBotFunc(window, volModel)

	h := newHandlerFunc(tracer, window, volModel, cfg.StaticDir)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("sentivol"))
	r.Use(handler.APIKeyAuth(cfg.APIKey))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

// buildScorer wires the sentiment backend picked by config: the local
// classifier artifact by default, OpenAI when selected.
func buildScorer(cfg *config.Config) *sentiment.Scorer {
	if cfg.SentimentBackend == "openai" {
		if clf := sentiment.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel); clf != nil {
			log.Printf("Using OpenAI sentiment backend (%s)", cfg.OpenAIModel)
			return sentiment.NewScorer(clf)
		}
		log.Println("OpenAI backend unavailable, falling back to local classifier")
	}

	model, err := loadTextclfFunc(cfg.SentimentModelPath)
	if err != nil {
		log.Fatalf("failed to load sentiment model from %s: %v", cfg.SentimentModelPath, err)
	}
	return sentiment.NewScorer(model)
}
