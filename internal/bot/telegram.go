package bot

import (
	"fmt"
	"log"
	"os"
	"time"

	"sentivol/internal/history"

	tele "gopkg.in/telebot.v3"
)

// Forecaster predicts next-day volatility from one feature vector.
type Forecaster interface {
	Predict(sample []float64) (float64, error)
}

// StartTelegramBot exposes the forecast and sentiment reads over
// Telegram. Without a token the bot silently stays off.
func StartTelegramBot(window *history.Window, model Forecaster) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/forecast", func(c tele.Context) error {
		return c.Send(forecastMessage(window, model))
	})

	b.Handle("/sentiment", func(c tele.Context) error {
		return c.Send(sentimentMessage(window))
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func forecastMessage(window *history.Window, model Forecaster) string {
	latest, ok := window.Load().Latest()
	if !ok {
		return "No data yet, try again after the next refresh"
	}
	if model == nil {
		return "Volatility model is not loaded"
	}
	prediction, err := model.Predict(latest.FeatureVector())
	if err != nil {
		return fmt.Sprintf("Forecast failed: %v", err)
	}
	return fmt.Sprintf("Predicted volatility: %.4f\nForecast period: 24 hours", prediction)
}

func sentimentMessage(window *history.Window) string {
	score, ok := window.Load().MeanTotalSentiment()
	if !ok {
		return "No data yet, try again after the next refresh"
	}
	return fmt.Sprintf("Sentiment score: %.4f\nAnalysis period: 24 hours", score)
}
