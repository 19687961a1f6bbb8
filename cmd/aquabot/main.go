package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aquabot/internal/bot"
	"github.com/m3rciful/aquabot/internal/config"
	"github.com/m3rciful/aquabot/internal/database"
	"github.com/m3rciful/aquabot/internal/flow"
	"github.com/m3rciful/aquabot/internal/geocoder"
	"github.com/m3rciful/aquabot/internal/logger"
	"github.com/m3rciful/aquabot/internal/notify"
	"github.com/m3rciful/aquabot/internal/storage"
	"github.com/m3rciful/aquabot/internal/telegram"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("aquabot: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}

	if err := database.RunMigrations(cfg.Database); err != nil {
		return err
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	orders := storage.NewOrders(db)
	geo := geocoder.New(cfg.Geocoder)
	sessions := flow.NewSessions()

	var notifier *notify.Telegram

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return telegram.Run(ctx, telegram.Options{
		Config: cfg,
		Middlewares: []tele.MiddlewareFunc{
			telegram.RecoverMiddleware,
			telegram.LoggerMiddleware,
			telegram.RateLimitMiddleware(cfg.RateLimit),
		},
		Register: func(tb *tele.Bot) error {
			notifier = notify.NewTelegram(tb, cfg.Telegram.ManagerID, 0)
			orderFlow := flow.New(geo, orders, notifier)
			bot.New(orderFlow, sessions, orders, cfg).Register(tb)
			return nil
		},
		OnStop: func() {
			if notifier != nil {
				notifier.Close()
			}
		},
	})
}
