// Package telegram owns the bot transport: poller construction, the tuned
// HTTP client, shared middleware, and the run loop with graceful shutdown.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aquabot/internal/config"
	"github.com/m3rciful/aquabot/internal/logger"
)

// Options controls the behaviour of Run.
type Options struct {
	Config *config.Config

	// Middlewares are registered globally via bot.Use, in order.
	Middlewares []tele.MiddlewareFunc

	// Register wires application routes once the bot is constructed.
	Register func(bot *tele.Bot) error

	// OnStop runs after the bot loop exits, before Run returns.
	OnStop func()
}

// Run composes and runs the Telegram bot until the provided context is done.
func Run(ctx context.Context, opts Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	cfg := opts.Config

	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: BuildPoller(cfg),
		Client: BuildHTTPClient(),
	})
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	logger.TG.Info("bot authorized",
		slog.String("event", "mode"),
		slog.String("mode", cfg.Telegram.RunMode),
		slog.String("username", bot.Me.Username),
	)

	for _, mw := range opts.Middlewares {
		if mw == nil {
			continue
		}
		bot.Use(mw)
	}

	if opts.Register != nil {
		if err := opts.Register(bot); err != nil {
			return fmt.Errorf("telegram: route registration failed: %w", err)
		}
	}

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		bot.Stop()
		<-runDone
		runErr = ctx.Err()
	case <-runDone:
	}

	if opts.OnStop != nil {
		opts.OnStop()
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
