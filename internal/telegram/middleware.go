package telegram

import (
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aquabot/internal/config"
	"github.com/m3rciful/aquabot/internal/logger"
)

// RecoverMiddleware catches panics in handlers and prevents the bot from crashing.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				logger.TG.Error("panic recovered",
					slog.String("event", "tg.panic"),
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}

// LoggerMiddleware logs one receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		err := next(c)

		attrs := []any{
			slog.String("event", "tg.update"),
			slog.Int("update_id", c.Update().ID),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		}
		if user := c.Sender(); user != nil {
			attrs = append(attrs, slog.Int64("user_id", user.ID))
		}
		if cb := c.Callback(); cb != nil {
			attrs = append(attrs, slog.String("cb_key", CallbackKey(c)))
		}
		if err != nil {
			attrs = append(attrs, slog.String("err", err.Error()))
			logger.TG.Error("update failed", attrs...)
			return err
		}
		logger.TG.Debug("update handled", attrs...)
		return nil
	}
}

// RateLimitMiddleware enforces a minimum interval between updates from the
// same user. Update kinds listed in ExcludeUpdates bypass the limit, which
// keeps rapid calendar paging responsive while still damping text floods.
func RateLimitMiddleware(cfg config.RateLimitConfig) tele.MiddlewareFunc {
	interval := time.Duration(cfg.IntervalMS) * time.Millisecond
	exclude := make(map[string]struct{}, len(cfg.ExcludeUpdates))
	for _, kind := range cfg.ExcludeUpdates {
		exclude[kind] = struct{}{}
	}

	var (
		userLastSeen   = make(map[int64]time.Time)
		userLastSeenMu sync.Mutex
	)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || interval <= 0 {
				return next(c)
			}

			kind := "other"
			upd := c.Update()
			switch {
			case upd.Callback != nil:
				kind = config.UpdateCallback
			case upd.Message != nil:
				kind = config.UpdateMessage
			}
			if _, skip := exclude[kind]; skip {
				return next(c)
			}

			now := time.Now()
			userLastSeenMu.Lock()
			last, seen := userLastSeen[user.ID]
			if seen && now.Sub(last) < interval {
				userLastSeenMu.Unlock()
				logger.TG.Warn("rate limit",
					slog.String("event", "tg.rate_limit"),
					slog.Int64("user_id", user.ID),
				)
				return nil
			}
			userLastSeen[user.ID] = now
			userLastSeenMu.Unlock()

			return next(c)
		}
	}
}
