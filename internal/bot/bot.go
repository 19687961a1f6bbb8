// Package bot maps Telegram updates onto order-flow events and renders flow
// output back into Telegram messages and keyboards.
package bot

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aquabot/internal/config"
	"github.com/m3rciful/aquabot/internal/flow"
	"github.com/m3rciful/aquabot/internal/storage"
)

// Callback uniques used by the calendar markup.
const (
	cbDay  = "wd_day"
	cbNav  = "wd_nav"
	cbNoop = "wd_noop"
)

// Bot wires the order flow to a telebot instance.
type Bot struct {
	flow     *flow.Flow
	sessions *flow.Sessions
	orders   *storage.Orders
	cfg      *config.Config
}

// New builds the application bot layer.
func New(f *flow.Flow, sessions *flow.Sessions, orders *storage.Orders, cfg *config.Config) *Bot {
	return &Bot{
		flow:     f,
		sessions: sessions,
		orders:   orders,
		cfg:      cfg,
	}
}

// Register binds all routes on the bot.
func (b *Bot) Register(tb *tele.Bot) {
	tb.Handle("/start", b.onStart)
	tb.Handle("/orders", b.onOrders)
	tb.Handle(tele.OnText, b.onText)
	tb.Handle(tele.OnLocation, b.onLocation)
	tb.Handle(tele.OnContact, b.onContact)
	tb.Handle(tele.OnCallback, b.onCallback)
}

// dispatch runs one flow event under the user's session lock and renders the
// result. Holding the lock across the whole turn keeps events for a single
// user strictly sequential.
func (b *Bot) dispatch(c tele.Context, ev flow.Event) error {
	userID := c.Sender().ID
	return b.sessions.Do(userID, func(sess *flow.Session) error {
		out, err := b.flow.Handle(context.Background(), sess, ev)
		if err != nil {
			return err
		}
		if out.Done {
			b.sessions.Clear(userID)
		}
		return b.render(c, out)
	})
}
