package bot

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aquabot/internal/flow"
	"github.com/m3rciful/aquabot/internal/telegram"
	"github.com/m3rciful/aquabot/internal/texts"
)

func (b *Bot) onStart(c tele.Context) error {
	return c.Send(texts.Greeting, mainKeyboard())
}

func (b *Bot) onText(c tele.Context) error {
	text := strings.TrimSpace(c.Text())

	if text == texts.ButtonNewOrder {
		return b.dispatch(c, flow.StartTrigger{ClientName: senderName(c)})
	}
	if b.sessions.InProgress(c.Sender().ID) {
		return b.dispatch(c, flow.TextMessage{Text: c.Text()})
	}
	return c.Send(texts.UnknownTextHint, mainKeyboard())
}

func (b *Bot) onLocation(c tele.Context) error {
	loc := c.Message().Location
	if loc == nil {
		return nil
	}
	return b.dispatch(c, flow.LocationMessage{
		Lat: float64(loc.Lat),
		Lon: float64(loc.Lng),
	})
}

func (b *Bot) onContact(c tele.Context) error {
	contact := c.Message().Contact
	if contact == nil {
		return nil
	}
	return b.dispatch(c, flow.ContactMessage{Phone: contact.PhoneNumber})
}

func (b *Bot) onCallback(c tele.Context) error {
	_ = c.Respond()

	switch telegram.CallbackKey(c) {
	case cbDay:
		day, err := telegram.PayloadInt(c)
		if err != nil {
			return nil
		}
		return b.dispatch(c, flow.CalendarSelect{Day: day})
	case cbNav:
		switch telegram.CallbackPayload(c) {
		case string(flow.NavNext):
			return b.dispatch(c, flow.CalendarNav{Direction: flow.NavNext})
		case string(flow.NavPrev):
			return b.dispatch(c, flow.CalendarNav{Direction: flow.NavPrev})
		}
	case cbNoop:
		// disabled calendar cell
	}
	return nil
}

// onOrders lists recent orders to the manager.
func (b *Bot) onOrders(c tele.Context) error {
	if c.Sender().ID != b.cfg.Telegram.ManagerID {
		return c.Send(texts.OrdersDenied)
	}

	orders, err := b.orders.ListRecent(context.Background(), 10)
	if err != nil {
		return c.Send(texts.StorageError)
	}
	if len(orders) == 0 {
		return c.Send(texts.OrdersEmpty)
	}

	lines := make([]string, 0, len(orders))
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf(texts.OrderRowFmt,
			o.ID, o.DeliveryDate, o.ClientAddress, o.Phone, o.Bottles))
	}
	return c.Send(strings.Join(lines, "\n"))
}

func senderName(c tele.Context) string {
	user := c.Sender()
	if user == nil {
		return ""
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	return user.Username
}
