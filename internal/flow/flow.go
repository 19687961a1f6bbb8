// Package flow implements the order-intake conversation: a per-user state
// machine that collects an address, a phone number, a delivery date through
// an inline calendar, and a bottle count, then persists the order and hands
// it to the operator notification.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/aquabot/internal/logger"
	"github.com/m3rciful/aquabot/internal/models"
	"github.com/m3rciful/aquabot/internal/texts"
)

// AddressResolver turns coordinates into a display address. Implementations
// must absorb their own failures into fallback strings.
type AddressResolver interface {
	Resolve(ctx context.Context, lat, lon float64) string
}

// OrderStore persists completed orders.
type OrderStore interface {
	Create(ctx context.Context, order models.Order) (int64, error)
}

// Notifier delivers the operator summary. Best-effort: implementations log
// failures and never surface them.
type Notifier interface {
	Notify(ctx context.Context, order models.Order)
}

// Flow drives the order conversation. It owns no session storage: the
// caller passes the session in, already serialized per user.
type Flow struct {
	resolver AddressResolver
	store    OrderStore
	notifier Notifier
	now      func() time.Time
}

// Option customises Flow construction.
type Option func(*Flow)

// WithClock overrides the wall clock, fixing "today" for tests.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		if now != nil {
			f.now = now
		}
	}
}

// New wires the flow with its collaborators.
func New(resolver AddressResolver, store OrderStore, notifier Notifier, opts ...Option) *Flow {
	f := &Flow{
		resolver: resolver,
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Handle processes one event against the session and returns the replies to
// render. Events that make no sense for the current stage are ignored with
// an empty output.
func (f *Flow) Handle(ctx context.Context, sess *Session, ev Event) (Output, error) {
	if start, ok := ev.(StartTrigger); ok {
		return f.handleStart(sess, start), nil
	}

	switch sess.Stage {
	case StageAddress:
		return f.handleAddress(ctx, sess, ev), nil
	case StagePhone:
		return f.handlePhone(sess, ev), nil
	case StageDate:
		return f.handleDate(sess, ev), nil
	case StageBottles:
		return f.handleBottles(ctx, sess, ev)
	}
	return Output{}, nil
}

func (f *Flow) handleStart(sess *Session, ev StartTrigger) Output {
	sess.Reset()
	sess.Stage = StageAddress
	sess.ClientName = ev.ClientName

	logger.FLOW.Info("order flow started",
		slog.String("event", "flow.start"),
		slog.String("stage", string(sess.Stage)),
	)
	return Output{Replies: []Reply{{Kind: ReplyAskLocation, Text: texts.AskAddress}}}
}

// handleAddress accepts a typed address or shared coordinates. There is no
// validation failure path: a degraded geocode result is stored as-is and the
// flow proceeds.
func (f *Flow) handleAddress(ctx context.Context, sess *Session, ev Event) Output {
	switch e := ev.(type) {
	case LocationMessage:
		sess.Address = f.resolver.Resolve(ctx, e.Lat, e.Lon)
	case TextMessage:
		sess.Address = e.Text
	default:
		return Output{}
	}

	sess.Stage = StagePhone
	logger.FLOW.Debug("address captured",
		slog.String("event", "flow.address"),
		slog.String("stage", string(sess.Stage)),
	)
	return Output{Replies: []Reply{{
		Kind: ReplyAskContact,
		Text: fmt.Sprintf(texts.AskPhoneFmt, sess.Address),
	}}}
}

func (f *Flow) handlePhone(sess *Session, ev Event) Output {
	var raw string
	switch e := ev.(type) {
	case ContactMessage:
		raw = e.Phone
	case TextMessage:
		raw = e.Text
	default:
		return Output{}
	}

	phone, ok := NormalizePhone(raw)
	if !ok {
		return Output{Replies: []Reply{textReply(texts.PhoneInvalid)}}
	}
	sess.Phone = phone

	year, month := InitialMonth(f.now())
	sess.CalendarYear = year
	sess.CalendarMonth = month
	sess.Stage = StageDate

	page := BuildPage(year, month, f.now())
	logger.FLOW.Debug("phone captured",
		slog.String("event", "flow.phone"),
		slog.String("stage", string(sess.Stage)),
	)
	return Output{Replies: []Reply{{Kind: ReplyCalendar, Text: texts.ChooseDate, Page: &page}}}
}

func (f *Flow) handleDate(sess *Session, ev Event) Output {
	switch e := ev.(type) {
	case CalendarSelect:
		if e.Day < 1 || e.Day > lastDay(sess.CalendarYear, sess.CalendarMonth) {
			return Output{}
		}
		sess.DeliveryDate = fmt.Sprintf("%02d.%02d.%d", e.Day, int(sess.CalendarMonth), sess.CalendarYear)
		sess.Stage = StageBottles

		logger.FLOW.Debug("date selected",
			slog.String("event", "flow.date"),
			slog.String("delivery_date", sess.DeliveryDate),
		)
		return Output{Replies: []Reply{
			{Kind: ReplyEditText, Text: fmt.Sprintf(texts.DateChosenFmt, sess.DeliveryDate)},
			textReply(texts.AskBottles),
		}}

	case CalendarNav:
		year, month := sess.CalendarYear, sess.CalendarMonth
		switch e.Direction {
		case NavNext:
			year, month = NextMonth(year, month)
		case NavPrev:
			minYear, minMonth := MinMonth(f.now())
			if year > minYear || (year == minYear && month > minMonth) {
				year, month = PrevMonth(year, month)
			}
		default:
			return Output{}
		}
		sess.CalendarYear, sess.CalendarMonth = year, month

		page := BuildPage(year, month, f.now())
		return Output{Replies: []Reply{{Kind: ReplyEditCalendar, Text: texts.ChooseDate, Page: &page}}}
	}
	return Output{}
}

func (f *Flow) handleBottles(ctx context.Context, sess *Session, ev Event) (Output, error) {
	text, ok := ev.(TextMessage)
	if !ok {
		return Output{}, nil
	}

	bottles, err := strconv.Atoi(strings.TrimSpace(text.Text))
	if err != nil {
		return Output{Replies: []Reply{textReply(texts.BottlesNotNumber)}}, nil
	}
	if bottles <= 0 {
		return Output{Replies: []Reply{textReply(texts.BottlesNotPositive)}}, nil
	}
	sess.Bottles = bottles

	order := models.Order{
		DeliveryDate:  sess.DeliveryDate,
		ClientName:    sess.ClientName,
		ClientAddress: sess.Address,
		Phone:         sess.Phone,
		Bottles:       sess.Bottles,
	}

	id, err := f.store.Create(ctx, order)
	if err != nil {
		// Terminal storage failure: tell the user, discard the session,
		// do not retry.
		sess.Reset()
		logger.FLOW.Error("order not stored",
			slog.String("event", "flow.submit"),
			slog.String("err", err.Error()),
		)
		return Output{Replies: []Reply{textReply(texts.StorageError)}, Done: true}, nil
	}
	order.ID = id

	f.notifier.Notify(ctx, order)
	sess.Reset()

	logger.FLOW.Info("order accepted",
		slog.String("event", "flow.submit"),
		slog.Int64("order_id", id),
		slog.String("delivery_date", order.DeliveryDate),
		slog.Int("bottles", order.Bottles),
	)
	return Output{Replies: []Reply{textReply(texts.OrderAccepted)}, Done: true}, nil
}

// NormalizePhone prepends a missing '+' and verifies the remainder is all
// digits. Returns the normalized number and whether it is valid.
func NormalizePhone(raw string) (string, bool) {
	phone := strings.TrimSpace(raw)
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	rest := phone[1:]
	if rest == "" {
		return "", false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return phone, true
}
