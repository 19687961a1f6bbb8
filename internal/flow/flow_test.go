package flow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/m3rciful/aquabot/internal/models"
	"github.com/m3rciful/aquabot/internal/texts"
)

type fakeResolver struct {
	addr  string
	calls int
}

func (r *fakeResolver) Resolve(_ context.Context, _, _ float64) string {
	r.calls++
	return r.addr
}

type fakeStore struct {
	orders []models.Order
	err    error
}

func (s *fakeStore) Create(_ context.Context, order models.Order) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.orders = append(s.orders, order)
	return int64(len(s.orders)), nil
}

type fakeNotifier struct {
	notified []models.Order
}

func (n *fakeNotifier) Notify(_ context.Context, order models.Order) {
	n.notified = append(n.notified, order)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestFlow(today time.Time) (*Flow, *fakeResolver, *fakeStore, *fakeNotifier) {
	resolver := &fakeResolver{addr: "Resolved Street 1"}
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	return New(resolver, store, notifier, WithClock(fixedClock(today))), resolver, store, notifier
}

func handle(t *testing.T, f *Flow, sess *Session, ev Event) Output {
	t.Helper()
	out, err := f.Handle(context.Background(), sess, ev)
	if err != nil {
		t.Fatalf("Handle(%T): %v", ev, err)
	}
	return out
}

func TestStartResetsSession(t *testing.T) {
	f, _, _, _ := newTestFlow(date(2025, time.June, 10))
	sess := &Session{Stage: StageBottles, Address: "stale", Phone: "+1", DeliveryDate: "01.01.2025"}

	out := handle(t, f, sess, StartTrigger{ClientName: "Ivan"})

	if sess.Stage != StageAddress {
		t.Fatalf("stage = %s, want %s", sess.Stage, StageAddress)
	}
	if sess.Address != "" || sess.Phone != "" || sess.DeliveryDate != "" {
		t.Fatal("start must clear previously collected fields")
	}
	if sess.ClientName != "Ivan" {
		t.Fatalf("client name = %q", sess.ClientName)
	}
	if len(out.Replies) != 1 || out.Replies[0].Kind != ReplyAskLocation {
		t.Fatalf("unexpected replies: %+v", out.Replies)
	}
}

func TestAddressStage(t *testing.T) {
	t.Run("typed text is stored verbatim", func(t *testing.T) {
		f, resolver, _, _ := newTestFlow(date(2025, time.June, 10))
		sess := &Session{}
		handle(t, f, sess, StartTrigger{ClientName: "Ivan"})

		out := handle(t, f, sess, TextMessage{Text: "123 Main St"})

		if sess.Address != "123 Main St" {
			t.Fatalf("address = %q", sess.Address)
		}
		if sess.Stage != StagePhone {
			t.Fatalf("stage = %s, want %s", sess.Stage, StagePhone)
		}
		if resolver.calls != 0 {
			t.Fatal("resolver must not be called for typed addresses")
		}
		if len(out.Replies) != 1 || out.Replies[0].Kind != ReplyAskContact {
			t.Fatalf("unexpected replies: %+v", out.Replies)
		}
		want := fmt.Sprintf(texts.AskPhoneFmt, "123 Main St")
		if out.Replies[0].Text != want {
			t.Fatalf("prompt = %q, want %q", out.Replies[0].Text, want)
		}
	})

	t.Run("location goes through the resolver", func(t *testing.T) {
		f, resolver, _, _ := newTestFlow(date(2025, time.June, 10))
		sess := &Session{}
		handle(t, f, sess, StartTrigger{ClientName: "Ivan"})

		handle(t, f, sess, LocationMessage{Lat: 55.75, Lon: 37.61})

		if resolver.calls != 1 {
			t.Fatalf("resolver calls = %d, want 1", resolver.calls)
		}
		if sess.Address != "Resolved Street 1" {
			t.Fatalf("address = %q", sess.Address)
		}
		if sess.Stage != StagePhone {
			t.Fatalf("stage = %s", sess.Stage)
		}
	})

	t.Run("degraded resolver output still advances", func(t *testing.T) {
		f, resolver, _, _ := newTestFlow(date(2025, time.June, 10))
		resolver.addr = texts.AddressRequestFailed
		sess := &Session{}
		handle(t, f, sess, StartTrigger{ClientName: "Ivan"})

		handle(t, f, sess, LocationMessage{Lat: 0, Lon: 0})

		if sess.Address != texts.AddressRequestFailed {
			t.Fatalf("address = %q", sess.Address)
		}
		if sess.Stage != StagePhone {
			t.Fatal("flow must proceed on a degraded geocode")
		}
	})
}

func TestPhoneStage(t *testing.T) {
	today := date(2025, time.June, 10)

	invalid := []struct {
		name  string
		input string
	}{
		{"letters", "phone"},
		{"mixed", "+7abc123"},
		{"spaces inside", "+7 912 000"},
		{"bare plus", "+"},
		{"empty", ""},
		{"dashes", "8-912-000-11-22"},
	}
	for _, tt := range invalid {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			f, _, _, _ := newTestFlow(today)
			sess := &Session{}
			handle(t, f, sess, StartTrigger{ClientName: "Ivan"})
			handle(t, f, sess, TextMessage{Text: "addr"})

			out := handle(t, f, sess, TextMessage{Text: tt.input})

			if sess.Stage != StagePhone {
				t.Fatalf("stage = %s, must stay at %s", sess.Stage, StagePhone)
			}
			if sess.Phone != "" {
				t.Fatalf("phone stored on invalid input: %q", sess.Phone)
			}
			if len(out.Replies) != 1 || out.Replies[0].Text != texts.PhoneInvalid {
				t.Fatalf("unexpected replies: %+v", out.Replies)
			}
		})
	}

	valid := []struct {
		name  string
		input string
		want  string
	}{
		{"digits get a plus", "5551234", "+5551234"},
		{"existing plus kept", "+79120001122", "+79120001122"},
		{"surrounding spaces trimmed", "  5551234 ", "+5551234"},
	}
	for _, tt := range valid {
		t.Run("accepts "+tt.name, func(t *testing.T) {
			f, _, _, _ := newTestFlow(today)
			sess := &Session{}
			handle(t, f, sess, StartTrigger{ClientName: "Ivan"})
			handle(t, f, sess, TextMessage{Text: "addr"})

			out := handle(t, f, sess, TextMessage{Text: tt.input})

			if sess.Phone != tt.want {
				t.Fatalf("phone = %q, want %q", sess.Phone, tt.want)
			}
			if sess.Stage != StageDate {
				t.Fatalf("stage = %s, want %s", sess.Stage, StageDate)
			}
			if len(out.Replies) != 1 || out.Replies[0].Kind != ReplyCalendar {
				t.Fatalf("unexpected replies: %+v", out.Replies)
			}
			page := out.Replies[0].Page
			if page == nil || page.Year != 2025 || page.Month != time.June {
				t.Fatalf("calendar page = %+v", page)
			}
			if page.PrevEnabled {
				t.Fatal("mid-month initial page must not render a previous-month control")
			}
		})
	}

	t.Run("shared contact is accepted", func(t *testing.T) {
		f, _, _, _ := newTestFlow(today)
		sess := &Session{}
		handle(t, f, sess, StartTrigger{ClientName: "Ivan"})
		handle(t, f, sess, TextMessage{Text: "addr"})

		handle(t, f, sess, ContactMessage{Phone: "79120001122"})

		if sess.Phone != "+79120001122" {
			t.Fatalf("phone = %q", sess.Phone)
		}
		if sess.CalendarYear != 2025 || sess.CalendarMonth != time.June {
			t.Fatalf("cursor = %d-%02d", sess.CalendarYear, sess.CalendarMonth)
		}
	})

	t.Run("last day of month opens next month", func(t *testing.T) {
		f, _, _, _ := newTestFlow(date(2025, time.June, 30))
		sess := &Session{}
		handle(t, f, sess, StartTrigger{ClientName: "Ivan"})
		handle(t, f, sess, TextMessage{Text: "addr"})

		out := handle(t, f, sess, TextMessage{Text: "5551234"})

		page := out.Replies[0].Page
		if page.Year != 2025 || page.Month != time.July {
			t.Fatalf("page = %d-%02d, want 2025-07", page.Year, page.Month)
		}
		if page.PrevEnabled {
			t.Fatal("next-month initial page must not render a previous-month control")
		}
	})
}

func TestDateStage(t *testing.T) {
	today := date(2025, time.June, 10)

	setup := func(t *testing.T) (*Flow, *Session) {
		f, _, _, _ := newTestFlow(today)
		sess := &Session{}
		handle(t, f, sess, StartTrigger{ClientName: "Ivan"})
		handle(t, f, sess, TextMessage{Text: "addr"})
		handle(t, f, sess, TextMessage{Text: "5551234"})
		return f, sess
	}

	t.Run("day selection formats the delivery date", func(t *testing.T) {
		f, sess := setup(t)

		out := handle(t, f, sess, CalendarSelect{Day: 15})

		if sess.DeliveryDate != "15.06.2025" {
			t.Fatalf("delivery date = %q, want 15.06.2025", sess.DeliveryDate)
		}
		if sess.Stage != StageBottles {
			t.Fatalf("stage = %s, want %s", sess.Stage, StageBottles)
		}
		if len(out.Replies) != 2 {
			t.Fatalf("replies = %d, want 2", len(out.Replies))
		}
		if out.Replies[0].Kind != ReplyEditText ||
			out.Replies[0].Text != fmt.Sprintf(texts.DateChosenFmt, "15.06.2025") {
			t.Fatalf("first reply = %+v", out.Replies[0])
		}
		if out.Replies[1].Text != texts.AskBottles {
			t.Fatalf("second reply = %+v", out.Replies[1])
		}
	})

	t.Run("selection after navigation uses the cursor month", func(t *testing.T) {
		f, sess := setup(t)
		handle(t, f, sess, CalendarNav{Direction: NavNext})

		handle(t, f, sess, CalendarSelect{Day: 1})

		if sess.DeliveryDate != "01.07.2025" {
			t.Fatalf("delivery date = %q, want 01.07.2025", sess.DeliveryDate)
		}
	})

	t.Run("out-of-range day is ignored", func(t *testing.T) {
		f, sess := setup(t)

		out := handle(t, f, sess, CalendarSelect{Day: 31}) // June has 30 days

		if len(out.Replies) != 0 || sess.Stage != StageDate {
			t.Fatalf("stale day selection must be ignored, got %+v", out)
		}
	})

	t.Run("navigation is idempotent around the cursor", func(t *testing.T) {
		f, sess := setup(t)

		for i := 0; i < 3; i++ {
			handle(t, f, sess, CalendarNav{Direction: NavNext})
		}
		if sess.CalendarYear != 2025 || sess.CalendarMonth != time.September {
			t.Fatalf("cursor = %d-%02d, want 2025-09", sess.CalendarYear, sess.CalendarMonth)
		}
		for i := 0; i < 3; i++ {
			handle(t, f, sess, CalendarNav{Direction: NavPrev})
		}
		if sess.CalendarYear != 2025 || sess.CalendarMonth != time.June {
			t.Fatalf("cursor = %d-%02d, want 2025-06", sess.CalendarYear, sess.CalendarMonth)
		}
	})

	t.Run("prev stops at the minimum navigable month", func(t *testing.T) {
		f, sess := setup(t)

		out := handle(t, f, sess, CalendarNav{Direction: NavPrev})

		if sess.CalendarYear != 2025 || sess.CalendarMonth != time.June {
			t.Fatalf("cursor moved below the floor: %d-%02d", sess.CalendarYear, sess.CalendarMonth)
		}
		// The page re-renders unchanged rather than erroring out.
		if len(out.Replies) != 1 || out.Replies[0].Kind != ReplyEditCalendar {
			t.Fatalf("unexpected replies: %+v", out.Replies)
		}
	})

	t.Run("december navigation carries the year", func(t *testing.T) {
		f, _, _, _ := newTestFlow(date(2025, time.December, 10))
		sess := &Session{}
		handle(t, f, sess, StartTrigger{ClientName: "Ivan"})
		handle(t, f, sess, TextMessage{Text: "addr"})
		handle(t, f, sess, TextMessage{Text: "5551234"})

		handle(t, f, sess, CalendarNav{Direction: NavNext})
		if sess.CalendarYear != 2026 || sess.CalendarMonth != time.January {
			t.Fatalf("cursor = %d-%02d, want 2026-01", sess.CalendarYear, sess.CalendarMonth)
		}
		handle(t, f, sess, CalendarNav{Direction: NavPrev})
		if sess.CalendarYear != 2025 || sess.CalendarMonth != time.December {
			t.Fatalf("cursor = %d-%02d, want 2025-12", sess.CalendarYear, sess.CalendarMonth)
		}
	})

	t.Run("free text is ignored while awaiting a date", func(t *testing.T) {
		f, sess := setup(t)

		out := handle(t, f, sess, TextMessage{Text: "tomorrow please"})

		if len(out.Replies) != 0 || sess.Stage != StageDate {
			t.Fatalf("text must be ignored at the date stage, got %+v", out)
		}
	})
}

func TestBottlesStage(t *testing.T) {
	today := date(2025, time.June, 10)

	setup := func(t *testing.T) (*Flow, *Session, *fakeStore, *fakeNotifier) {
		f, _, store, notifier := newTestFlow(today)
		sess := &Session{}
		handle(t, f, sess, StartTrigger{ClientName: "Ivan"})
		handle(t, f, sess, TextMessage{Text: "123 Main St"})
		handle(t, f, sess, TextMessage{Text: "5551234"})
		handle(t, f, sess, CalendarSelect{Day: 15})
		return f, sess, store, notifier
	}

	rejects := []struct {
		input string
		want  string
	}{
		{"abc", texts.BottlesNotNumber},
		{"2.5", texts.BottlesNotNumber},
		{"", texts.BottlesNotNumber},
		{"0", texts.BottlesNotPositive},
		{"-3", texts.BottlesNotPositive},
	}
	for _, tt := range rejects {
		t.Run(fmt.Sprintf("rejects %q", tt.input), func(t *testing.T) {
			f, sess, store, notifier := setup(t)

			out := handle(t, f, sess, TextMessage{Text: tt.input})

			if sess.Stage != StageBottles {
				t.Fatalf("stage = %s, must stay at %s", sess.Stage, StageBottles)
			}
			if len(out.Replies) != 1 || out.Replies[0].Text != tt.want {
				t.Fatalf("unexpected replies: %+v", out.Replies)
			}
			if len(store.orders) != 0 || len(notifier.notified) != 0 {
				t.Fatal("nothing may be persisted on invalid input")
			}
		})
	}

	t.Run("valid count finalizes the order", func(t *testing.T) {
		f, sess, store, notifier := setup(t)

		out := handle(t, f, sess, TextMessage{Text: "3"})

		if !out.Done {
			t.Fatal("output must be terminal")
		}
		if len(out.Replies) != 1 || out.Replies[0].Text != texts.OrderAccepted {
			t.Fatalf("unexpected replies: %+v", out.Replies)
		}
		if len(store.orders) != 1 {
			t.Fatalf("persisted orders = %d, want 1", len(store.orders))
		}
		order := store.orders[0]
		if order.DeliveryDate != "15.06.2025" || order.ClientName != "Ivan" ||
			order.ClientAddress != "123 Main St" || order.Phone != "+5551234" || order.Bottles != 3 {
			t.Fatalf("unexpected order: %+v", order)
		}
		if len(notifier.notified) != 1 {
			t.Fatalf("notifications = %d, want exactly 1", len(notifier.notified))
		}
		if notifier.notified[0].ID != 1 {
			t.Fatalf("notified order id = %d, want the assigned identity", notifier.notified[0].ID)
		}
		if sess.InProgress() {
			t.Fatal("session must be discarded after success")
		}
	})

	t.Run("storage failure terminates without notification", func(t *testing.T) {
		f, sess, store, notifier := setup(t)
		store.err = errors.New("disk full")

		out := handle(t, f, sess, TextMessage{Text: "3"})

		if !out.Done {
			t.Fatal("output must be terminal")
		}
		if len(out.Replies) != 1 || out.Replies[0].Text != texts.StorageError {
			t.Fatalf("unexpected replies: %+v", out.Replies)
		}
		if len(notifier.notified) != 0 {
			t.Fatal("no notification may be sent when persistence fails")
		}
		if sess.InProgress() {
			t.Fatal("session must be discarded after a storage failure")
		}
	})
}

func TestEventsOutsideFlowAreIgnored(t *testing.T) {
	f, _, store, _ := newTestFlow(date(2025, time.June, 10))
	sess := &Session{Stage: StageIdle}

	for _, ev := range []Event{
		TextMessage{Text: "hello"},
		LocationMessage{Lat: 1, Lon: 2},
		ContactMessage{Phone: "5551234"},
		CalendarSelect{Day: 5},
		CalendarNav{Direction: NavNext},
	} {
		out := handle(t, f, sess, ev)
		if len(out.Replies) != 0 || out.Done {
			t.Fatalf("idle session must ignore %T, got %+v", ev, out)
		}
	}
	if len(store.orders) != 0 {
		t.Fatal("nothing may be persisted from an idle session")
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"5551234", "+5551234", true},
		{"+5551234", "+5551234", true},
		{"+", "", false},
		{"", "", false},
		{"+7 912", "", false},
		{"phone", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizePhone(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizePhone(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}
