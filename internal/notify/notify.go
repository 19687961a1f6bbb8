// Package notify delivers accepted orders to the operator chat. Delivery is
// best-effort and fully asynchronous: a failure is logged and never changes
// the user-visible outcome of an order.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aquabot/internal/logger"
	"github.com/m3rciful/aquabot/internal/models"
	"github.com/m3rciful/aquabot/internal/texts"
)

// Sender is the outbound Telegram surface the notifier needs.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram queues order summaries and sends them to the manager chat from a
// single worker, keeping notifications in acceptance order.
type Telegram struct {
	sender  Sender
	chat    tele.ChatID
	jobs    chan models.Order
	stopped chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewTelegram starts the notifier worker. queueSize <= 0 selects a default.
func NewTelegram(sender Sender, managerID int64, queueSize int) *Telegram {
	if queueSize <= 0 {
		queueSize = 64
	}
	n := &Telegram{
		sender:  sender,
		chat:    tele.ChatID(managerID),
		jobs:    make(chan models.Order, queueSize),
		stopped: make(chan struct{}),
	}
	n.wg.Add(1)
	go n.worker()
	return n
}

// Notify enqueues exactly one delivery attempt for the order. A saturated
// queue drops the notification with a log line instead of blocking the flow.
func (n *Telegram) Notify(_ context.Context, order models.Order) {
	select {
	case <-n.stopped:
		logger.NTF.Warn("notifier stopped, dropping summary",
			slog.String("event", "notify.enqueue"),
			slog.Int64("order_id", order.ID),
		)
		return
	default:
	}

	select {
	case n.jobs <- order:
	default:
		logger.NTF.Warn("notify queue full, dropping summary",
			slog.String("event", "notify.enqueue"),
			slog.Int64("order_id", order.ID),
		)
	}
}

// Close stops accepting new notifications and waits for the queue to drain.
func (n *Telegram) Close() {
	n.once.Do(func() {
		close(n.stopped)
	})
	n.wg.Wait()
}

func (n *Telegram) worker() {
	defer n.wg.Done()
	for {
		select {
		case order := <-n.jobs:
			n.send(order)
		case <-n.stopped:
			for {
				select {
				case order := <-n.jobs:
					n.send(order)
				default:
					return
				}
			}
		}
	}
}

func (n *Telegram) send(order models.Order) {
	_, err := n.sender.Send(n.chat, Summary(order), &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	})
	if err != nil {
		logger.NTF.Error("manager notification failed",
			slog.String("event", "notify.send"),
			slog.Int64("order_id", order.ID),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.NTF.Info("manager notified",
		slog.String("event", "notify.send"),
		slog.Int64("order_id", order.ID),
	)
}

// Summary formats the operator message: delivery date, address, a tappable
// dial link, bottle count, and the client display name.
func Summary(order models.Order) string {
	return fmt.Sprintf(texts.ManagerSummaryFmt,
		order.DeliveryDate,
		order.ClientAddress,
		order.Phone, order.Phone,
		order.Bottles,
		order.ClientName,
	)
}
