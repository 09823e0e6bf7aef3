// Package notifier pushes security alerts (guard denials) to a Telegram
// chat. It is optional: a nil Dispatcher is a no-op.
package notifier

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"authapi/internal/config"
)

// Event describes one guard denial.
type Event struct {
	Kind   string
	IP     string
	Method string
	Path   string
	Reason string
	Time   time.Time
}

// Dispatcher buffers events and delivers them to Telegram from a single
// background goroutine, so the request path never blocks on the Telegram API.
type Dispatcher struct {
	api    *tgbotapi.BotAPI
	chatID int64
	events chan Event
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher, or (nil, nil) when alerting is
// disabled in the configuration.
func NewDispatcher(cfg *config.Config, logger *zap.Logger) (*Dispatcher, error) {
	if !cfg.Alerts.Enabled || cfg.Alerts.TelegramBotToken == "" {
		logger.Info("Security alerting is disabled (alerts.enabled=false or token is empty)")
		return nil, nil
	}

	api, err := tgbotapi.NewBotAPI(cfg.Alerts.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram alert bot authorized", zap.String("username", api.Self.UserName))

	return &Dispatcher{
		api:    api,
		chatID: cfg.Alerts.TelegramChatID,
		events: make(chan Event, 64),
		logger: logger,
	}, nil
}

// Notify enqueues an event. It never blocks; when the buffer is full the
// event is dropped, since alerting must not slow down request handling.
func (d *Dispatcher) Notify(event Event) {
	if d == nil {
		return
	}
	select {
	case d.events <- event:
	default:
		d.logger.Warn("Alert buffer full, dropping event", zap.String("kind", event.Kind))
	}
}

// Run delivers queued events until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	if d == nil {
		return
	}
	d.logger.Info("Alert dispatcher started.")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Alert dispatcher stopped.")
			return
		case event := <-d.events:
			d.send(event)
		}
	}
}

func (d *Dispatcher) send(event Event) {
	text := fmt.Sprintf(
		"Request denied (%s)\nIP: %s\n%s %s\nReason: %s\nTime: %s",
		event.Kind, event.IP, event.Method, event.Path, event.Reason,
		event.Time.UTC().Format(time.RFC3339),
	)

	msg := tgbotapi.NewMessage(d.chatID, text)
	if _, err := d.api.Send(msg); err != nil {
		d.logger.Error("Failed to send Telegram alert", zap.Error(err))
	}
}
