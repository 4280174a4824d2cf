// Package worker reacts to order events: it drops stale profile caches and
// sends order e-mails.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-bookstore/internal/apperr"
	kafkax "github.com/ariefcatur/go-bookstore/internal/kafka"
	"github.com/ariefcatur/go-bookstore/internal/notify"
	"github.com/ariefcatur/go-bookstore/internal/orders"
	"github.com/ariefcatur/go-bookstore/internal/users"
)

type Deduper interface {
	Seen(ctx context.Context, service, eventID string) (bool, error)
	MarkSeen(ctx context.Context, service, eventID string) error
}

type ProfileInvalidator interface {
	DeleteProfile(ctx context.Context, userID int64) error
}

type UserGetter interface {
	Get(ctx context.Context, id int64) (*users.User, error)
}

type Mailer interface {
	Send(e notify.Email) error
}

type Handler struct {
	Service  string
	Dedup    Deduper
	Profiles ProfileInvalidator
	Users    UserGetter
	Mailer   Mailer // nil disables e-mail
	Log      *zap.Logger
}

// Handle is a kafka.Handler. Malformed messages are logged and committed so
// they do not block the partition.
func (h *Handler) Handle(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		h.Log.Warn("skip malformed event", zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}

	seen, err := h.Dedup.Seen(ctx, h.Service, env.EventID)
	if err != nil {
		return fmt.Errorf("dedup lookup: %w", err)
	}
	if seen {
		return nil
	}

	switch env.EventType {
	case orders.EventOrderCreated:
		err = h.orderCreated(ctx, env)
	case orders.EventOrderStatusChanged:
		err = h.statusChanged(ctx, env)
	default:
		h.Log.Debug("ignore event", zap.String("event_type", env.EventType))
		return nil
	}
	if err != nil {
		return err
	}
	return h.Dedup.MarkSeen(ctx, h.Service, env.EventID)
}

func (h *Handler) orderCreated(ctx context.Context, env orders.Envelope) error {
	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		h.Log.Warn("skip bad payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}
	if p.UserID == nil {
		return nil
	}
	if err := h.Profiles.DeleteProfile(ctx, *p.UserID); err != nil {
		return fmt.Errorf("invalidate profile: %w", err)
	}

	u, ok, err := h.recipient(ctx, *p.UserID)
	if err != nil || !ok {
		return err
	}
	lines := make([]notify.Line, 0, len(p.Items))
	for _, it := range p.Items {
		lines = append(lines, notify.Line{Title: it.Title, Quantity: it.Quantity, Price: it.Price.StringFixed(2)})
	}
	return h.send(notify.Email{
		To:       u.Email,
		Subject:  "Your order " + p.OrderID,
		Template: notify.TemplateOrderConfirmation,
		Data: notify.OrderData{
			CustomerName: u.Name,
			OrderID:      p.OrderID,
			Items:        lines,
			Total:        p.Total.StringFixed(2),
			Status:       string(p.Status),
		},
	})
}

func (h *Handler) statusChanged(ctx context.Context, env orders.Envelope) error {
	p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
	if err != nil {
		h.Log.Warn("skip bad payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}
	if p.UserID == nil {
		return nil
	}
	if err := h.Profiles.DeleteProfile(ctx, *p.UserID); err != nil {
		return fmt.Errorf("invalidate profile: %w", err)
	}

	u, ok, err := h.recipient(ctx, *p.UserID)
	if err != nil || !ok {
		return err
	}
	return h.send(notify.Email{
		To:       u.Email,
		Subject:  fmt.Sprintf("Order %s is %s", p.OrderID, p.To),
		Template: notify.TemplateOrderStatus,
		Data:     notify.OrderData{CustomerName: u.Name, OrderID: p.OrderID, Status: string(p.To)},
	})
}

// recipient returns the user to mail, or false when mail is off or the user
// is gone.
func (h *Handler) recipient(ctx context.Context, userID int64) (*users.User, bool, error) {
	if h.Mailer == nil {
		return nil, false, nil
	}
	u, err := h.Users.Get(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return u, u.Email != "", nil
}

func (h *Handler) send(e notify.Email) error {
	if err := h.Mailer.Send(e); err != nil {
		return fmt.Errorf("send %s to %s: %w", e.Template, e.To, err)
	}
	h.Log.Info("email sent", zap.String("to", e.To), zap.String("template", e.Template))
	return nil
}
