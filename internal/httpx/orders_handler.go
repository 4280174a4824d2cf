package httpx

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-bookstore/internal/apperr"
	kafkax "github.com/ariefcatur/go-bookstore/internal/kafka"
	"github.com/ariefcatur/go-bookstore/internal/orders"
)

type OrderService interface {
	Create(ctx context.Context, in orders.CreateInput) (*orders.Order, error)
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	List(ctx context.Context, f orders.ListFilter) (orders.Page, error)
	UpdateStatus(ctx context.Context, orderID string, to orders.Status) (orders.StatusChange, error)
}

type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

type IdempotencyStore interface {
	LookupOrder(ctx context.Context, idemKey string) (string, bool, error)
	RememberOrder(ctx context.Context, idemKey, orderCode string) error
}

type ProfileInvalidator interface {
	Invalidate(ctx context.Context, userID int64)
}

type OrdersHandler struct {
	Repo     OrderService
	Producer Publisher
	Idem     IdempotencyStore
	Profiles ProfileInvalidator
	Service  string
	Log      *zap.Logger
}

type CreateOrderResp struct {
	Order      *orders.Order `json:"order"`
	Idempotent bool          `json:"idempotent"`
}

func (h *OrdersHandler) Register(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{orderID}", h.getOrder)
	r.With(admin).Get("/orders", h.listOrders)
	r.With(admin).Patch("/orders/{orderID}/status", h.updateStatus)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.CreateInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ctx := r.Context()

	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" {
		code, ok, err := h.Idem.LookupOrder(ctx, idemKey)
		if err != nil {
			h.Log.Warn("idempotency lookup", zap.Error(err))
		}
		if ok {
			o, err := h.Repo.Get(ctx, code)
			if err == nil {
				writeJSON(w, http.StatusOK, CreateOrderResp{Order: o, Idempotent: true})
				return
			}
			h.Log.Warn("idempotent replay lookup", zap.String("order_id", code), zap.Error(err))
		}
	}

	o, err := h.Repo.Create(ctx, req)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	if idemKey != "" {
		if err := h.Idem.RememberOrder(ctx, idemKey, o.OrderID); err != nil {
			h.Log.Warn("idempotency store", zap.Error(err))
		}
	}
	if o.UserID != nil {
		h.Profiles.Invalidate(ctx, *o.UserID)
	}
	h.publish(r, orders.TopicOrderCreated, orders.EventOrderCreated, o.OrderID, orders.CreatedPayload(o))

	writeJSON(w, http.StatusCreated, CreateOrderResp{Order: o})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Repo.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": o})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	var f orders.ListFilter
	q := r.URL.Query()
	if s := q.Get("user_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, r, h.Log, apperr.Validation("invalid user_id"))
			return
		}
		f.UserID = &id
	}
	if s := q.Get("status"); s != "" {
		st, err := orders.ParseStatus(s)
		if err != nil {
			writeError(w, r, h.Log, apperr.Validation(err.Error()))
			return
		}
		f.Status = &st
	}
	var err error
	if f.Limit, err = intQuery(r, "limit", 50); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if f.Offset, err = intQuery(r, "offset", 0); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	page, err := h.Repo.List(r.Context(), f)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type updateStatusReq struct {
	Status orders.Status `json:"status"`
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ctx := r.Context()
	ch, err := h.Repo.UpdateStatus(ctx, chi.URLParam(r, "orderID"), req.Status)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if ch.UserID != nil {
		h.Profiles.Invalidate(ctx, *ch.UserID)
	}
	h.publish(r, orders.TopicOrderStatusChanged, orders.EventOrderStatusChanged, ch.OrderID, orders.OrderStatusChangedPayload{
		OrderID: ch.OrderID, UserID: ch.UserID, From: ch.From, To: ch.To,
	})

	o, err := h.Repo.Get(ctx, ch.OrderID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": o})
}

func (h *OrdersHandler) publish(r *http.Request, topic, eventType, orderID string, payload any) {
	ev, err := orders.NewEnvelope(eventType, h.Service, r.Header.Get("X-Request-Id"), orderID, payload)
	if err != nil {
		h.Log.Error("build event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	h.Producer.Publish(topic, orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
