package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"resto-pos/internal/orders"
	"resto-pos/internal/postgres"
)

type OrdersHandler struct {
	Service *orders.Service
	Store   *orders.PgStore
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.listOrders)
}

// Transport shape: money leaves as plain numbers, decimals stay internal.
type orderResp struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Total         float64         `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	CashReceived  *float64        `json:"cash_received,omitempty"`
	ChangeGiven   *float64        `json:"change_given,omitempty"`
	CashAmount    *float64        `json:"cash_amount,omitempty"`
	CardAmount    *float64        `json:"card_amount,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []orderItemResp `json:"items"`
}

type orderItemResp struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

func toOrderResp(o *orders.Order) orderResp {
	resp := orderResp{
		ID:            o.ID,
		UserID:        o.UserID,
		Total:         num(o.Total),
		PaymentMethod: string(o.PaymentMethod),
		Status:        string(o.Status),
		CashReceived:  numPtr(o.CashReceived),
		ChangeGiven:   numPtr(o.ChangeGiven),
		CashAmount:    numPtr(o.CashAmount),
		CardAmount:    numPtr(o.CardAmount),
		CreatedAt:     o.CreatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResp{
			ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity, Price: num(it.Price),
		})
	}
	return resp
}

func num(d decimal.Decimal) float64 { f, _ := d.Float64(); return f }

func numPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := num(*d)
	return &f
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var in orders.PlaceOrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.UserID == "" {
		writeError(w, http.StatusBadRequest, "missing user_id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	o, err := h.Service.PlaceOrder(ctx, in)
	switch {
	case err == nil:
	case errors.Is(err, orders.ErrEmptyOrder),
		errors.Is(err, orders.ErrInvalidPayment),
		errors.Is(err, orders.ErrInvalidItem):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, postgres.ErrTxTimeout):
		// nothing committed; the caller may retry the whole placement
		writeError(w, http.StatusServiceUnavailable, "order placement timed out, retry")
		return
	default:
		writeError(w, http.StatusInternalServerError, "order placement failed")
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResp(o))
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Store.List(ctx, r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]orderResp, 0, len(list))
	for i := range list {
		out = append(out, toOrderResp(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}
