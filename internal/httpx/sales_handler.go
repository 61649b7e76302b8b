package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"resto-pos/internal/redisx"
	"resto-pos/internal/sales"
)

type SalesHandler struct {
	Repo  *sales.Repo
	Redis *redis.Client
}

func (h *SalesHandler) Register(r *chi.Mux) {
	r.Get("/sales/history", h.history)
}

type salesResp struct {
	Orders  []salesOrderResp `json:"orders"`
	Summary summaryResp      `json:"summary"`
}

// Money leaves as plain numbers, same as the orders handler.
type salesOrderResp struct {
	ID            string          `json:"id"`
	Total         float64         `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	CashReceived  *float64        `json:"cash_received,omitempty"`
	ChangeGiven   *float64        `json:"change_given,omitempty"`
	CashAmount    *float64        `json:"cash_amount,omitempty"`
	CardAmount    *float64        `json:"card_amount,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	WaiterName    string          `json:"waiter_name"`
	Items         []salesLineResp `json:"items"`
}

type salesLineResp struct {
	ID          string  `json:"id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

func toSalesOrderResp(r *sales.OrderRow) salesOrderResp {
	out := salesOrderResp{
		ID:            r.ID,
		Total:         num(r.Total),
		PaymentMethod: string(r.PaymentMethod),
		CashReceived:  numPtr(r.CashReceived),
		ChangeGiven:   numPtr(r.ChangeGiven),
		CashAmount:    numPtr(r.CashAmount),
		CardAmount:    numPtr(r.CardAmount),
		CreatedAt:     r.CreatedAt,
		WaiterName:    r.WaiterName,
		Items:         []salesLineResp{},
	}
	for _, it := range r.Items {
		out.Items = append(out.Items, salesLineResp{
			ID: it.ID, ProductName: it.ProductName, Quantity: it.Quantity, Price: num(it.Price),
		})
	}
	return out
}

type summaryResp struct {
	Total float64 `json:"total"`
	Cash  float64 `json:"cash"`
	Card  float64 `json:"card"`
	Count int     `json:"count"`
}

func (h *SalesHandler) history(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Single-day views are the common dashboard query; cache those.
	sameDay := from.Equal(to)
	key := fmt.Sprintf(redisx.KeySalesDay, from.Format("2006-01-02"))
	if sameDay && h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	rows, err := h.Repo.History(ctx, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sum := sales.Summarize(rows)
	resp := salesResp{
		Orders: make([]salesOrderResp, 0, len(rows)),
		Summary: summaryResp{
			Total: num(sum.Total),
			Cash:  num(sum.Cash),
			Card:  num(sum.Card),
			Count: sum.Count,
		},
	}
	for i := range rows {
		resp.Orders = append(resp.Orders, toSalesOrderResp(&rows[i]))
	}

	b, err := json.Marshal(resp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sameDay && h.Redis != nil {
		_ = h.Redis.Set(ctx, key, b, redisx.TTLSalesCache).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", s)
}
