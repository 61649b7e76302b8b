package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"resto-pos/internal/catalog"
	"resto-pos/internal/redisx"
)

type ProductsHandler struct {
	Repo  *catalog.Repo
	Redis *redis.Client
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)
}

type productResp struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       float64         `json:"price"`
	Stock       int             `json:"stock"`
	MinStock    int             `json:"min_stock"`
	IsActive    bool            `json:"is_active"`
	IsCombo     bool            `json:"is_combo"`
	CategoryID  string          `json:"category_id"`
	Category    string          `json:"category,omitempty"`
	ComboItems  []componentResp `json:"combo_items,omitempty"`
	// Derived sellable quantity; for combos this is the display-time
	// availability, not the stored nominal 0.
	EffectiveStock int       `json:"effective_stock"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type componentResp struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Name      string `json:"name,omitempty"`
	Stock     int    `json:"stock"`
	IsActive  bool   `json:"is_active"`
}

func toProductResp(p *catalog.Product) productResp {
	out := productResp{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          num(p.Price),
		Stock:          p.Stock,
		MinStock:       p.MinStock,
		IsActive:       p.IsActive,
		IsCombo:        p.IsCombo,
		CategoryID:     p.CategoryID,
		Category:       p.Category,
		EffectiveStock: catalog.EffectiveStock(p),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	for _, c := range p.Components {
		out.ComboItems = append(out.ComboItems, componentResp{
			ProductID: c.ProductID, Quantity: c.Quantity, Name: c.Name,
			Stock: c.Stock, IsActive: c.IsActive,
		})
	}
	return out
}

func (h *ProductsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	activeOnly := r.URL.Query().Get("active") == "true"
	key := redisx.KeyProductList
	if activeOnly {
		key = redisx.KeyProductListActive
	}

	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	list, err := h.Repo.List(ctx, activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]productResp, 0, len(list))
	for i := range list {
		out = append(out, toProductResp(&list[i]))
	}
	b, err := json.Marshal(out)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, key, b, redisx.TTLProductCache).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *ProductsHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Name == "" || in.CategoryID == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Repo.Create(ctx, in)
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}
	h.dropCaches(ctx)
	writeJSON(w, http.StatusCreated, toProductResp(p))
}

func (h *ProductsHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in catalog.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Repo.Update(ctx, id, in)
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}
	h.dropCaches(ctx)
	writeJSON(w, http.StatusOK, toProductResp(p))
}

func (h *ProductsHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeCatalogError(w, err)
		return
	}
	h.dropCaches(ctx)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductsHandler) writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrNestedCombo):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *ProductsHandler) dropCaches(ctx context.Context) {
	if h.Redis == nil {
		return
	}
	_ = h.Redis.Del(ctx, redisx.KeyProductList, redisx.KeyProductListActive).Err()
}
