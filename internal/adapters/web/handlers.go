package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"prodsales-backend/internal/app"
	"prodsales-backend/internal/cache"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler holds the ApplicationService, the chi router, and the list cache.
type Handler struct {
	svc      app.ApplicationService
	router   chi.Router
	cache    *cache.Cache
	validate *validator.Validate
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string) http.Handler {
	h := &Handler{
		svc:      svc,
		cache:    cache.New(256, 30*time.Second),
		validate: validator.New(),
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/api/health", h.health)

	// ── Inventory ─────────────────────────────────────────────────────────────
	r.Get("/api/inventory", h.listInventory)
	r.Put("/api/inventory/safety-stock", h.setSafetyStock)
	r.Post("/api/inventory/in", h.stockIn)
	r.Post("/api/inventory/out", h.stockOut)
	r.Post("/api/inventory/adjust", h.adjustStock)
	r.Post("/api/inventory/lock", h.lockStock)
	r.Post("/api/inventory/unlock", h.unlockStock)
	r.Get("/api/inventory/alerts", h.listAlerts)
	r.Get("/api/inventory/transactions", h.listTransactions)
	r.Get("/api/inventory/audit-logs", h.listAuditLogs)

	// ── Production lines ──────────────────────────────────────────────────────
	r.Get("/api/lines", h.listLines)
	r.Post("/api/lines", h.createLine)
	r.Get("/api/lines/pending-stock-in", h.pendingStockIn)
	r.Post("/api/lines/confirm-production", h.confirmProduction)
	r.Get("/api/lines/capacity/{styleNo}", h.styleCapacity)
	r.Get("/api/lines/{id}", h.getLine)
	r.Put("/api/lines/{id}", h.updateLine)

	// ── Orders ────────────────────────────────────────────────────────────────
	r.Get("/api/orders", h.listOrders)
	r.Post("/api/orders", h.createOrder)
	r.Get("/api/orders/{id}", h.getOrder)
	r.Patch("/api/orders/{id}/status", h.updateOrderStatus)
	r.Put("/api/orders/{id}/allocation", h.setAllocation)
	r.Delete("/api/orders/{id}/allocation", h.clearAllocation)
	r.Get("/api/orders/{id}/fulfillment", h.getFulfillment)

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// decodeJSON decodes the request body into v, runs validator tags, and returns
// false after writing the error response on failure. Returns HTTP 413 when the
// body exceeds the RequestBodyLimit; 400 for malformed JSON; 422 when a
// validation tag fails.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, r, "invalid request: "+err.Error(), "VALIDATION_FAILED", http.StatusUnprocessableEntity)
		return false
	}
	return true
}
