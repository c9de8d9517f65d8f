package web

import (
	"context"
	"net/http"
	"strconv"

	"prodsales-backend/internal/app"

	"github.com/shopspring/decimal"
)

// keyBody is the embedded tuple naming an inventory record in request bodies.
type keyBody struct {
	StyleNo       string `json:"style_no" validate:"required"`
	WarehouseType string `json:"warehouse_type" validate:"required,oneof=general bonded"`
	PackageSpec   string `json:"package_spec" validate:"required,oneof=820kg 750kg 25kg"`
	LineID        int    `json:"line_id" validate:"min=0"`
}

func (b keyBody) toInput() app.KeyInput {
	return app.KeyInput{
		StyleNo:       b.StyleNo,
		WarehouseType: b.WarehouseType,
		PackageSpec:   b.PackageSpec,
		LineID:        b.LineID,
	}
}

// listInventory handles GET /api/inventory. Filter via query params; results
// are served from the list cache between mutations.
func (h *Handler) listInventory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cacheKey := "inventory:list:" + r.URL.RawQuery
	if v, ok := h.cache.Get(cacheKey); ok {
		writeJSON(w, v)
		return
	}

	lineID, _ := strconv.Atoi(q.Get("line_id"))
	result, err := h.svc.ListInventory(r.Context(), app.InventoryFilterRequest{
		StyleNo:       q.Get("style_no"),
		WarehouseType: q.Get("warehouse_type"),
		PackageSpec:   q.Get("package_spec"),
		LineID:        lineID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cache.Set(cacheKey, result)
	writeJSON(w, result)
}

// stockIn handles POST /api/inventory/in.
func (h *Handler) stockIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		keyBody
		Quantity decimal.Decimal `json:"quantity" validate:"required"`
		Grade    string          `json:"grade" validate:"required,oneof=A B"`
		Source   string          `json:"source"`
		Note     string          `json:"note"`
	}
	if !h.decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.StockIn(r.Context(), app.StockMoveRequest{
		Key:      body.toInput(),
		Quantity: body.Quantity,
		Grade:    body.Grade,
		Source:   body.Source,
		Note:     body.Note,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cache.Invalidate("inventory")
	writeJSON(w, result)
}

// stockOut handles POST /api/inventory/out.
func (h *Handler) stockOut(w http.ResponseWriter, r *http.Request) {
	var body struct {
		keyBody
		Quantity decimal.Decimal `json:"quantity" validate:"required"`
		Grade    string          `json:"grade" validate:"required,oneof=A B"`
		Source   string          `json:"source"`
		Note     string          `json:"note"`
	}
	if !h.decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.StockOut(r.Context(), app.StockMoveRequest{
		Key:      body.toInput(),
		Quantity: body.Quantity,
		Grade:    body.Grade,
		Source:   body.Source,
		Note:     body.Note,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cache.Invalidate("inventory")
	writeJSON(w, result)
}

// adjustStock handles POST /api/inventory/adjust — a stocktake correction that
// overwrites both grades.
func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		keyBody
		GradeA decimal.Decimal `json:"grade_a"`
		GradeB decimal.Decimal `json:"grade_b"`
		Reason string          `json:"reason" validate:"required"`
		Actor  string          `json:"actor" validate:"required"`
	}
	if !h.decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.AdjustStock(r.Context(), app.AdjustRequest{
		Key:    body.toInput(),
		GradeA: body.GradeA,
		GradeB: body.GradeB,
		Reason: body.Reason,
		Actor:  body.Actor,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cache.Invalidate("inventory")
	writeJSON(w, result)
}

// lockStock handles POST /api/inventory/lock.
func (h *Handler) lockStock(w http.ResponseWriter, r *http.Request) {
	h.handleLockChange(w, r, h.svc.LockStock)
}

// unlockStock handles POST /api/inventory/unlock.
func (h *Handler) unlockStock(w http.ResponseWriter, r *http.Request) {
	h.handleLockChange(w, r, h.svc.UnlockStock)
}

func (h *Handler) handleLockChange(w http.ResponseWriter, r *http.Request,
	op func(context.Context, app.LockRequest) (*app.BalanceResult, error)) {
	var body struct {
		keyBody
		Quantity decimal.Decimal `json:"quantity" validate:"required"`
		Reason   string          `json:"reason"`
		Actor    string          `json:"actor" validate:"required"`
	}
	if !h.decodeJSON(w, r, &body) {
		return
	}

	result, err := op(r.Context(), app.LockRequest{
		Key:      body.toInput(),
		Quantity: body.Quantity,
		Reason:   body.Reason,
		Actor:    body.Actor,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cache.Invalidate("inventory")
	writeJSON(w, result)
}

// setSafetyStock handles PUT /api/inventory/safety-stock.
func (h *Handler) setSafetyStock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		keyBody
		Threshold decimal.Decimal `json:"threshold"`
	}
	if !h.decodeJSON(w, r, &body) {
		return
	}

	if err := h.svc.SetSafetyStock(r.Context(), app.SafetyStockRequest{
		Key:       body.toInput(),
		Threshold: body.Threshold,
	}); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cache.Invalidate("inventory")
	writeJSON(w, map[string]string{"status": "ok"})
}

// listAlerts handles GET /api/inventory/alerts. Alerts are derived, not
// stored, so this is always a fresh read apart from the short cache window.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	const cacheKey = "inventory:alerts"
	if v, ok := h.cache.Get(cacheKey); ok {
		writeJSON(w, v)
		return
	}

	result, err := h.svc.ListAlerts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cache.Set(cacheKey, result)
	writeJSON(w, result)
}

// listTransactions handles GET /api/inventory/transactions with ledger filters
// and pagination via query params.
func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lineID, _ := strconv.Atoi(q.Get("line_id"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	result, err := h.svc.ListTransactions(r.Context(), app.TransactionFilterRequest{
		StyleNo:       q.Get("style_no"),
		WarehouseType: q.Get("warehouse_type"),
		PackageSpec:   q.Get("package_spec"),
		LineID:        lineID,
		Type:          q.Get("type"),
		From:          q.Get("from"),
		To:            q.Get("to"),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// listAuditLogs handles GET /api/inventory/audit-logs.
func (h *Handler) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	result, err := h.svc.ListAuditLogs(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
