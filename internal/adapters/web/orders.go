package web

import (
	"net/http"

	"prodsales-backend/internal/app"

	"github.com/shopspring/decimal"
)

// listOrders handles GET /api/orders with an optional ?status= filter.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	cacheKey := "orders:list:" + status
	if v, ok := h.cache.Get(cacheKey); ok {
		writeJSON(w, v)
		return
	}

	result, err := h.svc.ListOrders(r.Context(), status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cache.Set(cacheKey, result)
	writeJSON(w, result)
}

// getOrder handles GET /api/orders/{id}.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid order id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createOrder handles POST /api/orders.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderNo   string          `json:"order_no" validate:"required"`
		Customer  string          `json:"customer"`
		StyleNo   string          `json:"style_no" validate:"required"`
		TotalTons decimal.Decimal `json:"total_tons" validate:"required"`
		TradeType string          `json:"trade_type" validate:"required,oneof=general bonded"`
		LineIDs   string          `json:"line_ids"`
	}
	if !h.decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), app.CreateOrderRequest{
		OrderNo:   body.OrderNo,
		Customer:  body.Customer,
		StyleNo:   body.StyleNo,
		TotalTons: body.TotalTons,
		TradeType: body.TradeType,
		LineIDs:   body.LineIDs,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cache.Invalidate("orders")
	writeJSON(w, result)
}

// updateOrderStatus handles PATCH /api/orders/{id}/status. A transition
// declined by the fulfillment gate still returns 200; the decision in the
// body says whether it was applied and why not.
func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid order id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var body struct {
		Status string `json:"status" validate:"required"`
	}
	if !h.decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.UpdateOrderStatus(r.Context(), id, body.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// Shipment deducts inventory; cheaper to always drop both prefixes than
	// to inspect which transition ran.
	h.cache.Invalidate("orders")
	h.cache.Invalidate("inventory")
	writeJSON(w, result)
}

// setAllocation handles PUT /api/orders/{id}/allocation.
func (h *Handler) setAllocation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid order id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var body struct {
		General decimal.Decimal `json:"general"`
		Bonded  decimal.Decimal `json:"bonded"`
	}
	if !h.decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.SetAllocation(r.Context(), app.AllocationRequest{
		OrderID: id,
		General: body.General,
		Bonded:  body.Bonded,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cache.Invalidate("orders")
	writeJSON(w, result)
}

// clearAllocation handles DELETE /api/orders/{id}/allocation.
func (h *Handler) clearAllocation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid order id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.ClearAllocation(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cache.Invalidate("orders")
	writeJSON(w, result)
}

// getFulfillment handles GET /api/orders/{id}/fulfillment.
func (h *Handler) getFulfillment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid order id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.GetFulfillment(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
