package web

import (
	"net/http"
	"strconv"

	"prodsales-backend/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type lineBody struct {
	Name           string          `json:"name" validate:"required"`
	Status         string          `json:"status" validate:"required,oneof=Running Maintenance Stopped"`
	CurrentStyle   string          `json:"current_style"`
	DailyCapacity  decimal.Decimal `json:"daily_capacity"`
	ExportCapacity decimal.Decimal `json:"export_capacity"`
	SubLines       []struct {
		Name           string          `json:"name" validate:"required"`
		CurrentStyle   string          `json:"current_style"`
		DailyCapacity  decimal.Decimal `json:"daily_capacity"`
		ExportCapacity decimal.Decimal `json:"export_capacity"`
	} `json:"sub_lines" validate:"dive"`
}

func (b lineBody) toRequest() app.LineRequest {
	req := app.LineRequest{
		Name:           b.Name,
		Status:         b.Status,
		CurrentStyle:   b.CurrentStyle,
		DailyCapacity:  b.DailyCapacity,
		ExportCapacity: b.ExportCapacity,
	}
	for _, sub := range b.SubLines {
		req.SubLines = append(req.SubLines, app.SubLineRequest{
			Name:           sub.Name,
			CurrentStyle:   sub.CurrentStyle,
			DailyCapacity:  sub.DailyCapacity,
			ExportCapacity: sub.ExportCapacity,
		})
	}
	return req
}

// idParam extracts the numeric {id} URL parameter.
func idParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id > 0
}

// listLines handles GET /api/lines.
func (h *Handler) listLines(w http.ResponseWriter, r *http.Request) {
	const cacheKey = "lines:list"
	if v, ok := h.cache.Get(cacheKey); ok {
		writeJSON(w, v)
		return
	}

	result, err := h.svc.ListLines(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cache.Set(cacheKey, result)
	writeJSON(w, result)
}

// getLine handles GET /api/lines/{id}.
func (h *Handler) getLine(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid line id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.GetLine(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createLine handles POST /api/lines.
func (h *Handler) createLine(w http.ResponseWriter, r *http.Request) {
	var body lineBody
	if !h.decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.CreateLine(r.Context(), body.toRequest())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cache.Invalidate("lines")
	writeJSON(w, result)
}

// updateLine handles PUT /api/lines/{id}. Sub-lines in the body replace the
// line's branches wholesale.
func (h *Handler) updateLine(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid line id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var body lineBody
	if !h.decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.UpdateLine(r.Context(), id, body.toRequest())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cache.Invalidate("lines")
	writeJSON(w, result)
}

// styleCapacity handles GET /api/lines/capacity/{styleNo}.
func (h *Handler) styleCapacity(w http.ResponseWriter, r *http.Request) {
	styleNo := chi.URLParam(r, "styleNo")
	cacheKey := "lines:capacity:" + styleNo
	if v, ok := h.cache.Get(cacheKey); ok {
		writeJSON(w, v)
		return
	}

	result, err := h.svc.StyleCapacity(r.Context(), styleNo)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cache.Set(cacheKey, result)
	writeJSON(w, result)
}

// pendingStockIn handles GET /api/lines/pending-stock-in.
func (h *Handler) pendingStockIn(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.PendingStockIn(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// confirmProduction handles POST /api/lines/confirm-production.
func (h *Handler) confirmProduction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		LineID        int    `json:"line_id" validate:"required,min=1"`
		SubLineID     int    `json:"sub_line_id" validate:"min=0"`
		WarehouseType string `json:"warehouse_type" validate:"required,oneof=general bonded"`
		PackageSpec   string `json:"package_spec" validate:"required,oneof=820kg 750kg 25kg"`
		Grade         string `json:"grade" validate:"required,oneof=A B"`
	}
	if !h.decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.ConfirmProduction(r.Context(), app.ConfirmProductionRequest{
		LineID:        body.LineID,
		SubLineID:     body.SubLineID,
		WarehouseType: body.WarehouseType,
		PackageSpec:   body.PackageSpec,
		Grade:         body.Grade,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// Confirmation moves capacity into stock, so both views are stale.
	h.cache.Invalidate("lines")
	h.cache.Invalidate("inventory")
	writeJSON(w, result)
}
