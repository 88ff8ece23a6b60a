package items

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"stockwatch/internal/audit"
	"stockwatch/internal/models"
	"stockwatch/internal/response"
	"stockwatch/internal/store"
	"stockwatch/internal/transfer"
	"stockwatch/internal/validation"
	"stockwatch/internal/websocket"
)

const (
	module   = "item"
	xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// maxImportBytes caps the size of an uploaded CSV.
	maxImportBytes = 10 << 20
)

// MonitorRunner runs one demand check on request.
type MonitorRunner interface {
	RunOnce(ctx context.Context) ([]models.Alert, error)
}

// Handler holds dependencies for item, report and alert handlers.
type Handler struct {
	Store   *store.Store
	Hub     *websocket.Hub
	Monitor MonitorRunner
}

// ListItems handles GET /api/v1/items.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	desc := strings.EqualFold(q.Get("order"), "desc")
	list, err := h.Store.SearchItems(r.Context(), q.Get("search"), q.Get("sort"), desc)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	response.JSONMeta(w, list, len(list))
}

// GetItem handles GET /api/v1/items/:name.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request, name string) {
	it, err := h.Store.GetItem(r.Context(), name)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, it)
}

// CreateItem handles POST /api/v1/items.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var it models.Item
	if err := response.DecodeBody(r, &it); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}
	it.Name = strings.TrimSpace(it.Name)

	ve := &validation.ValidationErrors{}
	validation.ValidateItem(ve, it.Name, it.Quantity, it.Price)
	validation.ValidateMaxLength(ve, "description", it.Description, validation.MaxStringLength)
	if ve.HasErrors() {
		response.Err(w, ve.Error(), 400)
		return
	}

	created, err := h.Store.AddItem(r.Context(), it)
	if err != nil {
		response.FromError(w, err)
		return
	}
	audit.Log(r.Context(), h.Store.DB, h.Hub, audit.ActionCreate, module, created.Name,
		fmt.Sprintf("Added %s (qty %d)", created.Name, created.Quantity))
	response.JSONStatus(w, http.StatusCreated, created)
}

// UpdateItem handles PUT /api/v1/items/:name. A lower quantity is recorded
// as usage.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request, name string) {
	var u models.ItemUpdate
	if err := response.DecodeBody(r, &u); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		u.Name = name
	}

	ve := &validation.ValidationErrors{}
	validation.ValidateItem(ve, u.Name, u.Quantity, u.Price)
	validation.ValidateMaxLength(ve, "description", u.Description, validation.MaxStringLength)
	if ve.HasErrors() {
		response.Err(w, ve.Error(), 400)
		return
	}

	updated, usage, err := h.Store.EditItem(r.Context(), name, u)
	if err != nil {
		response.FromError(w, err)
		return
	}
	summary := fmt.Sprintf("Edited %s (qty %d)", name, updated.Quantity)
	if updated.Name != name {
		summary = fmt.Sprintf("Renamed %s to %s (qty %d)", name, updated.Name, updated.Quantity)
	}
	if usage != nil {
		summary += fmt.Sprintf(", used %d", usage.QuantitySold)
	}
	audit.Log(r.Context(), h.Store.DB, h.Hub, audit.ActionUpdate, module, updated.Name, summary)
	response.JSON(w, map[string]interface{}{"item": updated, "usage": usage})
}

// DeleteItem handles DELETE /api/v1/items/:name.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request, name string) {
	if err := h.Store.DeleteItem(r.Context(), name); err != nil {
		response.FromError(w, err)
		return
	}
	audit.Log(r.Context(), h.Store.DB, h.Hub, audit.ActionDelete, module, name, "Deleted "+name)
	response.JSON(w, map[string]string{"status": "deleted", "name": name})
}

// ExportItems handles GET /api/v1/items/export?format=csv|xlsx.
func (h *Handler) ExportItems(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListItems(r.Context(), "name", false)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=inventory.csv")
		err = transfer.WriteCSV(w, list)
	case "xlsx":
		w.Header().Set("Content-Type", xlsxType)
		w.Header().Set("Content-Disposition", "attachment; filename=inventory.xlsx")
		err = transfer.WriteXLSX(w, list)
	default:
		response.Err(w, "format must be csv or xlsx", 400)
		return
	}
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	audit.Log(r.Context(), h.Store.DB, h.Hub, audit.ActionExport, module, "*",
		fmt.Sprintf("Exported %d items", len(list)))
}

// ImportItems handles POST /api/v1/items/import. The CSV is read from a
// multipart "file" field or, failing that, the raw request body.
func (h *Handler) ImportItems(w http.ResponseWriter, r *http.Request) {
	var src io.Reader = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			response.Err(w, "invalid multipart form", 400)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			response.Err(w, "file is required", 400)
			return
		}
		defer file.Close()
		src = file
	}

	parsed, skipped, err := transfer.ReadCSV(src)
	if err != nil {
		response.Err(w, err.Error(), 400)
		return
	}
	n, err := h.Store.UpsertItems(r.Context(), parsed)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	if skipped == nil {
		skipped = []transfer.RowError{}
	}
	audit.Log(r.Context(), h.Store.DB, h.Hub, audit.ActionImport, module, "*",
		fmt.Sprintf("Imported %d items, skipped %d rows", n, len(skipped)))
	response.JSON(w, map[string]interface{}{"imported": n, "skipped": skipped})
}

// Chart handles GET /api/v1/chart?format=json|xlsx.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	bars, err := h.Store.ChartData(r.Context())
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	switch r.URL.Query().Get("format") {
	case "", "json":
		response.JSON(w, bars)
	case "xlsx":
		w.Header().Set("Content-Type", xlsxType)
		w.Header().Set("Content-Disposition", "attachment; filename=inventory-chart.xlsx")
		if err := transfer.WriteChartXLSX(w, bars); err != nil {
			response.Err(w, err.Error(), 500)
		}
	default:
		response.Err(w, "format must be json or xlsx", 400)
	}
}

// UsageReport handles GET /api/v1/reports/usage?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *Handler) UsageReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ve := &validation.ValidationErrors{}
	start := validation.ValidateDate(ve, "start", q.Get("start"))
	end := validation.ValidateDate(ve, "end", q.Get("end"))
	if !ve.HasErrors() && end.Before(start) {
		ve.Add("end", "must not be before start")
	}
	if ve.HasErrors() {
		response.Err(w, ve.Error(), 400)
		return
	}
	totals, err := h.Store.UsageReport(r.Context(), start, end)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	response.JSONMeta(w, totals, len(totals))
}

// GetSettings handles GET /api/v1/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.Store.Settings(r.Context())
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	response.JSON(w, st)
}

// UpdateSettings handles PUT /api/v1/settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var st models.Settings
	if err := response.DecodeBody(r, &st); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}
	ve := &validation.ValidationErrors{}
	validation.ValidateIntRange(ve, "min_qty_threshold", st.MinQtyThreshold, 0, validation.MaxMinQty)
	validation.ValidateIntRange(ve, "window_size", st.WindowSize, 1, validation.MaxWindowSize)
	if ve.HasErrors() {
		response.Err(w, ve.Error(), 400)
		return
	}
	if err := h.Store.SaveSettings(r.Context(), st); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	audit.Log(r.Context(), h.Store.DB, h.Hub, audit.ActionConfig, "settings", "monitor",
		fmt.Sprintf("min_qty_threshold=%d window_size=%d", st.MinQtyThreshold, st.WindowSize))
	response.JSON(w, st)
}

// ListNotifications handles GET /api/v1/notifications?unread=true&limit=N.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	list, err := h.Store.ListNotifications(r.Context(), q.Get("unread") == "true", limit)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	response.JSONMeta(w, list, len(list))
}

// MarkNotificationRead handles POST /api/v1/notifications/:id/read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.Atoi(idStr)
	if err != nil {
		response.Err(w, "invalid notification id", 400)
		return
	}
	if err := h.Store.MarkNotificationRead(r.Context(), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, map[string]interface{}{"id": id, "status": "read"})
}

// CheckResult is the body of a manual monitor run. Errors lists per-item
// failures that did not stop the check.
type CheckResult struct {
	Alerts []models.Alert `json:"alerts"`
	Errors []string       `json:"errors"`
}

// RunMonitor handles POST /api/v1/monitor/check. A check that produced
// alerts answers 200 even when some items failed; only a check that could
// not load its data is a 500.
func (h *Handler) RunMonitor(w http.ResponseWriter, r *http.Request) {
	if h.Monitor == nil {
		response.Err(w, "monitor disabled", http.StatusServiceUnavailable)
		return
	}
	alerts, err := h.Monitor.RunOnce(r.Context())
	if err != nil && alerts == nil {
		response.Err(w, err.Error(), 500)
		return
	}
	res := CheckResult{Alerts: alerts, Errors: splitErrors(err)}
	if res.Alerts == nil {
		res.Alerts = []models.Alert{}
	}
	response.JSON(w, res)
}

// splitErrors flattens an errors.Join result into its messages.
func splitErrors(err error) []string {
	if err == nil {
		return []string{}
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, splitErrors(e)...)
		}
		return out
	}
	return []string{err.Error()}
}

// AuditLog handles GET /api/v1/audit.
func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := audit.Recent(r.Context(), h.Store.DB, limit)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	response.JSONMeta(w, entries, len(entries))
}
