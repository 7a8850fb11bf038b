package order

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

// Handler exposes the order service over HTTP
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new HTTP handler for the order service
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// Register mounts all routes on the given mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders", h.createOrder)
	mux.HandleFunc("GET /orders", h.listOrders)
	mux.HandleFunc("GET /orders/{id}", h.getOrder)
	mux.HandleFunc("PUT /orders/{id}", h.updateOrderDetails)
	mux.HandleFunc("PUT /orders/{id}/items", h.replaceItems)
	mux.HandleFunc("DELETE /orders/{id}", h.deleteOrder)
	mux.HandleFunc("POST /orders/{id}/confirm", h.confirmOrder)
	mux.HandleFunc("POST /orders/{id}/send-to-kitchen", h.sendToKitchen)
	mux.HandleFunc("POST /orders/{id}/status", h.updateStatus)
	mux.HandleFunc("GET /orders/{id}/qr", h.qrCode)
	mux.HandleFunc("GET /tables", h.tablesOverview)
	mux.HandleFunc("GET /tables/config", h.tableConfiguration)
	mux.HandleFunc("GET /health", h.health)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, requestID, models.WrapError(models.KindValidation, "invalid request body", err))
		return
	}

	resp, err := h.service.CreateOrder(r.Context(), &req, requestID)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var statuses []string
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, s)
			}
		}
	}

	orders, err := h.service.ListOrders(r.Context(), statuses)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	id, err := h.orderID(r)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) updateOrderDetails(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	id, err := h.orderID(r)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}

	var req models.UpdateOrderDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, requestID, models.WrapError(models.KindValidation, "invalid request body", err))
		return
	}

	order, err := h.service.UpdateOrderDetails(r.Context(), id, &req, requestID)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

// replaceItems swaps the order's item list and reprices it, leaving
// every other attribute untouched
func (h *Handler) replaceItems(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	id, err := h.orderID(r)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}

	var req struct {
		Items []models.LineRequest `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, requestID, models.WrapError(models.KindValidation, "invalid request body", err))
		return
	}
	if req.Items == nil {
		h.writeError(w, requestID, models.NewError(models.KindValidation, "items is required"))
		return
	}

	order, err := h.service.UpdateOrderDetails(r.Context(), id, &models.UpdateOrderDetailsRequest{Items: req.Items}, requestID)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	id, err := h.orderID(r)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}

	if err := h.service.DeleteOrder(r.Context(), id, requestID); err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
}

// confirmOrder optionally applies a details edit, then moves the order
// to confirmed. The edit and the transition are separate transactions;
// a failed transition leaves the edit applied.
func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	id, err := h.orderID(r)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}

	var req models.UpdateOrderDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, requestID, models.WrapError(models.KindValidation, "invalid request body", err))
		return
	}
	if req.Items != nil || req.Note != nil || req.TableNumber != nil || req.CustomerName != nil || req.NeedsAssistance != nil {
		if _, err := h.service.UpdateOrderDetails(r.Context(), id, &req, requestID); err != nil {
			h.writeError(w, requestID, err)
			return
		}
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), id, string(models.StatusConfirmed), requestID)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) sendToKitchen(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	id, err := h.orderID(r)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), id, string(models.StatusSentToKitchen), requestID)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	id, err := h.orderID(r)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, requestID, models.WrapError(models.KindValidation, "invalid request body", err))
		return
	}

	target, err := models.ParseStatus(req.Status)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}

	if target == models.StatusServed {
		qrData, err := h.service.MarkServed(r.Context(), id, requestID)
		if err != nil {
			h.writeError(w, requestID, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"order_id":     id,
			"status":       string(models.StatusServed),
			"qr_code_data": qrData,
		})
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), id, req.Status, requestID)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) qrCode(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	id, err := h.orderID(r)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}

	data, err := h.service.QRCodeData(r.Context(), id)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"order_id":     id,
		"qr_code_data": data,
	})
}

func (h *Handler) tablesOverview(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	overview, err := h.service.TablesOverview(r.Context())
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	if overview == nil {
		overview = []models.TableOverview{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"tables": overview})
}

func (h *Handler) tableConfiguration(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	roster, err := h.service.TableConfiguration(r.Context())
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	if roster == nil {
		roster = []models.Table{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"tables": roster})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if !h.service.HealthCheck(r.Context()) {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "unhealthy"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"status": "healthy"})
}

func (h *Handler) orderID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, models.NewError(models.KindValidation, "invalid order id")
	}
	return id, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("response_write_failed", "Failed to write response", "", err, nil)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, requestID string, err error) {
	kind := models.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case models.KindValidation:
		status = http.StatusBadRequest
	case models.KindConflict, models.KindNoCapacity:
		status = http.StatusConflict
	case models.KindNotFound:
		status = http.StatusNotFound
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		// Internal detail stays in the logs.
		h.logger.Error("request_failed", message, requestID, err, nil)
		message = "internal server error"
	}

	h.writeJSON(w, status, map[string]interface{}{
		"error":      message,
		"kind":       string(kind),
		"request_id": requestID,
	})
}
