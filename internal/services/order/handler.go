package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pos-system/internal/logger"
	"pos-system/internal/models"
)

// Handler exposes the order commands over HTTP. Authentication and role
// resolution happen upstream; the handler only parses plain values.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates an order handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// Routes mounts the order endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/orders", h.create)
	r.Get("/orders", h.list)
	r.Get("/orders/{id}", h.get)
	r.Post("/orders/{id}/send", h.send)
	r.Post("/orders/{id}/items", h.addItem)
	r.Put("/orders/{id}/items/{index}", h.updateItem)
	r.Delete("/orders/{id}/items/{index}", h.removeItem)
	r.Put("/orders/{id}/discounts", h.selectDiscounts)
	r.Put("/orders/{id}/tip", h.setTip)
	r.Post("/orders/{id}/pay", h.pay)
	r.Post("/orders/{id}/cancel", h.cancel)
	r.Put("/orders/{id}/status", h.setStatus)
}

type createOrderPayload struct {
	OrderType       string `json:"order_type"`
	PartySize       int    `json:"party_size,omitempty"`
	DeliveryAddress string `json:"delivery_address,omitempty"`
	TableID         string `json:"table_id,omitempty"`
	CustomerName    string `json:"customer_name,omitempty"`
	CustomerPhone   string `json:"customer_phone,omitempty"`
	CustomerAddress string `json:"customer_address,omitempty"`
	Items           []struct {
		MenuItemID          string   `json:"menu_item_id"`
		Quantity            int      `json:"quantity"`
		ModifierIDs         []string `json:"modifier_ids,omitempty"`
		SpecialInstructions string   `json:"special_instructions,omitempty"`
	} `json:"items"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var payload createOrderPayload
	if !h.decode(w, r, requestID, &payload) {
		return
	}

	req := &CreateRequest{
		Type:            models.OrderType(payload.OrderType),
		PartySize:       payload.PartySize,
		DeliveryAddress: payload.DeliveryAddress,
		TableID:         payload.TableID,
		CustomerName:    payload.CustomerName,
		CustomerPhone:   payload.CustomerPhone,
		CustomerAddress: payload.CustomerAddress,
	}
	for _, item := range payload.Items {
		req.Items = append(req.Items, NewItemRequest{
			MenuItemID:          item.MenuItemID,
			Quantity:            item.Quantity,
			ModifierIDs:         item.ModifierIDs,
			SpecialInstructions: item.SpecialInstructions,
		})
	}

	o, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	orders, err := h.service.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	o, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	o, err := h.service.SendToKitchen(r.Context(), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var payload struct {
		MenuItemID          string   `json:"menu_item_id"`
		Quantity            int      `json:"quantity"`
		ModifierIDs         []string `json:"modifier_ids,omitempty"`
		SpecialInstructions string   `json:"special_instructions,omitempty"`
	}
	if !h.decode(w, r, requestID, &payload) {
		return
	}

	o, err := h.service.AddItem(r.Context(), chi.URLParam(r, "id"), NewItemRequest{
		MenuItemID:          payload.MenuItemID,
		Quantity:            payload.Quantity,
		ModifierIDs:         payload.ModifierIDs,
		SpecialInstructions: payload.SpecialInstructions,
	})
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "item index must be an integer", requestID)
		return
	}

	var payload struct {
		Quantity            int    `json:"quantity"`
		SpecialInstructions string `json:"special_instructions,omitempty"`
	}
	if !h.decode(w, r, requestID, &payload) {
		return
	}

	o, err := h.service.UpdateItem(r.Context(), chi.URLParam(r, "id"), index,
		payload.Quantity, payload.SpecialInstructions)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "item index must be an integer", requestID)
		return
	}

	var payload struct {
		Reason string `json:"reason"`
		Note   string `json:"note,omitempty"`
	}
	if !h.decode(w, r, requestID, &payload) {
		return
	}

	o, err := h.service.RemoveItem(r.Context(), chi.URLParam(r, "id"), index,
		models.RemovalReason(payload.Reason), payload.Note, actor(r))
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}

func (h *Handler) selectDiscounts(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var payload struct {
		DiscountIDs []string `json:"discount_ids"`
	}
	if !h.decode(w, r, requestID, &payload) {
		return
	}

	o, err := h.service.SelectDiscounts(r.Context(), chi.URLParam(r, "id"), payload.DiscountIDs)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}

func (h *Handler) setTip(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var payload struct {
		Tip            float64 `json:"tip"`
		GratuityRuleID string  `json:"gratuity_rule_id,omitempty"`
	}
	if !h.decode(w, r, requestID, &payload) {
		return
	}

	o, err := h.service.SetTip(r.Context(), chi.URLParam(r, "id"), payload.Tip, payload.GratuityRuleID)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var payload struct {
		Method       string  `json:"payment_method"`
		CashReceived float64 `json:"cash_received,omitempty"`
	}
	if !h.decode(w, r, requestID, &payload) {
		return
	}

	o, err := h.service.Pay(r.Context(), chi.URLParam(r, "id"), &PayRequest{
		Method:       models.PaymentMethod(payload.Method),
		CashReceived: payload.CashReceived,
		Actor:        actor(r),
	})
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var payload struct {
		Reason string `json:"reason"`
		Note   string `json:"note,omitempty"`
	}
	if !h.decode(w, r, requestID, &payload) {
		return
	}

	o, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"), payload.Reason, payload.Note, actor(r))
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var payload struct {
		Status string `json:"status"`
	}
	if !h.decode(w, r, requestID, &payload) {
		return
	}

	o, err := h.service.SetStatus(r.Context(), chi.URLParam(r, "id"), models.OrderStatus(payload.Status), actor(r))
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}

// actor returns the acting user resolved by the upstream auth layer.
func actor(r *http.Request) string {
	if user := r.Header.Get("X-Acting-User"); user != "" {
		return user
	}
	return "pos-terminal"
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, requestID string, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		h.logger.Error("validation_failed", "Failed to parse request body", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", "", err, nil)
	}
}

// writeError maps domain error kinds onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, requestID string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, models.ErrPreconditionFailed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrConcurrencyConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request_failed", "Unhandled command error", requestID, err, nil)
		h.writeErrorResponse(w, status, "Internal server error", requestID)
		return
	}
	h.writeErrorResponse(w, status, err.Error(), requestID)
}

func (h *Handler) writeErrorResponse(w http.ResponseWriter, statusCode int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	})
}
