package table

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pos-system/internal/logger"
	"pos-system/internal/models"
)

// Handler exposes the table occupancy operations over HTTP.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a table handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// Routes mounts the table endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/tables", h.list)
	r.Get("/tables/{id}", h.get)
	r.Put("/tables/{id}/status", h.setStatus)
	r.Post("/tables/{id}/assign", h.assign)
	r.Post("/tables/move", h.move)
	r.Post("/tables/merge", h.merge)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	tables, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tables)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	table, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, table)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var payload struct {
		Status string `json:"status"`
	}
	if !h.decode(w, r, requestID, &payload) {
		return
	}

	table, err := h.service.SetStatus(r.Context(), chi.URLParam(r, "id"), models.TableStatus(payload.Status))
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, table)
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var payload struct {
		OrderID string `json:"order_id"`
	}
	if !h.decode(w, r, requestID, &payload) {
		return
	}

	o, err := h.service.Assign(r.Context(), payload.OrderID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}

func (h *Handler) move(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var payload struct {
		FromTableID string `json:"from_table_id"`
		ToTableID   string `json:"to_table_id"`
	}
	if !h.decode(w, r, requestID, &payload) {
		return
	}

	o, err := h.service.Move(r.Context(), payload.FromTableID, payload.ToTableID)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}

func (h *Handler) merge(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var payload struct {
		SourceTableID      string `json:"source_table_id"`
		DestinationTableID string `json:"destination_table_id"`
	}
	if !h.decode(w, r, requestID, &payload) {
		return
	}

	o, err := h.service.Merge(r.Context(), payload.SourceTableID, payload.DestinationTableID)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, o)
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
