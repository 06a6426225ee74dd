package handlers

import (
	"net/http"

	"bus-pricing/internal/logger"
	"bus-pricing/internal/models"
)

const terminalsPath = "/api/bus-terminals/"

// TerminalHandler обрабатывает реестр терминалов
type TerminalHandler struct {
	terminals TerminalStore
	validator *RequestValidator
	producer  EventProducer
	metrics   EventMetrics
	log       *logger.Logger
}

// NewTerminalHandler создаёт обработчик; producer и metrics могут быть nil
func NewTerminalHandler(terminals TerminalStore, validator *RequestValidator, producer EventProducer, metrics EventMetrics, log *logger.Logger) *TerminalHandler {
	return &TerminalHandler{
		terminals: terminals,
		validator: validator,
		producer:  producer,
		metrics:   metrics,
		log:       log,
	}
}

// CreateTerminal POST /api/bus-terminals
func (h *TerminalHandler) CreateTerminal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, r, http.StatusMethodNotAllowed, errMethodNotAllowed, nil)
		return
	}

	var req models.CreateTerminalRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, r, http.StatusBadRequest, errInvalidBody, nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		writeServiceError(w, r, h.log, err, "Failed to validate terminal request")
		return
	}

	terminal, err := h.terminals.Create(r.Context(), req.TerminalName, req.BasePrice.Decimal)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to create terminal")
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveTerminalCreated()
	}
	if h.producer != nil {
		if err := h.producer.PublishTerminalCreated(terminal); err != nil {
			h.log.WithError(err).WithField("terminal_name", terminal.TerminalName).Warn("Failed to publish terminal created event")
			if h.metrics != nil {
				h.metrics.ObservePublishFailure(string(models.EventTypeTerminalCreated))
			}
		}
	}

	writeJSONResponse(w, http.StatusCreated, terminal)
}

// GetTerminal GET /api/bus-terminals/{name}
func (h *TerminalHandler) GetTerminal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, r, http.StatusMethodNotAllowed, errMethodNotAllowed, nil)
		return
	}

	name, err := extractNameFromPath(r.URL.EscapedPath(), terminalsPath)
	if err != nil {
		writeErrorResponse(w, r, http.StatusBadRequest, errInvalidPath, nil)
		return
	}

	terminal, err := h.terminals.Get(r.Context(), name)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to get terminal")
		return
	}

	writeJSONResponse(w, http.StatusOK, terminal)
}
