package handlers

import (
	"errors"
	"net/http"

	"bus-pricing/internal/apperror"
	"bus-pricing/internal/logger"
	"bus-pricing/internal/models"
)

// PricingHandler обрабатывает расчёт предварительной цены
type PricingHandler struct {
	pricer    DraftPricer
	validator *RequestValidator
	producer  EventProducer
	metrics   EventMetrics
	log       *logger.Logger
}

// NewPricingHandler создаёт обработчик; producer и metrics могут быть nil
func NewPricingHandler(pricer DraftPricer, validator *RequestValidator, producer EventProducer, metrics EventMetrics, log *logger.Logger) *PricingHandler {
	return &PricingHandler{
		pricer:    pricer,
		validator: validator,
		producer:  producer,
		metrics:   metrics,
		log:       log,
	}
}

// DraftPrice POST /api/pricing/draft
func (h *PricingHandler) DraftPrice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, r, http.StatusMethodNotAllowed, errMethodNotAllowed, nil)
		return
	}

	var req models.DraftPriceRequest
	if err := decodeJSONBody(r, &req); err != nil {
		var dateErr *models.DateError
		if errors.As(err, &dateErr) {
			writeErrorResponse(w, r, http.StatusBadRequest, errValidationFailed, []apperror.FieldError{
				{Field: "date", Message: "must be a date in format yyyy-MM-dd", Rejected: dateErr.Value},
			})
			return
		}
		writeErrorResponse(w, r, http.StatusBadRequest, errInvalidBody, nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		writeServiceError(w, r, h.log, err, "Failed to validate draft price request")
		return
	}

	resp, err := h.pricer.CalculateDraftPrice(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to calculate draft price")
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishPriceDrafted(req.Route, resp); err != nil {
			h.log.WithRoute(req.Route).WithError(err).Warn("Failed to publish price drafted event")
			if h.metrics != nil {
				h.metrics.ObservePublishFailure(string(models.EventTypePriceDrafted))
			}
		}
	}

	writeJSONResponse(w, http.StatusOK, resp)
}
