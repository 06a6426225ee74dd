package handlers

import (
	"net/http"

	"bus-pricing/internal/apperror"
	"bus-pricing/internal/logger"
)

func writeServiceError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error, internalMessage string) {
	switch {
	case apperror.Is(err, apperror.KindNotFound):
		writeErrorResponse(w, r, http.StatusNotFound, errValidation, apperror.Fields(err))
	case apperror.Is(err, apperror.KindValidation):
		writeErrorResponse(w, r, http.StatusBadRequest, errValidationFailed, apperror.Fields(err))
	case apperror.Is(err, apperror.KindConflict):
		writeErrorResponse(w, r, http.StatusConflict, errValidation, apperror.Fields(err))
	default:
		if log != nil {
			log.WithError(err).WithField("path", r.URL.Path).Error(internalMessage)
		}
		writeErrorResponse(w, r, http.StatusInternalServerError, errUnexpected, nil)
	}
}
