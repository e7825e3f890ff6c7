package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/jwaldner/optionlab/internal/models"
)

// classify maps an error onto its API kind and HTTP status
func classify(err error) (models.ErrorBody, int) {
	body := models.ErrorBody{Message: err.Error()}
	switch {
	case models.IsInvalidInput(err):
		body.Kind = "invalid_input"
		return body, http.StatusBadRequest
	case models.IsLatticeDegenerate(err):
		body.Kind = "lattice_degenerate"
		return body, http.StatusBadRequest
	case models.IsMissingMarketData(err):
		body.Kind = "missing_market_data"
		return body, http.StatusNotFound
	case models.IsDataUnavailable(err):
		body.Kind = "data_unavailable"
		return body, http.StatusBadGateway
	}
	body.Kind = "internal"
	return body, http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body, status := classify(err)
	log := zap.L().With(zap.String("path", r.URL.Path), zap.String("kind", body.Kind))
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Info("request rejected", zap.Error(err))
	}
	writeJSON(w, status, models.ErrorResponse{Success: false, Error: body})
}
