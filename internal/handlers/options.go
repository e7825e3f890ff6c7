package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jwaldner/optionlab/internal/models"
	"github.com/jwaldner/optionlab/internal/report"
	"github.com/jwaldner/optionlab/internal/services"
	"github.com/jwaldner/optionlab/internal/strategy"
)

const engineName = "black-scholes+crr"

// OptionsHandler handles pricing and strategy requests - HTTP layer only
type OptionsHandler struct {
	analysis *services.AnalysisService
	requests *services.RequestService
	provider string
}

// NewOptionsHandler creates a new options handler
func NewOptionsHandler(analysis *services.AnalysisService, requests *services.RequestService, provider string) *OptionsHandler {
	return &OptionsHandler{analysis: analysis, requests: requests, provider: provider}
}

// Register mounts every endpoint on r
func (h *OptionsHandler) Register(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/strategy", h.StrategyHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/strategy/batch", h.BatchHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/digital", h.DigitalHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/price", h.PriceHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/yield", h.YieldHandler).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/strategies", h.StrategiesHandler).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet, http.MethodOptions)
}

// preflight sets the CORS headers and reports whether the request was an
// OPTIONS preflight that has been answered
func preflight(w http.ResponseWriter, r *http.Request, methods string) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods+", OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

func (h *OptionsHandler) meta(start time.Time, count int) models.ResponseMetadata {
	return models.ResponseMetadata{
		Timestamp:      time.Now().Format(time.RFC3339),
		ProcessingTime: time.Since(start).Seconds(),
		Engine:         engineName,
		Provider:       h.provider,
		ResultCount:    count,
	}
}

func strategyMeta(m models.ResponseMetadata, res *services.StrategyResult) models.ResponseMetadata {
	p := res.Strategy.Params()
	m.Strategy = res.Strategy.Name()
	m.Ticker = p.Ticker
	m.ExpirationDate = res.Request.ExpirationDate
	m.LatticeSteps = p.Steps
	m.ExerciseStyle = string(p.Style)
	m.RateSource = res.RateSource
	return m
}

// StrategyHandler builds, prices and analyzes one named strategy
func (h *OptionsHandler) StrategyHandler(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, http.MethodPost) {
		return
	}
	start := time.Now()

	req, err := h.requests.ParseStrategyRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.analysis.Analyze(r.Context(), *req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.FormattedStrategyResponse{
		Success: true,
		Data:    res.Report,
		Meta:    strategyMeta(h.meta(start, len(res.Report.Legs)), res),
	})
}

// BatchHandler analyzes several strategies; entries fail independently
func (h *OptionsHandler) BatchHandler(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, http.MethodPost) {
		return
	}
	start := time.Now()

	var batch models.BatchStrategyRequest
	if err := h.requests.DecodeJSON(r, &batch); err != nil {
		writeError(w, r, err)
		return
	}
	if len(batch.Requests) == 0 {
		writeError(w, r, models.NewInvalidInputError("requests", 0, "at least one request is required"))
		return
	}

	items := make([]models.BatchItem, len(batch.Requests))
	var valid []models.StrategyRequest
	var index []int
	for i := range batch.Requests {
		if err := h.requests.NormalizeStrategy(&batch.Requests[i]); err != nil {
			body, _ := classify(err)
			items[i] = models.BatchItem{Error: &body}
			continue
		}
		valid = append(valid, batch.Requests[i])
		index = append(index, i)
	}

	for j, outcome := range h.analysis.AnalyzeBatch(r.Context(), valid) {
		i := index[j]
		if outcome.Err != nil {
			body, _ := classify(outcome.Err)
			items[i] = models.BatchItem{Error: &body}
			continue
		}
		rep := outcome.Result.Report
		items[i] = models.BatchItem{Success: true, Data: &rep}
	}

	writeJSON(w, http.StatusOK, models.FormattedBatchResponse{
		Success: true,
		Data:    items,
		Meta:    h.meta(start, len(items)),
	})
}

// DigitalHandler prices a cash-or-nothing option
func (h *OptionsHandler) DigitalHandler(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, http.MethodPost) {
		return
	}
	start := time.Now()

	var req models.DigitalRequest
	if err := h.requests.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.requests.NormalizeDigital(&req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.analysis.Digital(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	m := h.meta(start, 1)
	m.Ticker = req.Ticker
	m.ExpirationDate = req.ExpirationDate
	m.Engine = "black-scholes digital"
	m.RateSource = res.RateSource
	writeJSON(w, http.StatusOK, models.FormattedValueResponse{
		Success: true,
		Data:    report.Digital(res.Option, res.Spot, res.Volatility, res.Price),
		Meta:    m,
	})
}

// PriceHandler values one vanilla option from explicit inputs
func (h *OptionsHandler) PriceHandler(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, http.MethodPost) {
		return
	}
	start := time.Now()

	var req models.PriceRequest
	if err := h.requests.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.requests.NormalizePrice(&req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.analysis.Price(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	m := h.meta(start, 1)
	m.ExpirationDate = req.ExpirationDate
	m.LatticeSteps = res.Priced.Steps
	m.ExerciseStyle = req.ExerciseStyle
	m.RateSource = res.RateSource
	writeJSON(w, http.StatusOK, models.FormattedValueResponse{
		Success: true,
		Data:    report.Option(res.Priced, res.MarketPrice, res.ImpliedVol),
		Meta:    m,
	})
}

// YieldHandler returns the risk-free rate for ?years=
func (h *OptionsHandler) YieldHandler(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, http.MethodGet) {
		return
	}
	start := time.Now()

	years, err := h.requests.ParseFloat64("years", r.URL.Query().Get("years"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if years == nil || *years <= 0 {
		writeError(w, r, models.NewInvalidInputError("years", r.URL.Query().Get("years"), "a positive tenor in years is required"))
		return
	}
	rate, source, err := h.analysis.Rate(r.Context(), nil, *years)
	if err != nil {
		writeError(w, r, err)
		return
	}

	m := h.meta(start, 1)
	m.RateSource = source
	writeJSON(w, http.StatusOK, models.FormattedValueResponse{
		Success: true,
		Data:    report.Yield(*years, rate),
		Meta:    m,
	})
}

// StrategiesHandler lists the strategy recipes
func (h *OptionsHandler) StrategiesHandler(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, http.MethodGet) {
		return
	}
	recipes := strategy.Recipes()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    recipes,
		"count":   len(recipes),
	})
}

func (h *OptionsHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"provider":  h.provider,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}
