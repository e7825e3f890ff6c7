package services

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jwaldner/optionlab/internal/config"
	"github.com/jwaldner/optionlab/internal/models"
	"github.com/jwaldner/optionlab/internal/utils"
)

// maxBodyBytes bounds a decoded request body
const maxBodyBytes = 1 << 20

// RequestService handles request parsing and fills in configured defaults
type RequestService struct {
	defaults config.DefaultsConfig
	now      func() time.Time
}

// NewRequestService creates a new request service. Unset limits fall back to
// config.DefaultMaxSteps and config.DefaultMaxSamples.
func NewRequestService(defaults config.DefaultsConfig) *RequestService {
	if defaults.MaxSteps <= 0 {
		defaults.MaxSteps = config.DefaultMaxSteps
	}
	if defaults.MaxSamples <= 0 {
		defaults.MaxSamples = config.DefaultMaxSamples
	}
	return &RequestService{defaults: defaults, now: time.Now}
}

func atMost(field string, value, limit int) error {
	if value > limit {
		return models.NewInvalidInputError(field, value, fmt.Sprintf("must not exceed %d", limit))
	}
	return nil
}

// DecodeJSON reads a POST body into dst
func (s *RequestService) DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Method != http.MethodPost {
		return models.NewInvalidInputError("method", r.Method, "must be POST")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return models.NewInvalidInputError("body", err.Error(), "failed to decode request")
	}
	return nil
}

// ParseStrategyRequest parses an HTTP request into a StrategyRequest
func (s *RequestService) ParseStrategyRequest(r *http.Request) (*models.StrategyRequest, error) {
	var req models.StrategyRequest
	if err := s.DecodeJSON(r, &req); err != nil {
		return nil, err
	}
	if err := s.NormalizeStrategy(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// NormalizeStrategy validates required fields and applies defaults in place
func (s *RequestService) NormalizeStrategy(req *models.StrategyRequest) error {
	req.Ticker = strings.TrimSpace(strings.ToUpper(req.Ticker))
	if req.Ticker == "" {
		return models.NewInvalidInputError("ticker", req.Ticker, "is required")
	}
	if strings.TrimSpace(req.Strategy) == "" {
		return models.NewInvalidInputError("strategy", req.Strategy, "is required")
	}

	years, date, err := s.ResolveExpiry(req.ExpiryYears, req.ExpirationDate)
	if err != nil {
		return err
	}
	req.ExpiryYears, req.ExpirationDate = years, date

	if req.Offset == nil {
		offset := s.defaults.Offset
		req.Offset = &offset
	}
	if req.Steps == 0 {
		req.Steps = s.defaults.Steps
	}
	if req.ExerciseStyle == "" {
		req.ExerciseStyle = s.defaults.ExerciseStyle
	}
	if req.PremiumSource == "" {
		req.PremiumSource = s.defaults.PremiumSource
	}
	if req.RangeMultiple == 0 {
		req.RangeMultiple = s.defaults.RangeMultiple
	}
	if req.Samples == 0 {
		req.Samples = s.defaults.Samples
	}

	if err := atMost("steps", req.Steps, s.defaults.MaxSteps); err != nil {
		return err
	}
	if err := atMost("samples", req.Samples, s.defaults.MaxSamples); err != nil {
		return err
	}
	if req.Range != nil {
		return atMost("range.samples", req.Range.Samples, s.defaults.MaxSamples)
	}
	return nil
}

// NormalizeDigital validates a digital request and resolves its expiry
func (s *RequestService) NormalizeDigital(req *models.DigitalRequest) error {
	req.Ticker = strings.TrimSpace(strings.ToUpper(req.Ticker))
	if req.Ticker == "" && (req.Spot == nil || req.Volatility == nil) {
		return models.NewInvalidInputError("ticker", req.Ticker, "is required unless spot and volatility are given")
	}
	years, date, err := s.ResolveExpiry(req.ExpiryYears, req.ExpirationDate)
	if err != nil {
		return err
	}
	req.ExpiryYears, req.ExpirationDate = years, date
	return nil
}

// NormalizePrice resolves the expiry and defaults of a single option request
func (s *RequestService) NormalizePrice(req *models.PriceRequest) error {
	years, date, err := s.ResolveExpiry(req.ExpiryYears, req.ExpirationDate)
	if err != nil {
		return err
	}
	req.ExpiryYears, req.ExpirationDate = years, date
	if req.Steps == 0 {
		req.Steps = s.defaults.Steps
	}
	if req.ExerciseStyle == "" {
		req.ExerciseStyle = s.defaults.ExerciseStyle
	}
	return atMost("steps", req.Steps, s.defaults.MaxSteps)
}

// ResolveExpiry turns the two ways of giving an expiry into years. An explicit
// year count wins; otherwise the date (or the next monthly expiration when no
// date is given) is measured from today.
func (s *RequestService) ResolveExpiry(years float64, date string) (float64, string, error) {
	if years != 0 {
		if math.IsNaN(years) || math.IsInf(years, 0) || years < 0 {
			return 0, "", models.NewInvalidInputError("expiry_years", years, "must be a positive number of years")
		}
		return years, date, nil
	}

	today := s.now()
	var expiry time.Time
	if date == "" {
		expiry = utils.NextOptionsExpiration(today)
	} else {
		var err error
		if expiry, err = utils.ParseExpirationDate(date); err != nil {
			return 0, "", err
		}
	}
	years = utils.YearsToExpiration(today, expiry)
	if years <= 0 {
		return 0, "", models.NewInvalidInputError("expiration_date", expiry.Format(utils.DateLayout), "must be after today")
	}
	return years, expiry.Format(utils.DateLayout), nil
}

// ValidateExpirationDate validates that the expiration date is valid
func (s *RequestService) ValidateExpirationDate(dateStr string) error {
	_, err := utils.ParseExpirationDate(dateStr)
	return err
}

// ParseFloat64 parses an optional query value; empty gives nil
func (s *RequestService) ParseFloat64(name, str string) (*float64, error) {
	if str == "" {
		return nil, nil
	}
	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return nil, models.NewInvalidInputError(name, str, "must be a number")
	}
	return &val, nil
}
