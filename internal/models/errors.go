package models

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidInputError reports a malformed or out-of-domain numeric input
type InvalidInputError struct {
	Field  string
	Value  interface{}
	Reason string
}

func NewInvalidInputError(field string, value interface{}, reason string) *InvalidInputError {
	return &InvalidInputError{Field: field, Value: value, Reason: reason}
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %s=%v: %s", e.Field, e.Value, e.Reason)
}

// LatticeDegenerateError reports a risk-neutral probability outside [0,1]
type LatticeDegenerateError struct {
	Probability float64
	Steps       int
	Reason      string
}

func (e *LatticeDegenerateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("degenerate lattice with %d steps: %s", e.Steps, e.Reason)
	}
	return fmt.Sprintf("degenerate lattice with %d steps: risk-neutral probability %.6f outside [0,1]", e.Steps, e.Probability)
}

// MissingMarketDataError reports a market quote that could not be located
type MissingMarketDataError struct {
	Ticker string
	Strike float64
	Expiry float64
	Type   OptionType
	What   string
}

func (e *MissingMarketDataError) Error() string {
	if e.Strike == 0 {
		return fmt.Sprintf("missing market data for %s: %s", e.Ticker, e.What)
	}
	return fmt.Sprintf("missing market data for %s %.2f %s %.4fy: %s", e.Ticker, e.Strike, e.Type, e.Expiry, e.What)
}

// DataUnavailableError reports an external collaborator that returned nothing usable
type DataUnavailableError struct {
	Source string
	Cause  error
}

func NewDataUnavailableError(source string, cause error) *DataUnavailableError {
	return &DataUnavailableError{Source: source, Cause: cause}
}

func (e *DataUnavailableError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: data unavailable", e.Source)
	}
	return fmt.Sprintf("%s: data unavailable: %v", e.Source, e.Cause)
}

func (e *DataUnavailableError) Unwrap() error { return e.Cause }

func IsInvalidInput(err error) bool {
	var target *InvalidInputError
	return errors.As(err, &target)
}

func IsLatticeDegenerate(err error) bool {
	var target *LatticeDegenerateError
	return errors.As(err, &target)
}

func IsMissingMarketData(err error) bool {
	var target *MissingMarketDataError
	return errors.As(err, &target)
}

func IsDataUnavailable(err error) bool {
	var target *DataUnavailableError
	return errors.As(err, &target)
}
