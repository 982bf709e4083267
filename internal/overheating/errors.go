package overheating

import (
	"errors"
	"fmt"
)

var (
	// ErrShape matches any *ShapeError.
	ErrShape = errors.New("invalid timeseries shape")
	// ErrConfiguration matches any *ConfigurationError.
	ErrConfiguration = errors.New("invalid analysis configuration")
	// ErrComfortModel matches any *ComfortModelError.
	ErrComfortModel = errors.New("comfort model failure")
)

// Shape dimensions reported by ShapeError.
const (
	DimensionRank      = "rank"
	DimensionZones     = "zones"
	DimensionTimesteps = "timesteps"
)

// ShapeError reports a matrix whose rank or dimensions do not match the
// expected (zones, timesteps) layout.
type ShapeError struct {
	Matrix    string
	Dimension string
	Expected  int
	Got       int
	// Row is set for ragged input, where one row has the wrong length.
	Row int
}

func (e *ShapeError) Error() string {
	switch e.Dimension {
	case DimensionRank:
		if e.Row >= 0 {
			return fmt.Sprintf("%s: timeseries must be a 2D array with shape (zones, timesteps); row %d has %d values, expected %d",
				e.Matrix, e.Row, e.Got, e.Expected)
		}
		return fmt.Sprintf("%s: timeseries must be a 2D array with shape (zones, timesteps); got %d rows", e.Matrix, e.Got)
	case DimensionZones:
		return fmt.Sprintf("%s: timeseries must have %d zones, got %d zones", e.Matrix, e.Expected, e.Got)
	default:
		return fmt.Sprintf("%s: timeseries must have %d timesteps, got %d timesteps", e.Matrix, e.Expected, e.Got)
	}
}

func (e *ShapeError) Is(target error) bool { return target == ErrShape }

// ConfigurationError reports inconsistent zone metadata or analysis policy.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func configErrorf(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ComfortModelError reports a comfort model that failed or returned a value
// that cannot enter a degree-hour sum. Hour is -1 when the failure is not
// tied to a single hour.
type ComfortModelError struct {
	Zone  string
	Hour  int
	Value float64
	Err   error
}

func (e *ComfortModelError) Error() string {
	switch {
	case e.Err != nil && e.Hour >= 0:
		return fmt.Sprintf("comfort model: zone %q hour %d: %v", e.Zone, e.Hour, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("comfort model: zone %q: %v", e.Zone, e.Err)
	default:
		return fmt.Sprintf("comfort model: zone %q hour %d: non-finite SET %v", e.Zone, e.Hour, e.Value)
	}
}

func (e *ComfortModelError) Is(target error) bool { return target == ErrComfortModel }

func (e *ComfortModelError) Unwrap() error { return e.Err }
