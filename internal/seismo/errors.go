package seismo

import "errors"

// Sentinel errors. Estimators wrap these with context; callers test with errors.Is
// and render "unavailable" states from them.
var (
	// ErrInsufficientData means the event count is below the analysis minimum.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDegenerateFit means the regression domain has fewer than 2 bins or zero variance.
	ErrDegenerateFit = errors.New("degenerate fit")
	// ErrInvalidParameter means a non-positive bin width, malformed truncation or non-finite input.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNumericOverflow means a moment or exponent left the float64 range.
	ErrNumericOverflow = errors.New("numeric overflow")
)

// Unavailable reports whether err is an expected "no result" outcome rather
// than a programming or input error.
func Unavailable(err error) bool {
	return errors.Is(err, ErrInsufficientData) || errors.Is(err, ErrDegenerateFit)
}
