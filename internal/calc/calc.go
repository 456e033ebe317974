// Package calc computes compound-interest projections on the client side.
// The server remains the source of truth; this path backs the quick preview
// and the update flow, which do not round-trip through /api/calculate.
package calc

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/adiprasetyo/kalkulo/internal/models"
)

// Formula is the label attached to every computed projection.
const Formula = "A = P(1 + r)^t"

// Validation errors are the user-facing strings shown next to the input form.
var (
	ErrPrincipalNotPositive = errors.New("Modal awal harus angka positif")
	ErrRateNotPositive      = errors.New("Bunga harus angka positif")
	ErrYearsNotPositive     = errors.New("Waktu harus angka positif")
)

// Validate rejects inputs before any computation or network call is made.
func Validate(principal, rate float64, years int) error {
	if principal <= 0 {
		return ErrPrincipalNotPositive
	}
	if rate <= 0 {
		return ErrRateNotPositive
	}
	if years <= 0 {
		return ErrYearsNotPositive
	}
	return nil
}

// CompoundInterest evaluates A = P(1+r)^t with decimal arithmetic so the
// integer-exponent power is exact, then converts at the float64 boundary.
func CompoundInterest(principal, rate float64, years int) (models.CalculationData, error) {
	if err := Validate(principal, rate, years); err != nil {
		return models.CalculationData{}, err
	}

	p := decimal.NewFromFloat(principal)
	growth := decimal.NewFromInt(1).Add(decimal.NewFromFloat(rate)).Pow(decimal.NewFromInt(int64(years)))
	final := p.Mul(growth)
	interest := final.Sub(p)

	finalF, _ := final.Float64()
	interestF, _ := interest.Float64()

	return models.CalculationData{
		Principal:     principal,
		Rate:          rate,
		Years:         years,
		FinalBalance:  finalF,
		TotalInterest: interestF,
		Formula:       Formula,
	}, nil
}
