package pricing

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks client-correctable validation failures.
var ErrInvalidInput = errors.New("invalid input")

// OccupationRisk is the occupational hazard tier of an insured person.
type OccupationRisk string

const (
	OccupationLow    OccupationRisk = "LOW"
	OccupationMedium OccupationRisk = "MEDIUM"
	OccupationHigh   OccupationRisk = "HIGH"
)

// ParseOccupationRisk validates and canonicalizes an occupation risk string.
func ParseOccupationRisk(s string) (OccupationRisk, bool) {
	switch OccupationRisk(s) {
	case OccupationLow, OccupationMedium, OccupationHigh:
		return OccupationRisk(s), true
	default:
		return "", false
	}
}

// RiskInput carries the underwriting inputs of the premium formula.
// Age is the applicant's age in full years at evaluation time.
type RiskInput struct {
	Age        int
	Smoker     bool
	Occupation OccupationRisk
}

// The premium formula works in integer arithmetic throughout:
//
//	monthly = coverage * baseAnnualRate * multiplier / 12
//
// baseAnnualRate is 0.0005 per currency unit of coverage per year, expressed
// as baseRateNum/baseRateDen. The multiplier is kept in hundredths (100 = 1.0)
// so every supported loading (0.10, 0.20, 0.30, 0.50, 0.25) is exact.
const (
	baseRateNum = 5
	baseRateDen = 10_000

	multBase             = 100 // 1.0
	multAgeOver30        = 10
	multAgeOver40        = 20
	multAgeOver50        = 30
	multSmoker           = 50
	multOccupationMedium = 10
	multOccupationHigh   = 25
)

// ComputeMonthlyPremium derives the monthly premium in cents for the given
// risk profile, coverage amount, and term. Deterministic, no I/O.
//
// The result is rounded to whole cents using round-half-up. The rounding mode
// is part of the contract: billed amounts must reproduce identically across
// re-quotes of the same inputs.
func ComputeMonthlyPremium(risk RiskInput, coverage Money, termYears int) (Money, error) {
	if coverage <= 0 {
		return 0, fmt.Errorf("%w: coverage amount must be positive", ErrInvalidInput)
	}
	if termYears <= 0 {
		return 0, fmt.Errorf("%w: term years must be positive", ErrInvalidInput)
	}
	if risk.Age < 0 {
		return 0, fmt.Errorf("%w: age must not be negative", ErrInvalidInput)
	}
	if _, ok := ParseOccupationRisk(string(risk.Occupation)); !ok {
		return 0, fmt.Errorf("%w: unknown occupation risk %q", ErrInvalidInput, risk.Occupation)
	}

	mult := int64(multBase)
	switch {
	case risk.Age > 50:
		mult += multAgeOver50
	case risk.Age > 40:
		mult += multAgeOver40
	case risk.Age > 30:
		mult += multAgeOver30
	}
	if risk.Smoker {
		mult += multSmoker
	}
	switch risk.Occupation {
	case OccupationMedium:
		mult += multOccupationMedium
	case OccupationHigh:
		mult += multOccupationHigh
	}

	// monthly cents = coverageCents * baseRateNum * mult / (baseRateDen * multBase * 12)
	num := int64(coverage) * baseRateNum * mult
	den := int64(baseRateDen) * multBase * 12

	return Money(divRoundHalfUp(num, den)), nil
}

// divRoundHalfUp divides non-negative num by positive den, rounding halves up.
func divRoundHalfUp(num, den int64) int64 {
	return (2*num + den) / (2 * den)
}
