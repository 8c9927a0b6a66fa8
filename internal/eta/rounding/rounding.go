// Package rounding holds the numeric policy applied to every amount emitted to the tax authority.
package rounding

import "github.com/shopspring/decimal"

const (
	// MaxPlaces is the highest precision the authority accepts.
	MaxPlaces = 5
	// DefaultPlaces is used when neither the caller nor the settings provide a precision.
	DefaultPlaces = 2
	// UseDefault asks RoundTo for the policy default precision. Zero places rounds to an integer.
	UseDefault = -1
)

// Policy rounds half-to-even on the decimal representation of a value.
type Policy struct {
	defaultPlaces int32
}

// New returns a policy whose default precision is places (capped at MaxPlaces).
// A non-positive places falls back to DefaultPlaces.
func New(places int) Policy {
	return Policy{defaultPlaces: clamp(places, DefaultPlaces)}
}

// Places reports the default precision of the policy.
func (p Policy) Places() int {
	if p.defaultPlaces == 0 {
		return DefaultPlaces
	}
	return int(p.defaultPlaces)
}

// Round rounds value with the policy default precision.
func (p Policy) Round(value float64) float64 {
	return p.RoundTo(value, UseDefault)
}

// RoundTo rounds value to places decimals. A negative places uses the policy default.
func (p Policy) RoundTo(value float64, places int) float64 {
	if places < 0 {
		places = p.Places()
	}
	precision := clamp(places, 0)
	f, _ := decimal.NewFromFloat(value).RoundBank(precision).Float64()
	return f
}

// RoundDecimal rounds an already decimal value with the policy default precision.
func (p Policy) RoundDecimal(value decimal.Decimal) decimal.Decimal {
	return value.RoundBank(int32(p.Places()))
}

// Round is a package level shortcut using DefaultPlaces.
func Round(value float64, places int) float64 {
	return New(DefaultPlaces).RoundTo(value, places)
}

func clamp(places, fallback int) int32 {
	if places <= 0 {
		places = fallback
	}
	if places > MaxPlaces {
		places = MaxPlaces
	}
	return int32(places)
}
