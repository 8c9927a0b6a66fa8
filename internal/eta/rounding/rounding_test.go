package rounding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundPinnedCases(t *testing.T) {
	cases := []struct {
		name   string
		value  float64
		places int
		want   float64
	}{
		{name: "default_down", value: 1.2345, places: UseDefault, want: 1.23},
		{name: "default_up", value: 1.2355, places: UseDefault, want: 1.24},
		{name: "integer_even", value: 2.5, places: 0, want: 2},
		{name: "integer_odd", value: 3.5, places: 0, want: 4},
		{name: "integer_negative", value: -1.4, places: 0, want: -1},
		{name: "three_even", value: 1.2345, places: 3, want: 1.234},
		{name: "three_odd", value: 1.2355, places: 3, want: 1.236},
		{name: "four_unchanged", value: 1.2345, places: 4, want: 1.2345},
		{name: "four_unchanged_b", value: 1.2355, places: 4, want: 1.2355},
		{name: "negative", value: -2.675, places: 2, want: -2.68},
		{name: "zero", value: 0, places: 3, want: 0},
	}

	p := New(0)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, p.RoundTo(tc.value, tc.places))
		})
	}
}

func TestRoundCapsPrecisionAtFive(t *testing.T) {
	values := []float64{1.123456789, 0.000004999, 99999.9999951, -3.14159265}
	for _, v := range values {
		assert.Equal(t, Round(v, 5), Round(v, 7), "value %v", v)
		assert.Equal(t, Round(v, 5), Round(v, 12), "value %v", v)
	}
}

func TestRoundToZeroPlacesIgnoresPolicyDefault(t *testing.T) {
	p := New(3)
	assert.Equal(t, 12.0, p.RoundTo(12.4999, 0))
	assert.Equal(t, 12.5, p.RoundTo(12.4999, UseDefault))
	assert.Equal(t, 12.5, p.Round(12.4999))
	assert.Equal(t, 13.0, Round(12.5001, 0))
	assert.Equal(t, 12.5, Round(12.50001, -7))
}

func TestPolicyDefaultPlaces(t *testing.T) {
	assert.Equal(t, 2, New(0).Places())
	assert.Equal(t, 3, New(3).Places())
	assert.Equal(t, 5, New(9).Places())
	assert.Equal(t, 1.235, New(3).Round(1.23456))
	assert.Equal(t, 2, Policy{}.Places())
}
