package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	assert.NoError(t, Money{Cents: 1}.Validate())
	assert.ErrorIs(t, Money{}.Validate(), ErrValidation)
}

func TestMoneyJSON(t *testing.T) {
	out, err := json.Marshal(Money{Cents: 95000})
	require.NoError(t, err)
	assert.Equal(t, "950.00", string(out))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`12.5`), &m))
	assert.Equal(t, int64(1250), m.Cents)

	require.NoError(t, json.Unmarshal([]byte(`"0.105"`), &m))
	assert.Equal(t, int64(11), m.Cents)

	assert.Error(t, json.Unmarshal([]byte(`"ten"`), &m))
}

func TestMoneyExactSums(t *testing.T) {
	// 0.1 + 0.2 is exactly 0.3 in cents.
	sum := Cents(10).Add(Cents(20))
	assert.True(t, sum.Decimal().Equal(decimal.RequireFromString("0.3")))
	assert.Equal(t, "-0.05", Cents(10).Sub(Cents(15)).String())
	m, err := MoneyFromDecimal(decimal.RequireFromString("0.065"))
	require.NoError(t, err)
	assert.Equal(t, Cents(7), m)
}

func TestMoneyRejectsOverflow(t *testing.T) {
	for _, in := range []string{`"184467440737095516.17"`, `1e20`, `-1e20`, `"922337203685477.59"`} {
		var m Money
		assert.ErrorIs(t, json.Unmarshal([]byte(in), &m), ErrInvalidAmount, in)
	}

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`"922337203685477.58"`), &m))
	assert.Equal(t, int64(MaxCents), m.Cents)
	assert.NoError(t, m.Validate())
	assert.ErrorIs(t, Cents(MaxCents+1).Validate(), ErrInvalidAmount)

	_, err := ParseDecimalToCents("922337203685477.59")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ParseDecimalToCents("922337203685478")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
