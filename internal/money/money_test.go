package money_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/annapurna-pos/backend-billing/internal/money"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want money.Cents
	}{
		{"200", 20000},
		{"200.5", 20050},
		{"200.50", 20050},
		{"0.05", 5},
		{"0", 0},
		{" 49.99 ", 4999},
		{"12.345", 1235},
		{"12.344", 1234},
		{"-3.25", -325},
	}
	for _, tc := range cases {
		got, err := money.Parse(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", ".", "abc", "12.x", "1,50"} {
		_, err := money.Parse(in)
		require.Error(t, err, in)
	}
}

func TestApplyBpsRoundsHalfUp(t *testing.T) {
	// 5% of 450.00 is exactly 22.50
	require.Equal(t, money.Cents(2250), money.ApplyBps(45000, 500))
	// 5% of 0.10 is 0.005, rounds up to 0.01
	require.Equal(t, money.Cents(1), money.ApplyBps(10, 500))
	// 5% of 0.09 is 0.0045, rounds down to 0.00
	require.Equal(t, money.Cents(0), money.ApplyBps(9, 500))
	// 10% of 450.00
	require.Equal(t, money.Cents(4500), money.ApplyBps(45000, 1000))
}

func TestStringAndJSON(t *testing.T) {
	require.Equal(t, "472.50", money.Cents(47250).String())
	require.Equal(t, "0.05", money.Cents(5).String())
	require.Equal(t, "-3.25", money.Cents(-325).String())

	data, err := json.Marshal(money.Cents(47250))
	require.NoError(t, err)
	require.Equal(t, `"472.50"`, string(data))

	var c money.Cents
	require.NoError(t, json.Unmarshal([]byte(`"450.00"`), &c))
	require.Equal(t, money.Cents(45000), c)
	require.NoError(t, json.Unmarshal([]byte(`22.5`), &c))
	require.Equal(t, money.Cents(2250), c)
}
