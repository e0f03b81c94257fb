package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateFees(t *testing.T) {
	cases := []struct {
		name           string
		amount         int64
		feePercent     int64
		wantFee        int64
		wantProvider   int64
	}{
		{"whole split", 100, 10, 10, 90},
		{"rounds half up", 101, 10, 10, 91},
		{"rounds up at half", 105, 10, 11, 94},
		{"zero amount", 0, 10, 0, 0},
		{"negative amount", -50, 10, 0, 0},
		{"zero percent", 1000, 0, 0, 1000},
		{"full percent", 1000, 100, 1000, 0},
		{"percent clamped high", 1000, 250, 1000, 0},
		{"percent clamped low", 1000, -5, 0, 1000},
		{"one cent", 1, 10, 0, 1},
		{"large amount", 9_999_999, 12, 1_200_000, 8_799_999},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fee, provider := CalculateFees(tc.amount, tc.feePercent)
			assert.Equal(t, tc.wantFee, fee)
			assert.Equal(t, tc.wantProvider, provider)
			if tc.amount > 0 {
				assert.Equal(t, tc.amount, fee+provider, "split must conserve the amount")
			}
		})
	}
}
