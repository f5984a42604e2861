package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1.005, 1.0}, // 1.005 is stored just below 1.005 in binary
		{1.015, 1.01},
		{2.675, 2.67},
		{10.994, 10.99},
		{-3.456, -3.46},
		{1149.999, 1150.0},
		{0.1 + 0.2, 0.3},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Round2(tc.in))
	}
}
