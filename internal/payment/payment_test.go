package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
		ok   bool
	}{
		{"plain number", "21.18", 21.18, true},
		{"dollar prefix", "$52.94", 52.94, true},
		{"rupee prefix", "₹26.47", 26.47, true},
		{"thousands separator", "1,000.50", 1000.50, true},
		{"surrounding spaces", " 35.29 ", 35.29, true},
		{"integer", "40", 40, true},
		{"empty", "", 0, false},
		{"currency only", "$", 0, false},
		{"letters only", "free", 0, false},
		{"multiple dots", "1.2.3", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 0.0001)
			}
		})
	}
}
