package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyDistance(t *testing.T) {
	tests := []struct {
		input string
		want  [2]float64
	}{
		{"19.05", [2]float64{19.05, 19.05}},
		{"18x17", [2]float64{18, 17}},
		{"18 17", [2]float64{18, 17}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseKeyDistance(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, input := range []string{"", "abc", "-19.05", "1 2 3", "0x17"} {
		_, err := parseKeyDistance(input)
		assert.Error(t, err, "input %q", input)
	}
}
