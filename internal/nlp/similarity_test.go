package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"nota fiscal", "nota fiscal", 100},
		{"abc", "abd", 67},
		{"abc", "xyz", 0},
		{"", "abc", 0},
		{"", "", 0},
		{"emitir", "emitido", 77},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Ratio(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestTokenSortRatio(t *testing.T) {
	assert.Equal(t, 100, TokenSortRatio([]string{"fiscal", "nota"}, []string{"nota", "fiscal"}))
	assert.Equal(t, 0, TokenSortRatio(nil, []string{"nota"}))
	assert.Less(t, TokenSortRatio([]string{"senha"}, []string{"nota", "fiscal"}), 60)
}

func TestSortedKey(t *testing.T) {
	in := []string{"nota", "emitir", "fiscal"}
	assert.Equal(t, "emitir fiscal nota", SortedKey(in))
	assert.Equal(t, []string{"nota", "emitir", "fiscal"}, in, "input untouched")
}
