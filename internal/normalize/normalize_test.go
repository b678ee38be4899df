package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Algebra", "algebra"},
		{"Équações Quadráticas", "equacoes quadraticas"},
		{"MATH-ALG", "math-alg"},
		{"Größe", "große"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fold(tt.in), "Fold(%q)", tt.in)
	}
}

func TestFoldContains(t *testing.T) {
	assert.True(t, FoldContains("Équations Différentielles", "equations"))
	assert.True(t, FoldContains("Geometry", "GEO"))
	assert.False(t, FoldContains("Geometry", "algebra"))
}
