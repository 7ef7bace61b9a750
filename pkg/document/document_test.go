package document_test

import (
	"testing"

	"github.com/karua/hostcore/pkg/document"
	"github.com/karua/hostcore/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidCPF(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"12345678909", true},
		{"111.444.777-35", true},
		{"12345678900", false},
		{"11144477736", false},
		{"11111111111", false},
		{"1234567890", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, document.IsValidCPF(tt.in))
		})
	}
}

func TestIsValidCNPJ(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"11222333000181", true},
		{"11.444.777/0001-61", true},
		{"11222333000180", false},
		{"11444777000160", false},
		{"00000000000000", false},
		{"1122233300018", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, document.IsValidCNPJ(tt.in))
		})
	}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "111.444.777-35", document.FormatCPF("11144477735"))
	assert.Equal(t, "11.222.333/0001-81", document.FormatCNPJ("11222333000181"))
	assert.Equal(t, "123", document.FormatCPF("123"))
	assert.Equal(t, "11222333000181", document.Clean("11.222.333/0001-81"))
}

func TestNormalize(t *testing.T) {
	got, err := document.NormalizeCNPJ("11.222.333/0001-81")
	require.NoError(t, err)
	assert.Equal(t, "11222333000181", got)

	_, err = document.NormalizeCPF("123.456.789-00")
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, document.CodeInvalidCPF))
}
