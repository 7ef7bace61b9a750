// Package document validates and formats Brazilian tax identifiers
// (CPF for people, CNPJ for companies).
package document

import (
	"net/http"
	"strings"

	"github.com/karua/hostcore/pkg/errx"
)

const (
	cpfLength  = 11
	cnpjLength = 14
)

var ErrRegistry = errx.NewRegistry("DOCUMENT")

var (
	CodeInvalidCPF  = ErrRegistry.Register("INVALID_CPF", errx.TypeValidation, http.StatusBadRequest, "Invalid CPF")
	CodeInvalidCNPJ = ErrRegistry.Register("INVALID_CNPJ", errx.TypeValidation, http.StatusBadRequest, "Invalid CNPJ")
)

// Clean strips everything but ASCII digits.
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidCPF accepts formatted or bare input.
func IsValidCPF(cpf string) bool {
	d := Clean(cpf)
	if len(d) != cpfLength || allSame(d) {
		return false
	}
	return checkDigit(d[:9], weights(10, 9)) == int(d[9]-'0') &&
		checkDigit(d[:10], weights(11, 10)) == int(d[10]-'0')
}

var (
	cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// IsValidCNPJ accepts formatted or bare input.
func IsValidCNPJ(cnpj string) bool {
	d := Clean(cnpj)
	if len(d) != cnpjLength || allSame(d) {
		return false
	}
	return checkDigit(d[:12], cnpjWeights1) == int(d[12]-'0') &&
		checkDigit(d[:13], cnpjWeights2) == int(d[13]-'0')
}

// NormalizeCPF returns the digits of a valid CPF.
func NormalizeCPF(cpf string) (string, error) {
	if !IsValidCPF(cpf) {
		return "", ErrRegistry.New(CodeInvalidCPF)
	}
	return Clean(cpf), nil
}

// NormalizeCNPJ returns the digits of a valid CNPJ.
func NormalizeCNPJ(cnpj string) (string, error) {
	if !IsValidCNPJ(cnpj) {
		return "", ErrRegistry.New(CodeInvalidCNPJ)
	}
	return Clean(cnpj), nil
}

// FormatCPF renders 000.000.000-00; input that is not 11 digits is returned as is.
func FormatCPF(cpf string) string {
	d := Clean(cpf)
	if len(d) != cpfLength {
		return cpf
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

// FormatCNPJ renders 00.000.000/0000-00; input that is not 14 digits is returned as is.
func FormatCNPJ(cnpj string) string {
	d := Clean(cnpj)
	if len(d) != cnpjLength {
		return cnpj
	}
	return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
}

// checkDigit computes a mod-11 verifier digit.
func checkDigit(digits string, w []int) int {
	sum := 0
	for i := range digits {
		sum += int(digits[i]-'0') * w[i]
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

// weights returns start, start-1, ... for n positions.
func weights(start, n int) []int {
	w := make([]int, n)
	for i := range w {
		w[i] = start - i
	}
	return w
}

func allSame(d string) bool {
	return strings.Count(d, d[:1]) == len(d)
}
