package ptrx_test

import (
	"testing"

	"github.com/karua/hostcore/pkg/ptrx"
	"github.com/stretchr/testify/assert"
)

func TestPointerHelpers(t *testing.T) {
	p := ptrx.To(3)
	assert.Equal(t, 3, *p)
	assert.Equal(t, 3, ptrx.Value(p))
	assert.Equal(t, 0, ptrx.Value[int](nil))
	assert.Equal(t, "def", ptrx.ValueOr(nil, "def"))
	assert.Nil(t, ptrx.NonEmpty(""))
	assert.Equal(t, "x", *ptrx.NonEmpty("x"))
}
