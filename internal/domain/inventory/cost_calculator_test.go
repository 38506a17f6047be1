package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCostCalculator_PromedioPonderado(t *testing.T) {
	d := decimal.NewFromInt

	// (10*10 + 10*20) / 20 = 15
	got := CostCalculator(d(10), d(10), d(10), d(20))
	assert.True(t, got.Equal(d(15)))

	// Sin stock previo el costo es el de la entrada.
	got = CostCalculator(decimal.Zero, decimal.Zero, d(5), d(8))
	assert.True(t, got.Equal(d(8)))

	// Suma no positiva: cero, nunca división por cero.
	got = CostCalculator(decimal.Zero, d(10), decimal.Zero, d(20))
	assert.True(t, got.IsZero())
}
