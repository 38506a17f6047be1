package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/textil-erp/internal/domain/entity"
)

// ReorderPriority escala de urgencia de reposición derivada de cuánto cayó el
// stock por debajo del nivel de reorden.
type ReorderPriority string

const (
	PriorityLow      ReorderPriority = "low"
	PriorityMedium   ReorderPriority = "medium"
	PriorityHigh     ReorderPriority = "high"
	PriorityCritical ReorderPriority = "critical"
)

// ParseReorderPriority valida una prioridad recibida como filtro por la API.
func ParseReorderPriority(s string) (ReorderPriority, bool) {
	switch ReorderPriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return ReorderPriority(s), true
	}
	return "", false
}

// Factores sobre el nivel de reorden que delimitan high y medium.
var (
	highFactor   = decimal.NewFromFloat(0.3)
	mediumFactor = decimal.NewFromFloat(0.6)
)

// ClassifyReorder clasifica el stock actual de un material contra su nivel de
// reorden (servicio de dominio puro, sin estado):
//
//	stock == 0            → critical
//	stock <  nivel * 0.3  → high
//	stock <  nivel * 0.6  → medium
//	stock <  nivel        → low
//
// Devuelve ok=false cuando el material no está bajo reorden: nivel sin
// configurar (cero o negativo) o stock >= nivel.
func ClassifyReorder(currentStock, reorderLevel decimal.Decimal) (ReorderPriority, bool) {
	if reorderLevel.LessThanOrEqual(decimal.Zero) {
		return "", false
	}
	if currentStock.GreaterThanOrEqual(reorderLevel) {
		return "", false
	}
	switch {
	case currentStock.LessThanOrEqual(decimal.Zero):
		return PriorityCritical, true
	case currentStock.LessThan(reorderLevel.Mul(highFactor)):
		return PriorityHigh, true
	case currentStock.LessThan(reorderLevel.Mul(mediumFactor)):
		return PriorityMedium, true
	default:
		return PriorityLow, true
	}
}

// RecommendedQuantity cantidad sugerida de pedido: la cantidad de reorden del
// catálogo, o el nivel de reorden si aquella no está configurada.
func RecommendedQuantity(m *entity.Material) decimal.Decimal {
	if m.ReorderQuantity.GreaterThan(decimal.Zero) {
		return m.ReorderQuantity
	}
	return m.ReorderLevel
}
