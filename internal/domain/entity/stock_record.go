package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// QualityStatus estado de calidad de un lote. El módulo de calidad lo fija
// vía SetQualityStatus; emitir/trasladar NO lo valida (decisión del caller).
type QualityStatus string

const (
	QualityApproved   QualityStatus = "approved"
	QualityQuarantine QualityStatus = "quarantine"
	QualityRejected   QualityStatus = "rejected"
)

// ParseQualityStatus valida un estado de calidad recibido por la API.
func ParseQualityStatus(s string) (QualityStatus, bool) {
	switch QualityStatus(s) {
	case QualityApproved, QualityQuarantine, QualityRejected:
		return QualityStatus(s), true
	}
	return "", false
}

// DefaultLocation ubicación centinela cuando el caller no indica una.
const DefaultLocation = "MAIN"

// StockRecord representa un lote de un material en una ubicación:
// la vista de estado actual del inventario. Único por (material, lote,
// ubicación). La cantidad nunca baja de cero y la fila nunca se borra:
// con cantidad cero queda como historia del lote.
// Invariante: TotalValue == Quantity * UnitCost (recalculado en cada mutación).
type StockRecord struct {
	ID            string
	MaterialID    string
	BatchNumber   string
	Location      string
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	TotalValue    decimal.Decimal
	QualityStatus QualityStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Recalculate recalcula TotalValue tras mutar Quantity o UnitCost.
func (s *StockRecord) Recalculate() {
	s.TotalValue = s.Quantity.Mul(s.UnitCost)
}
