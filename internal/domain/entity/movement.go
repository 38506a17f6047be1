package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo cerrado de movimiento de stock.
type MovementType string

const (
	MovementReceipt    MovementType = "receipt"
	MovementIssue      MovementType = "issue"
	MovementTransfer   MovementType = "transfer"
	MovementAdjustment MovementType = "adjustment"
	MovementReturn     MovementType = "return"
)

// ParseMovementType valida un tipo de movimiento recibido por la API.
func ParseMovementType(s string) (MovementType, bool) {
	switch MovementType(s) {
	case MovementReceipt, MovementIssue, MovementTransfer,
		MovementAdjustment, MovementReturn:
		return MovementType(s), true
	}
	return "", false
}

// Tipos de referencia externa que etiquetan un movimiento. Son punteros
// opacos a entidades de otros módulos (compras, producción); este núcleo
// no los resuelve.
const (
	ReferencePurchaseOrder = "purchase_order"
	ReferenceWorkOrder     = "work_order"
	ReferenceManual        = "manual"
)

// Movement registro inmutable de un evento que cambia cantidades. El ledger
// es append-only: las correcciones se hacen con nuevos movimientos
// (adjustment/return), nunca editando historia.
//
// Quantity lleva el signo del efecto sobre el material: positivo en
// receipt/return, negativo en issue, con signo libre en adjustment. Un
// transfer lleva la cantidad movida (positiva) con FromLocation/ToLocation;
// su efecto neto sobre el total del material es cero (ver SignedEffect).
type Movement struct {
	ID            string
	MaterialID    string
	Type          MovementType
	Quantity      decimal.Decimal
	BatchNumber   string
	FromLocation  string
	ToLocation    string
	ReferenceType string
	ReferenceID   string
	UnitCost      decimal.Decimal
	TotalValue    decimal.Decimal
	Notes         string
	CreatedBy     string
	CreatedAt     time.Time
}

// SignedEffect delta que aporta el movimiento al stock total del material al
// reproducir el ledger. Los transfer mueven cantidad entre ubicaciones sin
// alterar el total, por lo que su efecto es cero.
func (m *Movement) SignedEffect() decimal.Decimal {
	if m.Type == MovementTransfer {
		return decimal.Zero
	}
	return m.Quantity
}
