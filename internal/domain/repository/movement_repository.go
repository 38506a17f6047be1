package repository

import (
	"context"
	"time"

	"github.com/tu-usuario/textil-erp/internal/domain/entity"
)

// MovementFilter filtros del historial de movimientos.
type MovementFilter struct {
	MaterialID string
	Type       *entity.MovementType
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// MovementRepository puerto del ledger de movimientos. Append-only: Append es
// el único mutador y solo lo invoca el Stock Record Store dentro de su
// transacción; no existe update ni delete.
type MovementRepository interface {
	Append(ctx context.Context, m *entity.Movement) error
	// List historial paginado, created_at descendente (actividad reciente).
	// Devuelve además el total de filas que cumplen el filtro.
	List(ctx context.Context, f MovementFilter) ([]*entity.Movement, int, error)
	// ListByMaterialAsc historial completo de un material en orden de
	// timestamp ascendente, para replay y conciliación del ledger.
	ListByMaterialAsc(ctx context.Context, materialID string) ([]*entity.Movement, error)
}
