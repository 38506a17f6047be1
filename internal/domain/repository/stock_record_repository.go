package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/textil-erp/internal/domain/entity"
)

// StockLevelFilter filtros de la consulta agregada de niveles de stock.
type StockLevelFilter struct {
	MaterialID string
	Location   string
}

// StockLevelRow nivel de stock agregado de un material (suma de todos sus
// lotes), con los campos de catálogo necesarios para la respuesta.
type StockLevelRow struct {
	MaterialID   string
	MaterialCode string
	Name         string
	Unit         string
	ReorderLevel decimal.Decimal
	CurrentStock decimal.Decimal
	StockValue   decimal.Decimal
}

// ReorderCandidate material activo cuyo stock agregado está por debajo de su
// nivel de reorden, insumo del motor de alertas.
type ReorderCandidate struct {
	MaterialID      string
	MaterialCode    string
	Name            string
	Unit            string
	ReorderLevel    decimal.Decimal
	ReorderQuantity decimal.Decimal
	CurrentStock    decimal.Decimal
}

// StockRecordRepository puerto de persistencia de lotes (estado actual).
// Los Get devuelven (nil, nil) cuando el lote no existe. Las variantes
// ForUpdate bloquean la fila (SELECT FOR UPDATE) y deben usarse dentro de la
// transacción del TxRunner.
type StockRecordRepository interface {
	Get(ctx context.Context, materialID, batchNumber, location string) (*entity.StockRecord, error)
	GetForUpdate(ctx context.Context, materialID, batchNumber, location string) (*entity.StockRecord, error)
	// GetByBatchForUpdate resuelve por material y lote sin ubicación; si el
	// lote existe en varias ubicaciones toma el registro más antiguo
	// (ORDER BY created_at, id).
	GetByBatchForUpdate(ctx context.Context, materialID, batchNumber string) (*entity.StockRecord, error)
	// OldestAvailableForUpdate lote más antiguo del material con cantidad > 0.
	OldestAvailableForUpdate(ctx context.Context, materialID string) (*entity.StockRecord, error)
	// Save inserta o actualiza por la clave (material, lote, ubicación).
	Save(ctx context.Context, s *entity.StockRecord) error
	// SumByMaterial stock actual del material: suma de cantidades de todos
	// sus lotes (lectura de snapshot, sin bloqueo).
	SumByMaterial(ctx context.Context, materialID string) (decimal.Decimal, error)
	StockLevels(ctx context.Context, f StockLevelFilter) ([]StockLevelRow, error)
	// ReorderCandidates materiales activos con stock agregado bajo su nivel
	// de reorden (nivel > 0), ordenados por déficit relativo.
	ReorderCandidates(ctx context.Context) ([]ReorderCandidate, error)
}
