package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/textil-erp/internal/domain/entity"
	"github.com/tu-usuario/textil-erp/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

const stockRecordColumns = `id, material_id, batch_number, location, quantity,
	unit_cost, total_value, quality_status, created_at, updated_at`

// StockRecordRepo implementación de StockRecordRepository sobre PostgreSQL
// (usable con pool o tx). Las variantes ForUpdate requieren una tx.
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

// Get obtiene un lote por clave natural. (nil, nil) si no existe.
func (r *StockRecordRepo) Get(ctx context.Context, materialID, batchNumber, location string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockRecordColumns + `
		FROM stock_records WHERE material_id = $1 AND batch_number = $2 AND location = $3`
	return scanStockRecordRow(r.q.QueryRow(ctx, query, materialID, batchNumber, location))
}

// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE).
func (r *StockRecordRepo) GetForUpdate(ctx context.Context, materialID, batchNumber, location string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockRecordColumns + `
		FROM stock_records WHERE material_id = $1 AND batch_number = $2 AND location = $3
		FOR UPDATE`
	return scanStockRecordRow(r.q.QueryRow(ctx, query, materialID, batchNumber, location))
}

// GetByBatchForUpdate resuelve por material y lote sin ubicación; con varias
// ubicaciones toma la fila más antigua. Orden determinista: created_at, id.
// Acá no hace falta el reintento de OldestAvailableForUpdate: las columnas
// del WHERE y del ORDER BY son inmutables, la recomprobación tras un lock
// nunca descarta la fila.
func (r *StockRecordRepo) GetByBatchForUpdate(ctx context.Context, materialID, batchNumber string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockRecordColumns + `
		FROM stock_records WHERE material_id = $1 AND batch_number = $2
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE`
	return scanStockRecordRow(r.q.QueryRow(ctx, query, materialID, batchNumber))
}

// Reintentos de OldestAvailableForUpdate cuando el SELECT vuelve vacío tras
// esperar un lock.
const oldestAvailableRetries = 3

// OldestAvailableForUpdate lote más antiguo del material con cantidad > 0,
// bloqueado. Orden determinista: created_at, id.
//
// Bajo READ COMMITTED la fila elegida se recomprueba contra el WHERE al
// soltarse un lock concurrente: si otra emisión la drenó a cero, quantity > 0
// ya no se cumple y con LIMIT 1 la consulta devuelve cero filas aunque
// existan lotes posteriores con stock. Se reintenta dentro de la misma tx:
// el statement siguiente toma un snapshot nuevo que excluye la fila drenada
// y selecciona el próximo lote elegible.
func (r *StockRecordRepo) OldestAvailableForUpdate(ctx context.Context, materialID string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockRecordColumns + `
		FROM stock_records WHERE material_id = $1 AND quantity > 0
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE`
	for i := 0; i < oldestAvailableRetries; i++ {
		record, err := scanStockRecordRow(r.q.QueryRow(ctx, query, materialID))
		if err != nil || record != nil {
			return record, err
		}
	}
	return nil, nil
}

// Save inserta o actualiza por la clave (material, lote, ubicación). La fila
// nunca se borra: un lote agotado queda con cantidad cero.
func (r *StockRecordRepo) Save(ctx context.Context, s *entity.StockRecord) error {
	query := `
		INSERT INTO stock_records (id, material_id, batch_number, location, quantity,
			unit_cost, total_value, quality_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (material_id, batch_number, location)
		DO UPDATE SET quantity = EXCLUDED.quantity, unit_cost = EXCLUDED.unit_cost,
			total_value = EXCLUDED.total_value, quality_status = EXCLUDED.quality_status,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.MaterialID, s.BatchNumber, s.Location, s.Quantity,
		s.UnitCost, s.TotalValue, string(s.QualityStatus), s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save stock record: %w", err)
	}
	return nil
}

// SumByMaterial stock actual del material: suma de cantidades de sus lotes.
func (r *StockRecordRepo) SumByMaterial(ctx context.Context, materialID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM stock_records WHERE material_id = $1`
	var sum decimal.Decimal
	if err := r.q.QueryRow(ctx, query, materialID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum stock: %w", err)
	}
	return sum, nil
}

// StockLevels niveles agregados por material (suma de lotes) con los campos
// de catálogo para la respuesta. Solo materiales activos.
func (r *StockRecordRepo) StockLevels(ctx context.Context, f repository.StockLevelFilter) ([]repository.StockLevelRow, error) {
	query := `
		SELECT m.id, m.material_code, m.name, m.unit, m.reorder_level,
			COALESCE(SUM(s.quantity), 0), COALESCE(SUM(s.total_value), 0)
		FROM materials m
		LEFT JOIN stock_records s ON s.material_id = m.id`
	args := []any{}
	pos := 1
	if f.Location != "" {
		query += fmt.Sprintf(" AND s.location = $%d", pos)
		args = append(args, f.Location)
		pos++
	}
	query += " WHERE m.is_active = true"
	if f.MaterialID != "" {
		query += fmt.Sprintf(" AND m.id = $%d", pos)
		args = append(args, f.MaterialID)
	}
	query += `
		GROUP BY m.id, m.material_code, m.name, m.unit, m.reorder_level
		ORDER BY m.material_code`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stock levels: %w", err)
	}
	defer rows.Close()
	var list []repository.StockLevelRow
	for rows.Next() {
		var row repository.StockLevelRow
		if err := rows.Scan(&row.MaterialID, &row.MaterialCode, &row.Name, &row.Unit,
			&row.ReorderLevel, &row.CurrentStock, &row.StockValue); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, row)
	}
	return list, rows.Err()
}

// ReorderCandidates materiales activos con umbral configurado cuyo stock
// agregado quedó por debajo, ordenados por déficit relativo (los más
// críticos primero).
func (r *StockRecordRepo) ReorderCandidates(ctx context.Context) ([]repository.ReorderCandidate, error) {
	query := `
		SELECT m.id, m.material_code, m.name, m.unit, m.reorder_level,
			m.reorder_quantity, COALESCE(SUM(s.quantity), 0) AS current_stock
		FROM materials m
		LEFT JOIN stock_records s ON s.material_id = m.id
		WHERE m.is_active = true AND m.reorder_level > 0
		GROUP BY m.id, m.material_code, m.name, m.unit, m.reorder_level, m.reorder_quantity
		HAVING COALESCE(SUM(s.quantity), 0) < m.reorder_level
		ORDER BY COALESCE(SUM(s.quantity), 0) / m.reorder_level, m.material_code`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reorder candidates: %w", err)
	}
	defer rows.Close()
	var list []repository.ReorderCandidate
	for rows.Next() {
		var c repository.ReorderCandidate
		if err := rows.Scan(&c.MaterialID, &c.MaterialCode, &c.Name, &c.Unit,
			&c.ReorderLevel, &c.ReorderQuantity, &c.CurrentStock); err != nil {
			return nil, fmt.Errorf("scan reorder candidate: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func scanStockRecordRow(row pgx.Row) (*entity.StockRecord, error) {
	var s entity.StockRecord
	var quality string
	err := row.Scan(
		&s.ID, &s.MaterialID, &s.BatchNumber, &s.Location, &s.Quantity,
		&s.UnitCost, &s.TotalValue, &quality, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan stock record: %w", err)
	}
	s.QualityStatus = entity.QualityStatus(quality)
	return &s, nil
}
