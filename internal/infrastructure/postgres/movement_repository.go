package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/textil-erp/internal/domain/entity"
	"github.com/tu-usuario/textil-erp/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, material_id, movement_type, quantity, batch_number,
	from_location, to_location, reference_type, reference_id, unit_cost,
	total_value, notes, created_by, created_at`

// MovementRepo ledger de movimientos sobre PostgreSQL (usable con pool o tx).
// Append-only: no hay UPDATE ni DELETE contra movements.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Append persiste un movimiento. Asigna ID si viene vacío.
func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO movements (id, material_id, movement_type, quantity, batch_number,
			from_location, to_location, reference_type, reference_id, unit_cost,
			total_value, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.MaterialID, string(m.Type), m.Quantity, m.BatchNumber,
		m.FromLocation, m.ToLocation, m.ReferenceType, m.ReferenceID, m.UnitCost,
		m.TotalValue, m.Notes, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	return nil
}

// List historial paginado, created_at descendente, más el total de filas que
// cumplen el filtro.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	pos := 1
	if f.MaterialID != "" {
		where += fmt.Sprintf(" AND material_id = $%d", pos)
		args = append(args, f.MaterialID)
		pos++
	}
	if f.Type != nil {
		where += fmt.Sprintf(" AND movement_type = $%d", pos)
		args = append(args, string(*f.Type))
		pos++
	}
	if f.From != nil {
		where += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		where += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}

	var total int
	if err := r.q.QueryRow(ctx, "SELECT COUNT(*) FROM movements"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	query := `SELECT ` + movementColumns + ` FROM movements` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	list, err := scanMovements(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListByMaterialAsc historial completo de un material en orden ascendente,
// para replay y conciliación del ledger.
func (r *MovementRepo) ListByMaterialAsc(ctx context.Context, materialID string) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + `
		FROM movements WHERE material_id = $1
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, materialID)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()
	return scanMovements(rows)
}

func scanMovements(rows pgx.Rows) ([]*entity.Movement, error) {
	var list []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		var movType string
		if err := rows.Scan(
			&m.ID, &m.MaterialID, &movType, &m.Quantity, &m.BatchNumber,
			&m.FromLocation, &m.ToLocation, &m.ReferenceType, &m.ReferenceID,
			&m.UnitCost, &m.TotalValue, &m.Notes, &m.CreatedBy, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.Type = entity.MovementType(movType)
		list = append(list, &m)
	}
	return list, rows.Err()
}
