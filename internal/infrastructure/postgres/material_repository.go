package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/textil-erp/internal/domain"
	"github.com/tu-usuario/textil-erp/internal/domain/entity"
	"github.com/tu-usuario/textil-erp/internal/domain/repository"
)

var _ repository.MaterialRepository = (*MaterialRepo)(nil)

const materialColumns = `id, material_code, name, description, category, unit,
	reorder_level, reorder_quantity, unit_cost, hsn_code, is_active, created_at, updated_at`

// MaterialRepo implementación de MaterialRepository sobre PostgreSQL (usable con pool o tx).
type MaterialRepo struct {
	q Querier
}

// NewMaterialRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMaterialRepository(q Querier) *MaterialRepo {
	return &MaterialRepo{q: q}
}

// Create inserta la ficha. ErrDuplicate si el código ya existe (constraint único).
func (r *MaterialRepo) Create(ctx context.Context, m *entity.Material) error {
	query := `
		INSERT INTO materials (id, material_code, name, description, category, unit,
			reorder_level, reorder_quantity, unit_cost, hsn_code, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.MaterialCode, m.Name, m.Description, string(m.Category), m.Unit,
		m.ReorderLevel, m.ReorderQuantity, m.UnitCost, m.HSNCode, m.IsActive,
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// GetByID obtiene un material por ID. (nil, nil) si no existe.
func (r *MaterialRepo) GetByID(ctx context.Context, id string) (*entity.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, id))
}

// GetByCode obtiene un material por código único. (nil, nil) si no existe.
func (r *MaterialRepo) GetByCode(ctx context.Context, code string) (*entity.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE material_code = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, code))
}

// List lista materiales activos con filtro opcional por categoría y búsqueda
// por código o nombre, ordenados por código.
func (r *MaterialRepo) List(ctx context.Context, f repository.MaterialFilter) ([]*entity.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE is_active = true`
	args := []any{}
	pos := 1
	if f.Category != nil {
		query += fmt.Sprintf(" AND category = $%d", pos)
		args = append(args, string(*f.Category))
		pos++
	}
	if f.Search != "" {
		query += fmt.Sprintf(" AND (material_code ILIKE $%d OR name ILIKE $%d)", pos, pos)
		args = append(args, "%"+f.Search+"%")
		pos++
	}
	query += fmt.Sprintf(" ORDER BY material_code LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()
	var list []*entity.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Update actualiza la ficha completa por ID.
func (r *MaterialRepo) Update(ctx context.Context, m *entity.Material) error {
	query := `
		UPDATE materials SET name = $2, description = $3, category = $4, unit = $5,
			reorder_level = $6, reorder_quantity = $7, unit_cost = $8, hsn_code = $9,
			is_active = $10, updated_at = $11
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		m.ID, m.Name, m.Description, string(m.Category), m.Unit,
		m.ReorderLevel, m.ReorderQuantity, m.UnitCost, m.HSNCode,
		m.IsActive, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *MaterialRepo) scanOne(row pgx.Row) (*entity.Material, error) {
	m, err := scanMaterial(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func scanMaterial(row pgx.Row) (*entity.Material, error) {
	var m entity.Material
	var category string
	if err := row.Scan(
		&m.ID, &m.MaterialCode, &m.Name, &m.Description, &category, &m.Unit,
		&m.ReorderLevel, &m.ReorderQuantity, &m.UnitCost, &m.HSNCode, &m.IsActive,
		&m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan material: %w", err)
	}
	m.Category = entity.MaterialCategory(category)
	return &m, nil
}
