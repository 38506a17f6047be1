package repository

import (
	"context"

	"github.com/tu-usuario/textil-erp/internal/domain/entity"
)

// MaterialFilter filtros del listado de catálogo. Search aplica substring
// case-insensitive sobre código y nombre.
type MaterialFilter struct {
	Category *entity.MaterialCategory
	Search   string
	Limit    int
	Offset   int
}

// MaterialRepository puerto de persistencia del catálogo de materiales.
// Los Get devuelven (nil, nil) cuando el material no existe.
type MaterialRepository interface {
	// Create persiste la ficha; ErrDuplicate si el código ya existe.
	Create(ctx context.Context, m *entity.Material) error
	GetByID(ctx context.Context, id string) (*entity.Material, error)
	GetByCode(ctx context.Context, code string) (*entity.Material, error)
	// List devuelve solo materiales activos que cumplan el filtro,
	// ordenados por código.
	List(ctx context.Context, f MaterialFilter) ([]*entity.Material, error)
	Update(ctx context.Context, m *entity.Material) error
}
