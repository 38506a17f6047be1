package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/textil-erp/internal/application/dto"
	"github.com/tu-usuario/textil-erp/internal/domain"
	"github.com/tu-usuario/textil-erp/internal/domain/entity"
	"github.com/tu-usuario/textil-erp/internal/domain/repository"
)

// MaterialUseCase casos de uso del catálogo de materiales. El stock no se
// toca aquí: toda mutación de cantidades pasa por el motor de stock.
type MaterialUseCase struct {
	materials repository.MaterialRepository
	records   repository.StockRecordRepository
}

// NewMaterialUseCase construye el caso de uso.
func NewMaterialUseCase(materials repository.MaterialRepository, records repository.StockRecordRepository) *MaterialUseCase {
	return &MaterialUseCase{materials: materials, records: records}
}

// Register da de alta un material. ErrDuplicate si el código ya existe,
// ErrInvalidInput si la categoría no pertenece al conjunto cerrado.
func (uc *MaterialUseCase) Register(ctx context.Context, in dto.CreateMaterialRequest) (*dto.MaterialResponse, error) {
	if in.MaterialCode == "" || in.Name == "" || in.Unit == "" {
		return nil, domain.ErrInvalidInput
	}
	category, ok := entity.ParseMaterialCategory(in.Category)
	if !ok {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.materials.GetByCode(ctx, in.MaterialCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now()
	m := &entity.Material{
		ID:              uuid.New().String(),
		MaterialCode:    in.MaterialCode,
		Name:            in.Name,
		Description:     in.Description,
		Category:        category,
		Unit:            in.Unit,
		ReorderLevel:    valueOrZero(in.ReorderLevel),
		ReorderQuantity: valueOrZero(in.ReorderQuantity),
		UnitCost:        valueOrZero(in.UnitCost),
		HSNCode:         in.HSNCode,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.materials.Create(ctx, m); err != nil {
		return nil, err
	}
	return toMaterialResponse(m), nil
}

// Lookup devuelve la ficha del material más su stock agregado actual.
// ErrNotFound si no existe o está inactivo.
func (uc *MaterialUseCase) Lookup(ctx context.Context, id string) (*dto.MaterialDetailResponse, error) {
	m, err := uc.activeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	stock, err := uc.records.SumByMaterial(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.MaterialDetailResponse{
		Material:     *toMaterialResponse(m),
		CurrentStock: stock,
	}, nil
}

// List lista materiales activos con filtro por categoría y búsqueda por
// código/nombre.
func (uc *MaterialUseCase) List(ctx context.Context, category, search string, limit, offset int) (*dto.MaterialListResponse, error) {
	filter := repository.MaterialFilter{Search: search, Limit: limit, Offset: offset}
	if category != "" {
		c, ok := entity.ParseMaterialCategory(category)
		if !ok {
			return nil, domain.ErrInvalidInput
		}
		filter.Category = &c
	}
	list, err := uc.materials.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MaterialResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *toMaterialResponse(m))
	}
	return &dto.MaterialListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// UpdateThresholds edita nivel de reorden, cantidad de reorden y costo
// estándar. El resto de la ficha es inmutable una vez referenciada.
func (uc *MaterialUseCase) UpdateThresholds(ctx context.Context, id string, in dto.UpdateThresholdsRequest) (*dto.MaterialResponse, error) {
	m, err := uc.activeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.ReorderLevel != nil {
		if in.ReorderLevel.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		m.ReorderLevel = *in.ReorderLevel
	}
	if in.ReorderQuantity != nil {
		if in.ReorderQuantity.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		m.ReorderQuantity = *in.ReorderQuantity
	}
	if in.UnitCost != nil {
		if in.UnitCost.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		m.UnitCost = *in.UnitCost
	}
	m.UpdatedAt = time.Now()
	if err := uc.materials.Update(ctx, m); err != nil {
		return nil, err
	}
	return toMaterialResponse(m), nil
}

// Deactivate baja lógica: la ficha queda fuera de listados y lookups pero
// sus lotes y movimientos históricos se conservan.
func (uc *MaterialUseCase) Deactivate(ctx context.Context, id string) error {
	m, err := uc.activeByID(ctx, id)
	if err != nil {
		return err
	}
	m.IsActive = false
	m.UpdatedAt = time.Now()
	return uc.materials.Update(ctx, m)
}

func (uc *MaterialUseCase) activeByID(ctx context.Context, id string) (*entity.Material, error) {
	m, err := uc.materials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.IsActive {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func toMaterialResponse(m *entity.Material) *dto.MaterialResponse {
	return &dto.MaterialResponse{
		ID:              m.ID,
		MaterialCode:    m.MaterialCode,
		Name:            m.Name,
		Description:     m.Description,
		Category:        string(m.Category),
		Unit:            m.Unit,
		ReorderLevel:    m.ReorderLevel,
		ReorderQuantity: m.ReorderQuantity,
		UnitCost:        m.UnitCost,
		HSNCode:         m.HSNCode,
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
