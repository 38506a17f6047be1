package stock

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/textil-erp/internal/application/dto"
	"github.com/tu-usuario/textil-erp/internal/domain"
	"github.com/tu-usuario/textil-erp/internal/domain/entity"
	"github.com/tu-usuario/textil-erp/internal/domain/inventory"
	"github.com/tu-usuario/textil-erp/internal/domain/repository"
)

// QueryUseCase lecturas del inventario: niveles de stock, historial de
// movimientos y libro mayor. Solo snapshots consistentes, nunca muta estado.
type QueryUseCase struct {
	materials repository.MaterialRepository
	records   repository.StockRecordRepository
	movements repository.MovementRepository
}

// NewQueryUseCase construye las consultas de inventario.
func NewQueryUseCase(
	materials repository.MaterialRepository,
	records repository.StockRecordRepository,
	movements repository.MovementRepository,
) *QueryUseCase {
	return &QueryUseCase{materials: materials, records: records, movements: movements}
}

// StockLevels niveles agregados por material con indicador de bajo stock.
// lowStockOnly filtra a los materiales bajo su nivel de reorden.
func (uc *QueryUseCase) StockLevels(ctx context.Context, materialID, location string, lowStockOnly bool) (*dto.StockLevelsResponse, error) {
	rows, err := uc.records.StockLevels(ctx, repository.StockLevelFilter{
		MaterialID: materialID,
		Location:   location,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockLevelDTO, 0, len(rows))
	for _, row := range rows {
		isLow := row.ReorderLevel.GreaterThan(decimal.Zero) &&
			row.CurrentStock.LessThan(row.ReorderLevel)
		if lowStockOnly && !isLow {
			continue
		}
		out = append(out, dto.StockLevelDTO{
			MaterialID:   row.MaterialID,
			MaterialCode: row.MaterialCode,
			Name:         row.Name,
			Unit:         row.Unit,
			CurrentStock: row.CurrentStock,
			ReorderLevel: row.ReorderLevel,
			StockValue:   row.StockValue,
			IsLowStock:   isLow,
		})
	}
	return &dto.StockLevelsResponse{TotalItems: len(out), Stock: out}, nil
}

// MovementHistory historial paginado, created_at descendente.
func (uc *QueryUseCase) MovementHistory(ctx context.Context, f repository.MovementFilter) (*dto.MovementListResponse, error) {
	list, total, err := uc.movements.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementDTO, 0, len(list))
	for _, m := range list {
		out = append(out, toMovementDTO(m))
	}
	return &dto.MovementListResponse{
		Total:     total,
		Movements: out,
		Page:      dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Total: total},
	}, nil
}

// Ledger libro mayor de un material: historial completo ascendente más el
// stock agregado actual, para auditoría y conciliación contra el replay.
func (uc *QueryUseCase) Ledger(ctx context.Context, materialID string) (*dto.LedgerResponse, error) {
	material, err := uc.materials.GetByID(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, domain.ErrNotFound
	}
	movements, err := uc.movements.ListByMaterialAsc(ctx, materialID)
	if err != nil {
		return nil, err
	}
	current, err := uc.records.SumByMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementDTO, 0, len(movements))
	for _, m := range movements {
		out = append(out, toMovementDTO(m))
	}
	return &dto.LedgerResponse{
		Material:     *toLedgerMaterial(material),
		CurrentStock: current,
		Movements:    out,
	}, nil
}

// ReorderAlerts alertas de reposición, recalculadas en cada lectura desde el
// agregado de lotes; sin estado de alerta persistido. priority filtra por
// coincidencia exacta.
func (uc *QueryUseCase) ReorderAlerts(ctx context.Context, priority string) (*dto.ReorderAlertsResponse, error) {
	var wanted *inventory.ReorderPriority
	if priority != "" {
		p, ok := inventory.ParseReorderPriority(priority)
		if !ok {
			return nil, domain.ErrInvalidInput
		}
		wanted = &p
	}
	candidates, err := uc.records.ReorderCandidates(ctx)
	if err != nil {
		return nil, err
	}
	alerts := make([]dto.ReorderAlertDTO, 0, len(candidates))
	for _, c := range candidates {
		p, ok := inventory.ClassifyReorder(c.CurrentStock, c.ReorderLevel)
		if !ok {
			continue
		}
		if wanted != nil && p != *wanted {
			continue
		}
		alerts = append(alerts, dto.ReorderAlertDTO{
			MaterialID:   c.MaterialID,
			MaterialCode: c.MaterialCode,
			Name:         c.Name,
			Unit:         c.Unit,
			CurrentStock: c.CurrentStock,
			ReorderLevel: c.ReorderLevel,
			RecommendedQuantity: inventory.RecommendedQuantity(&entity.Material{
				ReorderLevel:    c.ReorderLevel,
				ReorderQuantity: c.ReorderQuantity,
			}),
			Priority: string(p),
		})
	}
	return &dto.ReorderAlertsResponse{TotalAlerts: len(alerts), Alerts: alerts}, nil
}

func toMovementDTO(m *entity.Movement) dto.MovementDTO {
	return dto.MovementDTO{
		ID:            m.ID,
		MaterialID:    m.MaterialID,
		Type:          string(m.Type),
		Quantity:      m.Quantity,
		BatchNumber:   m.BatchNumber,
		FromLocation:  m.FromLocation,
		ToLocation:    m.ToLocation,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		UnitCost:      m.UnitCost,
		TotalValue:    m.TotalValue,
		Notes:         m.Notes,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

func toLedgerMaterial(m *entity.Material) *dto.MaterialResponse {
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
