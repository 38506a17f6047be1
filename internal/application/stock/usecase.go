package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/textil-erp/internal/application/dto"
	"github.com/tu-usuario/textil-erp/internal/domain"
	"github.com/tu-usuario/textil-erp/internal/domain/entity"
	"github.com/tu-usuario/textil-erp/internal/domain/inventory"
	"github.com/tu-usuario/textil-erp/internal/domain/repository"
)

// StockUseCase motor de stock: receive, issue, transfer, adjust y return.
// Cada operación muta uno (o dos, en transfer) StockRecord y agrega
// exactamente un Movement, todo dentro de una transacción con bloqueo de
// fila (SELECT FOR UPDATE) vía TxRunner.
//
// Los números de lote autogenerados salen de una secuencia atómica
// (reserve-before-use), nunca de contar filas.
type StockUseCase struct {
	tx        TxRunner
	materials repository.MaterialRepository
	records   repository.StockRecordRepository
	batchSeq  repository.BatchSequence
}

// NewStockUseCase construye el motor de stock.
func NewStockUseCase(
	tx TxRunner,
	materials repository.MaterialRepository,
	records repository.StockRecordRepository,
	batchSeq repository.BatchSequence,
) *StockUseCase {
	return &StockUseCase{tx: tx, materials: materials, records: records, batchSeq: batchSeq}
}

// Receive ingresa stock: crea el lote si (material, lote, ubicación) no
// existe o suma a su cantidad, y agrega el movimiento RECEIPT. Los lotes
// nuevos nacen con calidad approved.
func (uc *StockUseCase) Receive(ctx context.Context, userID string, in dto.ReceiveStockRequest) (*dto.StockOperationResponse, error) {
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	material, err := uc.activeMaterial(ctx, in.MaterialID)
	if err != nil {
		return nil, err
	}

	location := in.Location
	if location == "" {
		location = entity.DefaultLocation
	}
	unitCost := material.UnitCost
	if in.UnitCost != nil {
		if in.UnitCost.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		unitCost = *in.UnitCost
	}

	batchNumber := in.BatchNumber
	if batchNumber == "" {
		// Reservar el número antes de abrir la transacción: si la tx falla
		// el número se pierde, nunca se repite.
		batchNumber, err = uc.batchSeq.Next(ctx)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	err = uc.tx.Run(ctx, func(records repository.StockRecordRepository, movements repository.MovementRepository) error {
		record, err := records.GetForUpdate(ctx, in.MaterialID, batchNumber, location)
		if err != nil {
			return err
		}
		if record == nil {
			record = &entity.StockRecord{
				ID:            uuid.New().String(),
				MaterialID:    in.MaterialID,
				BatchNumber:   batchNumber,
				Location:      location,
				Quantity:      decimal.Zero,
				UnitCost:      unitCost,
				QualityStatus: entity.QualityApproved,
				CreatedAt:     now,
			}
		}
		// Entrada sobre un lote con remanente: el lote queda al costo
		// promedio ponderado; el movimiento conserva el costo de la entrada.
		recordCost := unitCost
		if record.Quantity.GreaterThan(decimal.Zero) {
			recordCost = inventory.CostCalculator(record.Quantity, record.UnitCost, in.Quantity, unitCost)
		}
		record.Quantity = record.Quantity.Add(in.Quantity)
		record.UnitCost = recordCost
		record.Recalculate()
		record.UpdatedAt = now
		if err := records.Save(ctx, record); err != nil {
			return err
		}

		refType := entity.ReferenceManual
		if in.POID != "" {
			refType = entity.ReferencePurchaseOrder
		}
		return movements.Append(ctx, &entity.Movement{
			MaterialID:    in.MaterialID,
			Type:          entity.MovementReceipt,
			Quantity:      in.Quantity,
			BatchNumber:   batchNumber,
			ToLocation:    location,
			ReferenceType: refType,
			ReferenceID:   in.POID,
			UnitCost:      unitCost,
			TotalValue:    in.Quantity.Mul(unitCost),
			CreatedBy:     userID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}
	return &dto.StockOperationResponse{
		Message:     "stock recibido",
		BatchNumber: batchNumber,
		Quantity:    in.Quantity,
	}, nil
}

// Issue emite stock. Con lote explícito resuelve ese registro; sin lote toma
// el más antiguo del material con cantidad > 0 (FIFO determinista).
// InsufficientStockError lleva la cantidad disponible del lote resuelto.
func (uc *StockUseCase) Issue(ctx context.Context, userID string, in dto.IssueStockRequest) (*dto.StockOperationResponse, error) {
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if _, err := uc.activeMaterial(ctx, in.MaterialID); err != nil {
		return nil, err
	}

	now := time.Now()
	var resolvedBatch string
	err := uc.tx.Run(ctx, func(records repository.StockRecordRepository, movements repository.MovementRepository) error {
		var record *entity.StockRecord
		var err error
		if in.BatchNumber != "" {
			record, err = records.GetByBatchForUpdate(ctx, in.MaterialID, in.BatchNumber)
		} else {
			record, err = records.OldestAvailableForUpdate(ctx, in.MaterialID)
		}
		if err != nil {
			return err
		}
		if record == nil {
			return domain.ErrNotFound
		}
		if record.Quantity.LessThan(in.Quantity) {
			return &domain.InsufficientStockError{
				BatchNumber: record.BatchNumber,
				Available:   record.Quantity,
				Requested:   in.Quantity,
			}
		}
		record.Quantity = record.Quantity.Sub(in.Quantity)
		record.Recalculate()
		record.UpdatedAt = now
		if err := records.Save(ctx, record); err != nil {
			return err
		}
		resolvedBatch = record.BatchNumber

		refType := entity.ReferenceManual
		if in.WOID != "" {
			refType = entity.ReferenceWorkOrder
		}
		return movements.Append(ctx, &entity.Movement{
			MaterialID:    in.MaterialID,
			Type:          entity.MovementIssue,
			Quantity:      in.Quantity.Neg(),
			BatchNumber:   record.BatchNumber,
			FromLocation:  record.Location,
			ReferenceType: refType,
			ReferenceID:   in.WOID,
			UnitCost:      record.UnitCost,
			TotalValue:    in.Quantity.Neg().Mul(record.UnitCost),
			Notes:         in.Notes,
			CreatedBy:     userID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}
	return &dto.StockOperationResponse{
		Message:     "stock emitido",
		BatchNumber: resolvedBatch,
		Quantity:    in.Quantity,
	}, nil
}

// Transfer mueve cantidad de un lote entre ubicaciones: descuenta en origen,
// suma (o crea, heredando costo, calidad y fecha de creación) en destino y
// agrega exactamente UN movimiento TRANSFER. Todo o nada.
func (uc *StockUseCase) Transfer(ctx context.Context, userID string, in dto.TransferStockRequest) (*dto.StockOperationResponse, error) {
	if !in.Quantity.GreaterThan(decimal.Zero) || in.BatchNumber == "" ||
		in.FromLocation == "" || in.ToLocation == "" || in.FromLocation == in.ToLocation {
		return nil, domain.ErrInvalidInput
	}
	if _, err := uc.activeMaterial(ctx, in.MaterialID); err != nil {
		return nil, err
	}

	now := time.Now()
	err := uc.tx.Run(ctx, func(records repository.StockRecordRepository, movements repository.MovementRepository) error {
		source, err := records.GetForUpdate(ctx, in.MaterialID, in.BatchNumber, in.FromLocation)
		if err != nil {
			return err
		}
		if source == nil {
			return domain.ErrNotFound
		}
		if source.Quantity.LessThan(in.Quantity) {
			return &domain.InsufficientStockError{
				BatchNumber: source.BatchNumber,
				Available:   source.Quantity,
				Requested:   in.Quantity,
			}
		}
		dest, err := records.GetForUpdate(ctx, in.MaterialID, in.BatchNumber, in.ToLocation)
		if err != nil {
			return err
		}
		if dest == nil {
			// El destino hereda costo, calidad y fecha de creación del
			// origen: el lote sigue siendo el mismo para la regla FIFO.
			dest = &entity.StockRecord{
				ID:            uuid.New().String(),
				MaterialID:    in.MaterialID,
				BatchNumber:   in.BatchNumber,
				Location:      in.ToLocation,
				Quantity:      decimal.Zero,
				UnitCost:      source.UnitCost,
				QualityStatus: source.QualityStatus,
				CreatedAt:     source.CreatedAt,
			}
		}
		source.Quantity = source.Quantity.Sub(in.Quantity)
		dest.Quantity = dest.Quantity.Add(in.Quantity)
		source.Recalculate()
		dest.Recalculate()
		source.UpdatedAt = now
		dest.UpdatedAt = now
		if err := records.Save(ctx, source); err != nil {
			return err
		}
		if err := records.Save(ctx, dest); err != nil {
			return err
		}
		return movements.Append(ctx, &entity.Movement{
			MaterialID:    in.MaterialID,
			Type:          entity.MovementTransfer,
			Quantity:      in.Quantity,
			BatchNumber:   in.BatchNumber,
			FromLocation:  in.FromLocation,
			ToLocation:    in.ToLocation,
			ReferenceType: entity.ReferenceManual,
			UnitCost:      source.UnitCost,
			TotalValue:    in.Quantity.Mul(source.UnitCost),
			CreatedBy:     userID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}
	return &dto.StockOperationResponse{
		Message:     "stock trasladado",
		BatchNumber: in.BatchNumber,
		Quantity:    in.Quantity,
	}, nil
}

// Adjust corrección con signo (conciliación de conteo físico). Falla si la
// cantidad resultante quedaría negativa.
func (uc *StockUseCase) Adjust(ctx context.Context, userID string, in dto.AdjustStockRequest) (*dto.StockOperationResponse, error) {
	if in.Delta.IsZero() || in.BatchNumber == "" {
		return nil, domain.ErrInvalidInput
	}
	if _, err := uc.activeMaterial(ctx, in.MaterialID); err != nil {
		return nil, err
	}

	now := time.Now()
	err := uc.tx.Run(ctx, func(records repository.StockRecordRepository, movements repository.MovementRepository) error {
		var record *entity.StockRecord
		var err error
		if in.Location != "" {
			record, err = records.GetForUpdate(ctx, in.MaterialID, in.BatchNumber, in.Location)
		} else {
			record, err = records.GetByBatchForUpdate(ctx, in.MaterialID, in.BatchNumber)
		}
		if err != nil {
			return err
		}
		if record == nil {
			return domain.ErrNotFound
		}
		newQty := record.Quantity.Add(in.Delta)
		if newQty.IsNegative() {
			return &domain.InsufficientStockError{
				BatchNumber: record.BatchNumber,
				Available:   record.Quantity,
				Requested:   in.Delta.Neg(),
			}
		}
		record.Quantity = newQty
		record.Recalculate()
		record.UpdatedAt = now
		if err := records.Save(ctx, record); err != nil {
			return err
		}

		mov := &entity.Movement{
			MaterialID:    in.MaterialID,
			Type:          entity.MovementAdjustment,
			Quantity:      in.Delta,
			BatchNumber:   record.BatchNumber,
			ReferenceType: entity.ReferenceManual,
			UnitCost:      record.UnitCost,
			TotalValue:    in.Delta.Mul(record.UnitCost),
			Notes:         in.Notes,
			CreatedBy:     userID,
			CreatedAt:     now,
		}
		if in.Delta.IsPositive() {
			mov.ToLocation = record.Location
		} else {
			mov.FromLocation = record.Location
		}
		return movements.Append(ctx, mov)
	})
	if err != nil {
		return nil, err
	}
	return &dto.StockOperationResponse{
		Message:     "stock ajustado",
		BatchNumber: in.BatchNumber,
		Quantity:    in.Delta,
	}, nil
}

// Return devolución de material no consumido (producción devuelve al
// almacén). Como un receive pero tipado RETURN y costeado al costo del lote
// si ya existe.
func (uc *StockUseCase) Return(ctx context.Context, userID string, in dto.ReturnStockRequest) (*dto.StockOperationResponse, error) {
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	material, err := uc.activeMaterial(ctx, in.MaterialID)
	if err != nil {
		return nil, err
	}

	location := in.Location
	if location == "" {
		location = entity.DefaultLocation
	}
	batchNumber := in.BatchNumber
	if batchNumber == "" {
		batchNumber, err = uc.batchSeq.Next(ctx)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	err = uc.tx.Run(ctx, func(records repository.StockRecordRepository, movements repository.MovementRepository) error {
		record, err := records.GetForUpdate(ctx, in.MaterialID, batchNumber, location)
		if err != nil {
			return err
		}
		if record == nil {
			record = &entity.StockRecord{
				ID:            uuid.New().String(),
				MaterialID:    in.MaterialID,
				BatchNumber:   batchNumber,
				Location:      location,
				Quantity:      decimal.Zero,
				UnitCost:      material.UnitCost,
				QualityStatus: entity.QualityApproved,
				CreatedAt:     now,
			}
		}
		record.Quantity = record.Quantity.Add(in.Quantity)
		record.Recalculate()
		record.UpdatedAt = now
		if err := records.Save(ctx, record); err != nil {
			return err
		}

		refType := entity.ReferenceManual
		if in.WOID != "" {
			refType = entity.ReferenceWorkOrder
		}
		return movements.Append(ctx, &entity.Movement{
			MaterialID:    in.MaterialID,
			Type:          entity.MovementReturn,
			Quantity:      in.Quantity,
			BatchNumber:   batchNumber,
			ToLocation:    location,
			ReferenceType: refType,
			ReferenceID:   in.WOID,
			UnitCost:      record.UnitCost,
			TotalValue:    in.Quantity.Mul(record.UnitCost),
			Notes:         in.Notes,
			CreatedBy:     userID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}
	return &dto.StockOperationResponse{
		Message:     "stock devuelto",
		BatchNumber: batchNumber,
		Quantity:    in.Quantity,
	}, nil
}

// SetQualityStatus interfaz para el módulo de calidad: fija el estado de un
// lote sin generar movimiento (no cambia cantidades). La emisión de lotes en
// cuarentena NO se bloquea aquí; esa política es del caller.
//
// Corre dentro del TxRunner con bloqueo de fila: el Save reescribe la fila
// completa, y sin el lock una recepción o emisión que comitee entre la
// lectura y el Save quedaría pisada por el snapshot viejo.
func (uc *StockUseCase) SetQualityStatus(ctx context.Context, in dto.SetQualityStatusRequest) error {
	status, ok := entity.ParseQualityStatus(in.Status)
	if !ok {
		return domain.ErrInvalidInput
	}
	if in.BatchNumber == "" || in.Location == "" {
		return domain.ErrInvalidInput
	}
	if _, err := uc.activeMaterial(ctx, in.MaterialID); err != nil {
		return err
	}
	return uc.tx.Run(ctx, func(records repository.StockRecordRepository, _ repository.MovementRepository) error {
		record, err := records.GetForUpdate(ctx, in.MaterialID, in.BatchNumber, in.Location)
		if err != nil {
			return err
		}
		if record == nil {
			return domain.ErrNotFound
		}
		record.QualityStatus = status
		record.UpdatedAt = time.Now()
		return records.Save(ctx, record)
	})
}

// CurrentStock stock agregado actual de un material.
func (uc *StockUseCase) CurrentStock(ctx context.Context, materialID string) (decimal.Decimal, error) {
	if _, err := uc.activeMaterial(ctx, materialID); err != nil {
		return decimal.Zero, err
	}
	return uc.records.SumByMaterial(ctx, materialID)
}

func (uc *StockUseCase) activeMaterial(ctx context.Context, id string) (*entity.Material, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	m, err := uc.materials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.IsActive {
		return nil, domain.ErrNotFound
	}
	return m, nil
}
