package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiveStockRequest body para POST /api/inventory/receive.
// batch_number vacío → se asigna uno de la secuencia atómica.
// location vacía → ubicación centinela "MAIN".
// unit_cost ausente → costo estándar del catálogo.
type ReceiveStockRequest struct {
	MaterialID  string           `json:"material_id"`
	Quantity    decimal.Decimal  `json:"quantity"`
	BatchNumber string           `json:"batch_number,omitempty"`
	Location    string           `json:"location,omitempty"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	POID        string           `json:"po_id,omitempty"`
}

// IssueStockRequest body para POST /api/inventory/issue.
// batch_number vacío → se emite del lote más antiguo con cantidad > 0.
type IssueStockRequest struct {
	MaterialID  string          `json:"material_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	BatchNumber string          `json:"batch_number,omitempty"`
	WOID        string          `json:"wo_id,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

// TransferStockRequest body para POST /api/inventory/transfer.
type TransferStockRequest struct {
	MaterialID   string          `json:"material_id"`
	BatchNumber  string          `json:"batch_number"`
	FromLocation string          `json:"from_location"`
	ToLocation   string          `json:"to_location"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// AdjustStockRequest body para POST /api/inventory/adjust. Delta con signo
// (conciliación de conteo físico); location vacía resuelve el lote más
// antiguo que coincida.
type AdjustStockRequest struct {
	MaterialID  string          `json:"material_id"`
	BatchNumber string          `json:"batch_number"`
	Location    string          `json:"location,omitempty"`
	Delta       decimal.Decimal `json:"delta"`
	Notes       string          `json:"notes,omitempty"`
}

// ReturnStockRequest body para POST /api/inventory/return (devolución de
// material no consumido por producción).
type ReturnStockRequest struct {
	MaterialID  string          `json:"material_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	BatchNumber string          `json:"batch_number,omitempty"`
	Location    string          `json:"location,omitempty"`
	WOID        string          `json:"wo_id,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

// SetQualityStatusRequest body para PUT /api/inventory/quality-status.
// Interfaz para el módulo de calidad; no genera movimiento.
type SetQualityStatusRequest struct {
	MaterialID  string `json:"material_id"`
	BatchNumber string `json:"batch_number"`
	Location    string `json:"location"`
	Status      string `json:"status"`
}

// StockOperationResponse confirmación de una operación de stock.
type StockOperationResponse struct {
	Message     string          `json:"message"`
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// StockLevelDTO nivel agregado de stock de un material.
type StockLevelDTO struct {
	MaterialID   string          `json:"material_id"`
	MaterialCode string          `json:"material_code"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	StockValue   decimal.Decimal `json:"stock_value"`
	IsLowStock   bool            `json:"is_low_stock"`
}

// StockLevelsResponse respuesta de GET /api/inventory/stock.
type StockLevelsResponse struct {
	TotalItems int             `json:"total_items"`
	Stock      []StockLevelDTO `json:"stock"`
}

// MovementDTO representación pública de un movimiento del ledger.
type MovementDTO struct {
	ID            string          `json:"movement_id"`
	MaterialID    string          `json:"material_id"`
	Type          string          `json:"movement_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	BatchNumber   string          `json:"batch_number,omitempty"`
	FromLocation  string          `json:"from_location,omitempty"`
	ToLocation    string          `json:"to_location,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalValue    decimal.Decimal `json:"total_value"`
	Notes         string          `json:"notes,omitempty"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MovementListResponse historial paginado de movimientos.
type MovementListResponse struct {
	Total     int           `json:"total"`
	Movements []MovementDTO `json:"movements"`
	Page      PageResponse  `json:"page"`
}

// LedgerResponse libro mayor de un material: historial completo ascendente
// más el stock agregado actual, para auditoría y conciliación.
type LedgerResponse struct {
	Material     MaterialResponse `json:"material"`
	CurrentStock decimal.Decimal  `json:"current_stock"`
	Movements    []MovementDTO    `json:"movements"`
}

// ReorderAlertDTO alerta de reposición derivada (recalculada en cada lectura,
// sin estado persistido).
type ReorderAlertDTO struct {
	MaterialID          string          `json:"material_id"`
	MaterialCode        string          `json:"material_code"`
	Name                string          `json:"name"`
	Unit                string          `json:"unit"`
	CurrentStock        decimal.Decimal `json:"current_stock"`
	ReorderLevel        decimal.Decimal `json:"reorder_level"`
	RecommendedQuantity decimal.Decimal `json:"recommended_quantity"`
	Priority            string          `json:"priority"`
}

// ReorderAlertsResponse respuesta de GET /api/inventory/reorder-alerts.
type ReorderAlertsResponse struct {
	TotalAlerts int               `json:"total_alerts"`
	Alerts      []ReorderAlertDTO `json:"alerts"`
}
