package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateMaterialRequest body para POST /api/materials.
type CreateMaterialRequest struct {
	MaterialCode    string           `json:"material_code"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	Category        string           `json:"category"`
	Unit            string           `json:"unit"`
	ReorderLevel    *decimal.Decimal `json:"reorder_level,omitempty"`
	ReorderQuantity *decimal.Decimal `json:"reorder_quantity,omitempty"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	HSNCode         string           `json:"hsn_code,omitempty"`
}

// UpdateThresholdsRequest body para PUT /api/materials/{id}/thresholds.
// Solo umbrales y costo: el resto de la ficha es inmutable una vez
// referenciada por stock o movimientos.
type UpdateThresholdsRequest struct {
	ReorderLevel    *decimal.Decimal `json:"reorder_level,omitempty"`
	ReorderQuantity *decimal.Decimal `json:"reorder_quantity,omitempty"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
}

// MaterialResponse representación pública de un material.
type MaterialResponse struct {
	ID              string          `json:"material_id"`
	MaterialCode    string          `json:"material_code"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Category        string          `json:"category"`
	Unit            string          `json:"unit"`
	ReorderLevel    decimal.Decimal `json:"reorder_level"`
	ReorderQuantity decimal.Decimal `json:"reorder_quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	HSNCode         string          `json:"hsn_code,omitempty"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// MaterialDetailResponse ficha del material más su stock actual agregado.
type MaterialDetailResponse struct {
	Material     MaterialResponse `json:"material"`
	CurrentStock decimal.Decimal  `json:"current_stock"`
}

// MaterialListResponse listado paginado de materiales.
type MaterialListResponse struct {
	Items []MaterialResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
