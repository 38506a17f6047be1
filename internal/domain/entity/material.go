package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaterialCategory categoría cerrada de material. Los valores inválidos se
// rechazan en el borde (ParseMaterialCategory), nunca se almacenan.
type MaterialCategory string

const (
	CategoryRawMaterial    MaterialCategory = "raw_material"
	CategoryFinishedGoods  MaterialCategory = "finished_goods"
	CategoryWorkInProgress MaterialCategory = "work_in_progress"
	CategoryConsumable     MaterialCategory = "consumable"
	CategorySpareParts     MaterialCategory = "spare_parts"
)

// ParseMaterialCategory valida y normaliza una categoría recibida por la API.
func ParseMaterialCategory(s string) (MaterialCategory, bool) {
	switch MaterialCategory(s) {
	case CategoryRawMaterial, CategoryFinishedGoods, CategoryWorkInProgress,
		CategoryConsumable, CategorySpareParts:
		return MaterialCategory(s), true
	}
	return "", false
}

// Material representa la ficha maestra de un material textil (hilo, tela,
// químico, repuesto). ReorderLevel/ReorderQuantity alimentan el motor de
// alertas de reposición; UnitCost es el costo estándar de catálogo usado como
// fallback al recibir stock sin costo explícito.
// Una vez referenciado por registros de stock o movimientos solo se permiten
// ediciones de umbrales y costo (UpdateThresholds) y la desactivación.
type Material struct {
	ID              string
	MaterialCode    string // único, ej. "YARN-CTN-40"
	Name            string
	Description     string
	Category        MaterialCategory
	Unit            string // kg, meter, piece, cone, ...
	ReorderLevel    decimal.Decimal
	ReorderQuantity decimal.Decimal
	UnitCost        decimal.Decimal
	HSNCode         string // código fiscal
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
