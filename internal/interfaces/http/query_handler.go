package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/textil-erp/internal/application/dto"
	"github.com/tu-usuario/textil-erp/internal/application/stock"
	"github.com/tu-usuario/textil-erp/internal/domain/entity"
	"github.com/tu-usuario/textil-erp/internal/domain/repository"
)

// QueryHandler consultas de inventario: niveles, historial, ledger y alertas
// de reposición (protegido).
type QueryHandler struct {
	uc *stock.QueryUseCase
}

// NewQueryHandler construye el handler.
func NewQueryHandler(uc *stock.QueryUseCase) *QueryHandler {
	return &QueryHandler{uc: uc}
}

// StockLevels godoc
// @Summary      Niveles de stock agregados por material
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        material_id  query  string  false  "Filtrar por material"
// @Param        location     query  string  false  "Filtrar por ubicación"
// @Param        low_stock    query  bool    false  "Solo materiales bajo su nivel de reorden"
// @Success      200  {object}  dto.StockLevelsResponse
// @Router       /api/inventory/stock [get]
func (h *QueryHandler) StockLevels(c *fiber.Ctx) error {
	out, err := h.uc.StockLevels(c.Context(),
		c.Query("material_id"), c.Query("location"), c.QueryBool("low_stock"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Historial de movimientos (más reciente primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        material_id    query  string  false  "Filtrar por material"
// @Param        movement_type  query  string  false  "receipt | issue | transfer | adjustment | return"
// @Param        from           query  string  false  "Fecha inicial (RFC 3339)"
// @Param        to             query  string  false  "Fecha final (RFC 3339)"
// @Param        limit          query  int     false  "Por defecto 50, máximo 200"
// @Param        offset         query  int     false  "Por defecto 0"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *QueryHandler) Movements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()

	filter := repository.MovementFilter{
		MaterialID: c.Query("material_id"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	if s := c.Query("movement_type"); s != "" {
		mt, ok := entity.ParseMovementType(s)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "movement_type inválido"})
		}
		filter.Type = &mt
	}
	if s := c.Query("from"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido (RFC 3339)"})
		}
		filter.From = &ts
	}
	if s := c.Query("to"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido (RFC 3339)"})
		}
		filter.To = &ts
	}

	out, err := h.uc.MovementHistory(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Ledger godoc
// @Summary      Libro mayor de un material
// @Description  Historial completo en orden ascendente más el stock agregado
//
//	actual. La suma de efectos con signo de los movimientos siempre
//	iguala el stock reportado.
//
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        material_id  path  string  true  "ID del material"
// @Success      200  {object}  dto.LedgerResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/ledger/{material_id} [get]
func (h *QueryHandler) Ledger(c *fiber.Ctx) error {
	out, err := h.uc.Ledger(c.Context(), c.Params("material_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ReorderAlerts godoc
// @Summary      Alertas de reposición
// @Description  Derivadas del stock actual en cada lectura; no hay estado de
//
//	alerta persistido. Prioridad: critical (sin stock), high (<30%%
//	del nivel), medium (<60%%), low (resto).
//
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        priority  query  string  false  "low | medium | high | critical"
// @Success      200  {object}  dto.ReorderAlertsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/reorder-alerts [get]
func (h *QueryHandler) ReorderAlerts(c *fiber.Ctx) error {
	out, err := h.uc.ReorderAlerts(c.Context(), c.Query("priority"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
