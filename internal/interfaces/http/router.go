package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/textil-erp/internal/application/catalog"
	"github.com/tu-usuario/textil-erp/internal/application/stock"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	MaterialUC *catalog.MaterialUseCase
	StockUC    *stock.StockUseCase
	QueryUC    *stock.QueryUseCase
	JWTSecret  string
}

// Router registra las rutas de la API. Toda la API requiere Bearer Token;
// las operaciones que mutan inventario exigen además rol de bodega o admin.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Catálogo de materiales
	materials := api.Group("/materials")
	materialHandler := NewMaterialHandler(deps.MaterialUC)
	materials.Post("/", RequireRole("admin", "supervisor"), materialHandler.Create)
	materials.Get("/", materialHandler.List)
	materials.Get("/:id", materialHandler.GetByID)
	materials.Put("/:id/thresholds", RequireRole("admin", "supervisor"), materialHandler.UpdateThresholds)
	materials.Delete("/:id", RequireRole("admin"), materialHandler.Deactivate)

	// Operaciones de stock (mutaciones)
	inventory := api.Group("/inventory")
	stockHandler := NewStockHandler(deps.StockUC)
	mutate := RequireRole("admin", "almacenista")
	inventory.Post("/receive", mutate, stockHandler.Receive)
	inventory.Post("/issue", mutate, stockHandler.Issue)
	inventory.Post("/transfer", mutate, stockHandler.Transfer)
	inventory.Post("/adjust", mutate, stockHandler.Adjust)
	inventory.Post("/return", mutate, stockHandler.Return)
	inventory.Put("/quality-status", RequireRole("admin", "supervisor"), stockHandler.SetQualityStatus)

	// Consultas (cualquier usuario autenticado)
	queryHandler := NewQueryHandler(deps.QueryUC)
	inventory.Get("/stock", queryHandler.StockLevels)
	inventory.Get("/movements", queryHandler.Movements)
	inventory.Get("/ledger/:material_id", queryHandler.Ledger)
	inventory.Get("/reorder-alerts", queryHandler.ReorderAlerts)
}
