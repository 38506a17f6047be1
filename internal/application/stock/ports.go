package stock

import (
	"context"

	"github.com/tu-usuario/textil-erp/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza la atomicidad del par
// StockRecord/Movement: ninguna operación puede dejar el estado mutado sin su
// movimiento, ni un movimiento sin su mutación.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		records repository.StockRecordRepository,
		movements repository.MovementRepository,
	) error) error
}
