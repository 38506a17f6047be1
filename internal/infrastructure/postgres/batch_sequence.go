package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tu-usuario/textil-erp/internal/domain/repository"
)

var _ repository.BatchSequence = (*BatchSequence)(nil)

// BatchSequence números de lote desde la secuencia batch_number_seq.
// nextval es atómico entre conexiones: dos receives concurrentes jamás
// obtienen el mismo número. Un número reservado por una tx que luego falla
// se pierde (hueco en la numeración), nunca se reutiliza.
type BatchSequence struct {
	pool *pgxpool.Pool
}

// NewBatchSequence construye el generador sobre el pool.
func NewBatchSequence(pool *pgxpool.Pool) *BatchSequence {
	return &BatchSequence{pool: pool}
}

// Next reserva y devuelve el siguiente número de lote, formato BATCH-000123.
func (s *BatchSequence) Next(ctx context.Context) (string, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT nextval('batch_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next batch number: %w", err)
	}
	return fmt.Sprintf("BATCH-%06d", n), nil
}
