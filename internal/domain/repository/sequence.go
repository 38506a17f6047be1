package repository

import "context"

// BatchSequence asignador atómico de números de lote. Next reserva el
// siguiente valor antes de usarlo (reserve-before-use): dos receives
// concurrentes sin lote nunca obtienen el mismo número, a diferencia del
// patrón "contar filas y formatear".
type BatchSequence interface {
	Next(ctx context.Context) (string, error)
}
