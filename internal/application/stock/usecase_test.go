package stock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/textil-erp/internal/application/dto"
	"github.com/tu-usuario/textil-erp/internal/domain"
	"github.com/tu-usuario/textil-erp/internal/domain/entity"
	"github.com/tu-usuario/textil-erp/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria. El memTxRunner emula la disciplina transaccional real:
// un mutex serializa las transacciones (equivalente al bloqueo de fila) y un
// snapshot del estado se restaura si el callback falla (rollback).
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu             sync.Mutex
	seq            int64
	records        map[string]*entity.StockRecord
	recordOrder    []string
	movements      []*entity.Movement
	failNextAppend bool
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*entity.StockRecord{}}
}

func recordKey(materialID, batch, location string) string {
	return materialID + "|" + batch + "|" + location
}

type storeSnapshot struct {
	seq         int64
	records     map[string]*entity.StockRecord
	recordOrder []string
	movements   []*entity.Movement
}

func (s *memStore) snapshot() storeSnapshot {
	records := make(map[string]*entity.StockRecord, len(s.records))
	for k, v := range s.records {
		c := *v
		records[k] = &c
	}
	return storeSnapshot{
		seq:         s.seq,
		records:     records,
		recordOrder: append([]string(nil), s.recordOrder...),
		movements:   append([]*entity.Movement(nil), s.movements...),
	}
}

func (s *memStore) restore(snap storeSnapshot) {
	s.seq = snap.seq
	s.records = snap.records
	s.recordOrder = snap.recordOrder
	s.movements = snap.movements
}

// memRecordRepo implementa StockRecordRepository sobre memStore. Con
// external=true toma el mutex en cada método (lecturas fuera de transacción);
// dentro de una transacción el mutex ya lo sostiene el runner.
type memRecordRepo struct {
	store    *memStore
	external bool
}

func (r *memRecordRepo) lock() func() {
	if r.external {
		r.store.mu.Lock()
		return r.store.mu.Unlock
	}
	return func() {}
}

func (r *memRecordRepo) Get(_ context.Context, materialID, batch, location string) (*entity.StockRecord, error) {
	defer r.lock()()
	if rec, ok := r.store.records[recordKey(materialID, batch, location)]; ok {
		c := *rec
		return &c, nil
	}
	return nil, nil
}

func (r *memRecordRepo) GetForUpdate(ctx context.Context, materialID, batch, location string) (*entity.StockRecord, error) {
	return r.Get(ctx, materialID, batch, location)
}

func (r *memRecordRepo) GetByBatchForUpdate(_ context.Context, materialID, batch string) (*entity.StockRecord, error) {
	defer r.lock()()
	var best *entity.StockRecord
	for _, key := range r.store.recordOrder {
		rec := r.store.records[key]
		if rec.MaterialID == materialID && rec.BatchNumber == batch {
			best = rec
			break
		}
	}
	if best == nil {
		return nil, nil
	}
	c := *best
	return &c, nil
}

func (r *memRecordRepo) OldestAvailableForUpdate(_ context.Context, materialID string) (*entity.StockRecord, error) {
	defer r.lock()()
	for _, key := range r.store.recordOrder {
		rec := r.store.records[key]
		if rec.MaterialID == materialID && rec.Quantity.GreaterThan(decimal.Zero) {
			c := *rec
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memRecordRepo) Save(_ context.Context, s *entity.StockRecord) error {
	defer r.lock()()
	key := recordKey(s.MaterialID, s.BatchNumber, s.Location)
	if _, exists := r.store.records[key]; !exists {
		r.store.recordOrder = append(r.store.recordOrder, key)
	}
	c := *s
	r.store.records[key] = &c
	return nil
}

func (r *memRecordRepo) SumByMaterial(_ context.Context, materialID string) (decimal.Decimal, error) {
	defer r.lock()()
	sum := decimal.Zero
	for _, rec := range r.store.records {
		if rec.MaterialID == materialID {
			sum = sum.Add(rec.Quantity)
		}
	}
	return sum, nil
}

func (r *memRecordRepo) StockLevels(context.Context, repository.StockLevelFilter) ([]repository.StockLevelRow, error) {
	return nil, nil
}

func (r *memRecordRepo) ReorderCandidates(context.Context) ([]repository.ReorderCandidate, error) {
	return nil, nil
}

type memMovementRepo struct {
	store *memStore
}

func (r *memMovementRepo) Append(_ context.Context, m *entity.Movement) error {
	if r.store.failNextAppend {
		r.store.failNextAppend = false
		return errors.New("append forzado a fallar")
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	c := *m
	r.store.movements = append(r.store.movements, &c)
	return nil
}

func (r *memMovementRepo) List(context.Context, repository.MovementFilter) ([]*entity.Movement, int, error) {
	return nil, 0, nil
}

func (r *memMovementRepo) ListByMaterialAsc(_ context.Context, materialID string) ([]*entity.Movement, error) {
	var out []*entity.Movement
	for _, m := range r.store.movements {
		if m.MaterialID == materialID {
			out = append(out, m)
		}
	}
	return out, nil
}

type memTxRunner struct {
	store *memStore
}

func (t *memTxRunner) Run(_ context.Context, fn func(repository.StockRecordRepository, repository.MovementRepository) error) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	snap := t.store.snapshot()
	err := fn(&memRecordRepo{store: t.store}, &memMovementRepo{store: t.store})
	if err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

type memMaterialRepo struct {
	mu        sync.Mutex
	materials map[string]*entity.Material
}

func (r *memMaterialRepo) Create(_ context.Context, m *entity.Material) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.materials[m.ID] = m
	return nil
}

func (r *memMaterialRepo) GetByID(_ context.Context, id string) (*entity.Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.materials[id]; ok {
		c := *m
		return &c, nil
	}
	return nil, nil
}

func (r *memMaterialRepo) GetByCode(_ context.Context, code string) (*entity.Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.materials {
		if m.MaterialCode == code {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memMaterialRepo) List(context.Context, repository.MaterialFilter) ([]*entity.Material, error) {
	return nil, nil
}

func (r *memMaterialRepo) Update(_ context.Context, m *entity.Material) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.materials[m.ID] = m
	return nil
}

type memBatchSeq struct {
	n atomic.Int64
}

func (s *memBatchSeq) Next(context.Context) (string, error) {
	return fmt.Sprintf("BATCH-%06d", s.n.Add(1)), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Arranque común
// ──────────────────────────────────────────────────────────────────────────────

const testUser = "user-1"

type fixture struct {
	uc       *StockUseCase
	store    *memStore
	material *entity.Material
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	material := &entity.Material{
		ID:           uuid.New().String(),
		MaterialCode: "YARN-CTN-40",
		Name:         "Hilo algodón 40s",
		Category:     entity.CategoryRawMaterial,
		Unit:         "kg",
		ReorderLevel: decimal.NewFromInt(100),
		UnitCost:     decimal.NewFromInt(12),
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	materials := &memMaterialRepo{materials: map[string]*entity.Material{material.ID: material}}
	uc := NewStockUseCase(
		&memTxRunner{store: store},
		materials,
		&memRecordRepo{store: store, external: true},
		&memBatchSeq{},
	)
	return &fixture{uc: uc, store: store, material: material}
}

func (f *fixture) record(t *testing.T, batch, location string) *entity.StockRecord {
	t.Helper()
	rec := f.store.records[recordKey(f.material.ID, batch, location)]
	require.NotNil(t, rec, "debe existir el registro %s/%s", batch, location)
	return rec
}

// ledgerBalance reproduce el ledger: suma de efectos con signo del material.
func (f *fixture) ledgerBalance() decimal.Decimal {
	sum := decimal.Zero
	for _, m := range f.store.movements {
		if m.MaterialID == f.material.ID {
			sum = sum.Add(m.SignedEffect())
		}
	}
	return sum
}

func (f *fixture) recordTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, rec := range f.store.records {
		if rec.MaterialID == f.material.ID {
			sum = sum.Add(rec.Quantity)
		}
	}
	return sum
}

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// ──────────────────────────────────────────────────────────────────────────────
// Receive
// ──────────────────────────────────────────────────────────────────────────────

func TestReceive_CreaLoteYMovimiento(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
		MaterialID:  f.material.ID,
		Quantity:    qty(50),
		BatchNumber: "B1",
		POID:        "po-77",
	})
	require.NoError(t, err)
	assert.Equal(t, "B1", out.BatchNumber)

	rec := f.record(t, "B1", entity.DefaultLocation)
	assert.True(t, rec.Quantity.Equal(qty(50)))
	// Sin costo explícito cae al costo estándar del catálogo (12).
	assert.True(t, rec.UnitCost.Equal(qty(12)))
	assert.True(t, rec.TotalValue.Equal(qty(600)), "total_value = cantidad * costo")
	assert.Equal(t, entity.QualityApproved, rec.QualityStatus)

	require.Len(t, f.store.movements, 1)
	mov := f.store.movements[0]
	assert.Equal(t, entity.MovementReceipt, mov.Type)
	assert.True(t, mov.Quantity.Equal(qty(50)))
	assert.Equal(t, entity.ReferencePurchaseOrder, mov.ReferenceType)
	assert.Equal(t, "po-77", mov.ReferenceID)
	assert.Equal(t, testUser, mov.CreatedBy)
}

func TestReceive_AcumulaSobreLoteExistente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
		MaterialID: f.material.ID, Quantity: qty(30), BatchNumber: "B1", Location: "BODEGA-2",
	})
	require.NoError(t, err)
	_, err = f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
		MaterialID: f.material.ID, Quantity: qty(20), BatchNumber: "B1", Location: "BODEGA-2",
	})
	require.NoError(t, err)

	rec := f.record(t, "B1", "BODEGA-2")
	assert.True(t, rec.Quantity.Equal(qty(50)))
	assert.Len(t, f.store.movements, 2, "cada receive agrega su propio movimiento")
}

// Entrada sobre un lote con remanente: el lote queda al costo promedio
// ponderado; el movimiento conserva el costo de su entrada.
func TestReceive_PromediaCostoSobreRemanente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cost10, cost20 := qty(10), qty(20)
	_, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
		MaterialID: f.material.ID, Quantity: qty(10), BatchNumber: "B1", UnitCost: &cost10,
	})
	require.NoError(t, err)
	_, err = f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
		MaterialID: f.material.ID, Quantity: qty(10), BatchNumber: "B1", UnitCost: &cost20,
	})
	require.NoError(t, err)

	rec := f.record(t, "B1", entity.DefaultLocation)
	assert.True(t, rec.Quantity.Equal(qty(20)))
	assert.True(t, rec.UnitCost.Equal(qty(15)), "(10*10 + 10*20) / 20 = 15")
	assert.True(t, rec.TotalValue.Equal(qty(300)))

	last := f.store.movements[len(f.store.movements)-1]
	assert.True(t, last.UnitCost.Equal(cost20), "el movimiento lleva el costo de la entrada, no el promedio")
}

func TestReceive_CantidadNoPositivaFalla(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Receive(context.Background(), testUser, dto.ReceiveStockRequest{
		MaterialID: f.material.ID, Quantity: qty(0),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Receive(context.Background(), testUser, dto.ReceiveStockRequest{
		MaterialID: f.material.ID, Quantity: qty(-5),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.store.movements)
}

func TestReceive_MaterialDesconocidoFalla(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Receive(context.Background(), testUser, dto.ReceiveStockRequest{
		MaterialID: uuid.New().String(), Quantity: qty(10),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Dos receives concurrentes sin lote obtienen números distintos: la
// secuencia reserva antes de usar.
func TestReceive_LotesAutogeneradosNoColisionan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	results := make([]string, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
				MaterialID: f.material.ID, Quantity: qty(10),
			})
			require.NoError(t, err)
			results[i] = out.BatchNumber
		}(i)
	}
	wg.Wait()

	assert.NotEmpty(t, results[0])
	assert.NotEmpty(t, results[1])
	assert.NotEqual(t, results[0], results[1], "los lotes autogenerados deben ser únicos")
	assert.True(t, f.recordTotal().Equal(qty(20)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Issue
// ──────────────────────────────────────────────────────────────────────────────

func TestIssue_RoundTripDejaLoteEnCeroSinBorrarlo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
		MaterialID: f.material.ID, Quantity: qty(50), BatchNumber: "B1",
	})
	require.NoError(t, err)

	out, err := f.uc.Issue(ctx, testUser, dto.IssueStockRequest{
		MaterialID: f.material.ID, Quantity: qty(50), BatchNumber: "B1", WOID: "wo-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "B1", out.BatchNumber)

	// El registro persiste con cantidad cero: es historia del lote.
	rec := f.record(t, "B1", entity.DefaultLocation)
	assert.True(t, rec.Quantity.IsZero())
	assert.True(t, rec.TotalValue.IsZero())

	require.Len(t, f.store.movements, 2)
	assert.Equal(t, entity.MovementReceipt, f.store.movements[0].Type)
	assert.Equal(t, entity.MovementIssue, f.store.movements[1].Type)
	assert.True(t, f.store.movements[1].Quantity.Equal(qty(-50)), "issue lleva cantidad negativa en el ledger")
	assert.Equal(t, entity.ReferenceWorkOrder, f.store.movements[1].ReferenceType)
	assert.True(t, f.ledgerBalance().Equal(f.recordTotal()))
}

// Sin lote explícito se emite del registro más antiguo con cantidad > 0.
func TestIssue_SinLoteTomaElMasAntiguo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, batch := range []string{"B1", "B2", "B3"} {
		_, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
			MaterialID: f.material.ID, Quantity: qty(int64(10 * (i + 1))), BatchNumber: batch,
		})
		require.NoError(t, err)
	}
	// Vaciar B1: la siguiente emisión sin lote debe saltar a B2.
	_, err := f.uc.Issue(ctx, testUser, dto.IssueStockRequest{MaterialID: f.material.ID, Quantity: qty(10)})
	require.NoError(t, err)
	assert.True(t, f.record(t, "B1", entity.DefaultLocation).Quantity.IsZero())

	out, err := f.uc.Issue(ctx, testUser, dto.IssueStockRequest{MaterialID: f.material.ID, Quantity: qty(5)})
	require.NoError(t, err)
	assert.Equal(t, "B2", out.BatchNumber)
	assert.True(t, f.record(t, "B2", entity.DefaultLocation).Quantity.Equal(qty(15)))
}

func TestIssue_StockInsuficienteLlevaDisponible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
		MaterialID: f.material.ID, Quantity: qty(10), BatchNumber: "B1",
	})
	require.NoError(t, err)

	_, err = f.uc.Issue(ctx, testUser, dto.IssueStockRequest{
		MaterialID: f.material.ID, Quantity: qty(25), BatchNumber: "B1",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.Equal(qty(10)), "el error lleva la cantidad disponible")
	assert.True(t, insufficient.Requested.Equal(qty(25)))

	// Nada cambió: ni el lote ni el ledger.
	assert.True(t, f.record(t, "B1", entity.DefaultLocation).Quantity.Equal(qty(10)))
	assert.Len(t, f.store.movements, 1)
}

func TestIssue_SinLotesDisponiblesFalla(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Issue(context.Background(), testUser, dto.IssueStockRequest{
		MaterialID: f.material.ID, Quantity: qty(5),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Dos emisiones concurrentes de 6 contra un lote de 10: exactamente una gana,
// la otra recibe InsufficientStock y el lote queda en 4, nunca en -2.
func TestIssue_ConcurrenciaUnSoloGanador(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
		MaterialID: f.material.ID, Quantity: qty(10), BatchNumber: "B1",
	})
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Issue(ctx, testUser, dto.IssueStockRequest{
				MaterialID: f.material.ID, Quantity: qty(6), BatchNumber: "B1",
			})
		}(i)
	}
	wg.Wait()

	okCount, insufficientCount := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			okCount++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficientCount++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, okCount, "exactamente una emisión debe ganar")
	assert.Equal(t, 1, insufficientCount)
	assert.True(t, f.record(t, "B1", entity.DefaultLocation).Quantity.Equal(qty(4)))
	assert.Len(t, f.store.movements, 2, "receipt + un solo issue")
}

// ──────────────────────────────────────────────────────────────────────────────
// Transfer
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_MueveEntreUbicacionesConUnSoloMovimiento(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
		MaterialID: f.material.ID, Quantity: qty(40), BatchNumber: "B1", Location: "MAIN",
	})
	require.NoError(t, err)
	require.NoError(t, f.uc.SetQualityStatus(ctx, dto.SetQualityStatusRequest{
		MaterialID: f.material.ID, BatchNumber: "B1", Location: "MAIN", Status: "quarantine",
	}))

	_, err = f.uc.Transfer(ctx, testUser, dto.TransferStockRequest{
		MaterialID: f.material.ID, BatchNumber: "B1",
		FromLocation: "MAIN", ToLocation: "TEJIDO",
		Quantity: qty(15),
	})
	require.NoError(t, err)

	source := f.record(t, "B1", "MAIN")
	dest := f.record(t, "B1", "TEJIDO")
	assert.True(t, source.Quantity.Equal(qty(25)))
	assert.True(t, dest.Quantity.Equal(qty(15)))
	// El destino hereda costo, calidad y fecha de creación del origen.
	assert.True(t, dest.UnitCost.Equal(source.UnitCost))
	assert.Equal(t, entity.QualityQuarantine, dest.QualityStatus)
	assert.Equal(t, source.CreatedAt, dest.CreatedAt)

	require.Len(t, f.store.movements, 2, "receipt + exactamente UN transfer")
	mov := f.store.movements[1]
	assert.Equal(t, entity.MovementTransfer, mov.Type)
	assert.Equal(t, "MAIN", mov.FromLocation)
	assert.Equal(t, "TEJIDO", mov.ToLocation)
	assert.True(t, mov.SignedEffect().IsZero(), "un transfer no altera el total del material")
	assert.True(t, f.ledgerBalance().Equal(f.recordTotal()))
}

func TestTransfer_InsuficienteNoTocaNada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
		MaterialID: f.material.ID, Quantity: qty(10), BatchNumber: "B1", Location: "MAIN",
	})
	require.NoError(t, err)

	_, err = f.uc.Transfer(ctx, testUser, dto.TransferStockRequest{
		MaterialID: f.material.ID, BatchNumber: "B1",
		FromLocation: "MAIN", ToLocation: "TEJIDO",
		Quantity: qty(99),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.True(t, f.record(t, "B1", "MAIN").Quantity.Equal(qty(10)))
	assert.Nil(t, f.store.records[recordKey(f.material.ID, "B1", "TEJIDO")], "no debe crearse el destino")
	assert.Len(t, f.store.movements, 1)
}

// Si el append del movimiento falla a mitad de la transacción, el rollback
// deja origen y destino intactos: sin débito huérfano ni movimiento suelto.
func TestTransfer_FalloDelAppendRevierteTodo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
		MaterialID: f.material.ID, Quantity: qty(40), BatchNumber: "B1", Location: "MAIN",
	})
	require.NoError(t, err)

	f.store.failNextAppend = true
	_, err = f.uc.Transfer(ctx, testUser, dto.TransferStockRequest{
		MaterialID: f.material.ID, BatchNumber: "B1",
		FromLocation: "MAIN", ToLocation: "TEJIDO",
		Quantity: qty(15),
	})
	require.Error(t, err)

	assert.True(t, f.record(t, "B1", "MAIN").Quantity.Equal(qty(40)), "el origen no debe quedar debitado")
	assert.Nil(t, f.store.records[recordKey(f.material.ID, "B1", "TEJIDO")])
	assert.Len(t, f.store.movements, 1, "sin movimiento huérfano")
	assert.True(t, f.ledgerBalance().Equal(f.recordTotal()))
}

func TestTransfer_MismaUbicacionFalla(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Transfer(context.Background(), testUser, dto.TransferStockRequest{
		MaterialID: f.material.ID, BatchNumber: "B1",
		FromLocation: "MAIN", ToLocation: "MAIN",
		Quantity: qty(5),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Adjust / Return
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjust_CorrigeConSigno(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
		MaterialID: f.material.ID, Quantity: qty(100), BatchNumber: "B1",
	})
	require.NoError(t, err)

	_, err = f.uc.Adjust(ctx, testUser, dto.AdjustStockRequest{
		MaterialID: f.material.ID, BatchNumber: "B1", Delta: qty(-3), Notes: "conteo físico",
	})
	require.NoError(t, err)
	assert.True(t, f.record(t, "B1", entity.DefaultLocation).Quantity.Equal(qty(97)))

	_, err = f.uc.Adjust(ctx, testUser, dto.AdjustStockRequest{
		MaterialID: f.material.ID, BatchNumber: "B1", Delta: qty(5),
	})
	require.NoError(t, err)
	assert.True(t, f.record(t, "B1", entity.DefaultLocation).Quantity.Equal(qty(102)))

	assert.True(t, f.ledgerBalance().Equal(f.recordTotal()))
}

func TestAdjust_NoPermiteQuedarNegativo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
		MaterialID: f.material.ID, Quantity: qty(10), BatchNumber: "B1",
	})
	require.NoError(t, err)

	_, err = f.uc.Adjust(ctx, testUser, dto.AdjustStockRequest{
		MaterialID: f.material.ID, BatchNumber: "B1", Delta: qty(-11),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, f.record(t, "B1", entity.DefaultLocation).Quantity.Equal(qty(10)))
}

func TestReturn_DevuelveAlLoteIndicado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
		MaterialID: f.material.ID, Quantity: qty(50), BatchNumber: "B1",
	})
	require.NoError(t, err)
	_, err = f.uc.Issue(ctx, testUser, dto.IssueStockRequest{
		MaterialID: f.material.ID, Quantity: qty(20), BatchNumber: "B1", WOID: "wo-3",
	})
	require.NoError(t, err)

	// Producción devuelve 5 kg no consumidos al mismo lote.
	out, err := f.uc.Return(ctx, testUser, dto.ReturnStockRequest{
		MaterialID: f.material.ID, Quantity: qty(5), BatchNumber: "B1", WOID: "wo-3",
	})
	require.NoError(t, err)
	assert.Equal(t, "B1", out.BatchNumber)
	assert.True(t, f.record(t, "B1", entity.DefaultLocation).Quantity.Equal(qty(35)))

	last := f.store.movements[len(f.store.movements)-1]
	assert.Equal(t, entity.MovementReturn, last.Type)
	assert.True(t, last.Quantity.Equal(qty(5)))
	assert.Equal(t, entity.ReferenceWorkOrder, last.ReferenceType)
	assert.True(t, f.ledgerBalance().Equal(f.recordTotal()))
}

// ──────────────────────────────────────────────────────────────────────────────
// Calidad y consistencia global
// ──────────────────────────────────────────────────────────────────────────────

func TestSetQualityStatus_NoGeneraMovimiento(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
		MaterialID: f.material.ID, Quantity: qty(10), BatchNumber: "B1",
	})
	require.NoError(t, err)

	err = f.uc.SetQualityStatus(ctx, dto.SetQualityStatusRequest{
		MaterialID: f.material.ID, BatchNumber: "B1", Location: entity.DefaultLocation,
		Status: "quarantine",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.QualityQuarantine, f.record(t, "B1", entity.DefaultLocation).QualityStatus)
	assert.Len(t, f.store.movements, 1, "fijar calidad no cambia cantidades ni agrega movimientos")

	// Un lote en cuarentena SÍ se puede emitir: la política de bloqueo es
	// del módulo de calidad, no de este núcleo.
	_, err = f.uc.Issue(ctx, testUser, dto.IssueStockRequest{
		MaterialID: f.material.ID, Quantity: qty(5), BatchNumber: "B1",
	})
	assert.NoError(t, err)
}

func TestSetQualityStatus_EstadoInvalidoFalla(t *testing.T) {
	f := newFixture(t)
	err := f.uc.SetQualityStatus(context.Background(), dto.SetQualityStatusRequest{
		MaterialID: f.material.ID, BatchNumber: "B1", Location: "MAIN", Status: "dudoso",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// interleavingRecordRepo dispara un callback tras cada Get fuera de
// transacción: simula una operación concurrente que comitea en la ventana
// entre la lectura y el Save.
type interleavingRecordRepo struct {
	repository.StockRecordRepository
	onGet func()
}

func (r *interleavingRecordRepo) Get(ctx context.Context, materialID, batch, location string) (*entity.StockRecord, error) {
	rec, err := r.StockRecordRepository.Get(ctx, materialID, batch, location)
	if r.onGet != nil {
		r.onGet()
	}
	return rec, err
}

// Una recepción que comitea mientras se fija la calidad de un lote no debe
// perderse: el Save reescribe la fila completa, así que la actualización de
// calidad tiene que leer con lock dentro de la transacción. Si volviera a
// leer sin lock por el repo del pool, el hook mete un Receive(+5) en la
// ventana y el lote de 10 quedaría en 10 en vez de 15, con el ledger
// descuadrado.
func TestSetQualityStatus_NoPisaRecepcionConcurrente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
		MaterialID: f.material.ID, Quantity: qty(10), BatchNumber: "B1",
	})
	require.NoError(t, err)

	receiveFive := func() {
		_, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{
			MaterialID: f.material.ID, Quantity: qty(5), BatchNumber: "B1",
		})
		require.NoError(t, err)
	}

	fired := false
	records := &interleavingRecordRepo{
		StockRecordRepository: &memRecordRepo{store: f.store, external: true},
		onGet: func() {
			fired = true
			receiveFive()
		},
	}
	materials := &memMaterialRepo{materials: map[string]*entity.Material{f.material.ID: f.material}}
	uc := NewStockUseCase(&memTxRunner{store: f.store}, materials, records, &memBatchSeq{})

	require.NoError(t, uc.SetQualityStatus(ctx, dto.SetQualityStatusRequest{
		MaterialID: f.material.ID, BatchNumber: "B1", Location: entity.DefaultLocation,
		Status: "quarantine",
	}))
	if !fired {
		// La actualización leyó con lock: la recepción entra después y debe
		// conservarse igual.
		receiveFive()
	}

	rec := f.record(t, "B1", entity.DefaultLocation)
	assert.True(t, rec.Quantity.Equal(qty(15)), "la recepción concurrente no debe perderse: %s", rec.Quantity)
	assert.Equal(t, entity.QualityQuarantine, rec.QualityStatus)
	assert.True(t, f.ledgerBalance().Equal(f.recordTotal()),
		"ledger %s vs stock %s", f.ledgerBalance(), f.recordTotal())
}

// Propiedad central del ledger: tras cualquier secuencia de operaciones, la
// suma de efectos con signo de los movimientos iguala la suma de cantidades
// de los lotes del material.
func TestLedger_ConsistenciaTrasSecuenciaMixta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ops := []func() error{
		func() error {
			_, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{MaterialID: f.material.ID, Quantity: qty(100), BatchNumber: "B1"})
			return err
		},
		func() error {
			_, err := f.uc.Receive(ctx, testUser, dto.ReceiveStockRequest{MaterialID: f.material.ID, Quantity: qty(40), BatchNumber: "B2", Location: "TINTE"})
			return err
		},
		func() error {
			_, err := f.uc.Issue(ctx, testUser, dto.IssueStockRequest{MaterialID: f.material.ID, Quantity: qty(30)})
			return err
		},
		func() error {
			_, err := f.uc.Transfer(ctx, testUser, dto.TransferStockRequest{MaterialID: f.material.ID, BatchNumber: "B1", FromLocation: "MAIN", ToLocation: "TINTE", Quantity: qty(25)})
			return err
		},
		func() error {
			_, err := f.uc.Adjust(ctx, testUser, dto.AdjustStockRequest{MaterialID: f.material.ID, BatchNumber: "B2", Delta: qty(-4)})
			return err
		},
		func() error {
			_, err := f.uc.Return(ctx, testUser, dto.ReturnStockRequest{MaterialID: f.material.ID, Quantity: qty(7), BatchNumber: "B1"})
			return err
		},
		func() error {
			_, err := f.uc.Issue(ctx, testUser, dto.IssueStockRequest{MaterialID: f.material.ID, Quantity: qty(12), BatchNumber: "B2"})
			return err
		},
	}
	for i, op := range ops {
		require.NoError(t, op(), "operación %d", i)
		assert.True(t, f.ledgerBalance().Equal(f.recordTotal()),
			"tras la operación %d: ledger %s vs stock %s", i, f.ledgerBalance(), f.recordTotal())
	}

	// 100 + 40 - 30 - 4 + 7 - 12 = 101 (el transfer no altera el total).
	assert.True(t, f.recordTotal().Equal(qty(101)))

	current, err := f.uc.CurrentStock(ctx, f.material.ID)
	require.NoError(t, err)
	assert.True(t, current.Equal(qty(101)))

	// Ningún lote quedó negativo.
	for _, rec := range f.store.records {
		assert.False(t, rec.Quantity.IsNegative(), "lote %s/%s negativo", rec.BatchNumber, rec.Location)
	}
}
