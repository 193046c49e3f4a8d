package allocation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rogaciano/rotadomarPLM/internal/repos"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

func newRebuilderUnderTest(tb testing.TB, db *gorm.DB) Rebuilder {
	return newRebuilderWithCache(tb, db, nil)
}

func newRebuilderWithCache(tb testing.TB, db *gorm.DB, inv OccupancyInvalidator) Rebuilder {
	tb.Helper()
	log := testLogger(tb)
	rowRepo := repos.NewProductLocationRepo(db, log)
	ledgerRepo := repos.NewMonthlyAllocationRepo(db, log)
	rec := NewReconciler(log, rowRepo, ledgerRepo)
	return NewRebuilder(db, log, rowRepo, ledgerRepo, repos.NewProductEventRepo(db, log), rec, inv)
}

func seedStaleEntry(tb testing.TB, db *gorm.DB, productID, locationID uuid.UUID, month, year, quantity int) {
	tb.Helper()
	entry := &types.MonthlyAllocation{
		ID:         uuid.New(),
		ProductID:  productID,
		LocationID: locationID,
		Month:      month,
		Year:       year,
		Quantity:   quantity,
		Kind:       types.AllocationKindOriginal,
		UserID:     uuid.New(),
	}
	if err := db.Create(entry).Error; err != nil {
		tb.Fatalf("seed stale entry: %v", err)
	}
}

func TestRebuildReconstructsLedgerFromRows(t *testing.T) {
	db := newTestDB(t, true)
	reb := newRebuilderUnderTest(t, db)
	product := seedProduct(t, db, "REF-300")
	loc := seedLocation(t, db, "Facção Rebuild")
	other := seedLocation(t, db, "Facção Antiga")
	userID := uuid.New()

	// Two rows merging onto one March bucket, one parked row without a date.
	seedRow(t, db, product.ID, loc.ID, 5, date(2025, 3, 3), "OP-R")
	seedRow(t, db, product.ID, loc.ID, 7, date(2025, 3, 28), "OP-R")
	seedRow(t, db, product.ID, loc.ID, 99, nil, "")

	// Stale ledger state: wrong quantity plus an entry no row backs anymore.
	seedStaleEntry(t, db, product.ID, loc.ID, 3, 2025, 1000)
	seedStaleEntry(t, db, product.ID, other.ID, 12, 2024, 50)

	result, err := reb.Rebuild(context.Background(), product.ID, userID)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if result.DeletedEntries != 2 {
		t.Fatalf("deleted: want=2 got=%d", result.DeletedEntries)
	}
	if result.CreatedEntries != 1 {
		t.Fatalf("created: want=1 got=%d", result.CreatedEntries)
	}
	if result.SkippedRows != 1 {
		t.Fatalf("skipped: want=1 got=%d", result.SkippedRows)
	}

	entries := ledgerEntries(t, db, product.ID)
	if len(entries) != 1 {
		t.Fatalf("entries: want=1 got=%d", len(entries))
	}
	e := entries[0]
	if e.Quantity != 12 || e.Month != 3 || e.Year != 2025 || e.ProductionOrder != "OP-R" {
		t.Fatalf("rebuilt entry mismatch: %+v", e)
	}
	if e.Kind != types.AllocationKindRebuild {
		t.Fatalf("kind: want=%s got=%s", types.AllocationKindRebuild, e.Kind)
	}

	// The repair leaves an audit event behind.
	var events []*types.ProductEvent
	if err := db.Where("product_id = ?", product.ID).Find(&events).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}
	if len(events) != 1 || events[0].Action != types.ProductEventLedgerRebuilt {
		t.Fatalf("audit event missing: %+v", events)
	}
	var payload RebuildResult
	if err := json.Unmarshal(events[0].Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.DeletedEntries != 2 || payload.CreatedEntries != 1 {
		t.Fatalf("payload mismatch: %+v", payload)
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	db := newTestDB(t, true)
	reb := newRebuilderUnderTest(t, db)
	product := seedProduct(t, db, "REF-301")
	loc := seedLocation(t, db, "Facção Idem")
	userID := uuid.New()

	seedRow(t, db, product.ID, loc.ID, 40, date(2026, 1, 15), "")

	first, err := reb.Rebuild(context.Background(), product.ID, userID)
	if err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	second, err := reb.Rebuild(context.Background(), product.ID, userID)
	if err != nil {
		t.Fatalf("second rebuild: %v", err)
	}

	if second.DeletedEntries != int64(first.CreatedEntries) {
		t.Fatalf("second rebuild should replace first: deleted=%d created(first)=%d",
			second.DeletedEntries, first.CreatedEntries)
	}
	entries := ledgerEntries(t, db, product.ID)
	if len(entries) != 1 || entries[0].Quantity != 40 {
		t.Fatalf("entries after replay: %+v", entries)
	}
}

func TestRebuildRequiresUser(t *testing.T) {
	db := newTestDB(t, true)
	reb := newRebuilderUnderTest(t, db)
	_, err := reb.Rebuild(context.Background(), uuid.New(), uuid.Nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestRebuildInvalidatesRemovedBuckets(t *testing.T) {
	db := newTestDB(t, true)
	inv := &fakeInvalidator{}
	reb := newRebuilderWithCache(t, db, inv)
	product := seedProduct(t, db, "REF-303")
	loc := seedLocation(t, db, "Facção Atual")
	old := seedLocation(t, db, "Facção Encerrada")
	userID := uuid.New()

	seedRow(t, db, product.ID, loc.ID, 10, date(2025, 3, 15), "")
	// Entry left behind in a bucket no active row projects onto anymore;
	// its occupancy cache must drop along with the entry.
	seedStaleEntry(t, db, product.ID, old.ID, 12, 2024, 55)

	if _, err := reb.Rebuild(context.Background(), product.ID, userID); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	want := map[bucket]bool{
		{LocationID: loc.ID, Month: 3, Year: 2025}:  true,
		{LocationID: old.ID, Month: 12, Year: 2024}: true,
	}
	got := map[bucket]bool{}
	for _, b := range inv.calls {
		got[b] = true
	}
	for b := range want {
		if !got[b] {
			t.Fatalf("bucket %+v not invalidated, calls=%+v", b, inv.calls)
		}
	}
	if len(inv.calls) != len(want) {
		t.Fatalf("invalidations: want=%d got=%d (%+v)", len(want), len(inv.calls), inv.calls)
	}
}

func TestRebuildClearsDuplicates(t *testing.T) {
	// Duplicates from before the unique index: rebuild is the repair path.
	db := newTestDB(t, false)
	reb := newRebuilderUnderTest(t, db)
	product := seedProduct(t, db, "REF-302")
	loc := seedLocation(t, db, "Facção Dup")
	userID := uuid.New()

	seedRow(t, db, product.ID, loc.ID, 8, date(2025, 5, 5), "OP-D")
	seedStaleEntry(t, db, product.ID, loc.ID, 5, 2025, 8)
	seedStaleEntry(t, db, product.ID, loc.ID, 5, 2025, 8)

	result, err := reb.Rebuild(context.Background(), product.ID, userID)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if result.DeletedEntries != 2 {
		t.Fatalf("deleted: want=2 got=%d", result.DeletedEntries)
	}
	entries := ledgerEntries(t, db, product.ID)
	if len(entries) != 1 || entries[0].Quantity != 8 {
		t.Fatalf("entries after repair: %+v", entries)
	}
}
