package allocation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rogaciano/rotadomarPLM/internal/repos"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

func newReconcilerUnderTest(tb testing.TB, db *gorm.DB) Reconciler {
	tb.Helper()
	log := testLogger(tb)
	return NewReconciler(log, repos.NewProductLocationRepo(db, log), repos.NewMonthlyAllocationRepo(db, log))
}

func TestRowChangedSingleRowKeepsSource(t *testing.T) {
	db := newTestDB(t, true)
	rec := newReconcilerUnderTest(t, db)
	product := seedProduct(t, db, "REF-001")
	loc := seedLocation(t, db, "Facção Norte")
	userID := uuid.New()

	row := seedRow(t, db, product.ID, loc.ID, 5, date(2025, 3, 15), "OP-100")
	setRowNote(t, db, row.ID, "entrega parcial")
	err := inTx(t, db, func(tx *gorm.DB) error {
		return rec.RowChanged(context.Background(), tx, RowEvent{After: row, UserID: userID})
	})
	if err != nil {
		t.Fatalf("RowChanged: %v", err)
	}

	entries := ledgerEntries(t, db, product.ID)
	if len(entries) != 1 {
		t.Fatalf("entries: want=1 got=%d", len(entries))
	}
	e := entries[0]
	if e.Quantity != 5 || e.Month != 3 || e.Year != 2025 || e.ProductionOrder != "OP-100" {
		t.Fatalf("entry mismatch: %+v", e)
	}
	if e.Kind != types.AllocationKindOriginal {
		t.Fatalf("kind: want=%s got=%s", types.AllocationKindOriginal, e.Kind)
	}
	if e.ProductLocationID == nil || *e.ProductLocationID != row.ID {
		t.Fatalf("source row link missing: %+v", e.ProductLocationID)
	}
	if e.Note != "entrega parcial" {
		t.Fatalf("note: want=%q got=%q", "entrega parcial", e.Note)
	}
	if e.UserID != userID {
		t.Fatalf("user: want=%s got=%s", userID, e.UserID)
	}
}

func TestRowChangedMergesRowsOnSameKey(t *testing.T) {
	db := newTestDB(t, true)
	rec := newReconcilerUnderTest(t, db)
	product := seedProduct(t, db, "REF-002")
	loc := seedLocation(t, db, "Facção Sul")
	userID := uuid.New()

	first := seedRow(t, db, product.ID, loc.ID, 5, date(2025, 3, 10), "OP-200")
	second := seedRow(t, db, product.ID, loc.ID, 7, date(2025, 3, 25), "OP-200")
	setRowNote(t, db, first.ID, "primeira remessa")
	setRowNote(t, db, second.ID, "segunda remessa")

	err := inTx(t, db, func(tx *gorm.DB) error {
		return rec.RowChanged(context.Background(), tx, RowEvent{After: second, UserID: userID})
	})
	if err != nil {
		t.Fatalf("RowChanged: %v", err)
	}

	entries := ledgerEntries(t, db, product.ID)
	if len(entries) != 1 {
		t.Fatalf("entries: want=1 got=%d", len(entries))
	}
	if entries[0].Quantity != 12 {
		t.Fatalf("merged quantity: want=12 got=%d", entries[0].Quantity)
	}
	// A merged entry cannot point at a single source row, and it privileges
	// no contributing row's note.
	if entries[0].ProductLocationID != nil {
		t.Fatalf("merged entry should not carry a source row, got %s", *entries[0].ProductLocationID)
	}
	if entries[0].Note != "" {
		t.Fatalf("merged entry note: want empty got %q", entries[0].Note)
	}
}

func TestRowChangedIsIdempotent(t *testing.T) {
	db := newTestDB(t, true)
	rec := newReconcilerUnderTest(t, db)
	product := seedProduct(t, db, "REF-003")
	loc := seedLocation(t, db, "Facção Leste")
	userID := uuid.New()

	row := seedRow(t, db, product.ID, loc.ID, 9, date(2025, 6, 1), "")
	for i := 0; i < 3; i++ {
		err := inTx(t, db, func(tx *gorm.DB) error {
			return rec.RowChanged(context.Background(), tx, RowEvent{After: row, UserID: userID})
		})
		if err != nil {
			t.Fatalf("RowChanged replay %d: %v", i, err)
		}
	}

	entries := ledgerEntries(t, db, product.ID)
	if len(entries) != 1 {
		t.Fatalf("entries after replay: want=1 got=%d", len(entries))
	}
	if entries[0].Quantity != 9 {
		t.Fatalf("quantity after replay: want=9 got=%d", entries[0].Quantity)
	}
}

func TestRowChangedIneligibleRowIsSkipped(t *testing.T) {
	db := newTestDB(t, true)
	rec := newReconcilerUnderTest(t, db)
	product := seedProduct(t, db, "REF-004")
	loc := seedLocation(t, db, "Facção Oeste")

	// No target date: the row is parked, not projected.
	row := seedRow(t, db, product.ID, loc.ID, 10, nil, "")
	err := inTx(t, db, func(tx *gorm.DB) error {
		return rec.RowChanged(context.Background(), tx, RowEvent{After: row, UserID: uuid.New()})
	})
	if err != nil {
		t.Fatalf("RowChanged: %v", err)
	}
	if entries := ledgerEntries(t, db, product.ID); len(entries) != 0 {
		t.Fatalf("entries for ineligible row: want=0 got=%d", len(entries))
	}

	// Zero quantity is equally ineligible.
	zero := seedRow(t, db, product.ID, loc.ID, 0, date(2025, 5, 5), "")
	err = inTx(t, db, func(tx *gorm.DB) error {
		return rec.RowChanged(context.Background(), tx, RowEvent{After: zero, UserID: uuid.New()})
	})
	if err != nil {
		t.Fatalf("RowChanged zero quantity: %v", err)
	}
	if entries := ledgerEntries(t, db, product.ID); len(entries) != 0 {
		t.Fatalf("entries for zero-quantity row: want=0 got=%d", len(entries))
	}
}

func TestRowChangedRemovesEmptyBucket(t *testing.T) {
	db := newTestDB(t, true)
	rec := newReconcilerUnderTest(t, db)
	product := seedProduct(t, db, "REF-005")
	loc := seedLocation(t, db, "Facção Centro")
	userID := uuid.New()

	row := seedRow(t, db, product.ID, loc.ID, 4, date(2025, 8, 20), "OP-500")
	err := inTx(t, db, func(tx *gorm.DB) error {
		return rec.RowChanged(context.Background(), tx, RowEvent{After: row, UserID: userID})
	})
	if err != nil {
		t.Fatalf("RowChanged create: %v", err)
	}

	// Soft-delete the row, then replay the event with only a Before side.
	if err := db.Delete(&types.ProductLocation{}, "id = ?", row.ID).Error; err != nil {
		t.Fatalf("soft delete row: %v", err)
	}
	err = inTx(t, db, func(tx *gorm.DB) error {
		return rec.RowChanged(context.Background(), tx, RowEvent{Before: row, UserID: userID})
	})
	if err != nil {
		t.Fatalf("RowChanged delete: %v", err)
	}
	if entries := ledgerEntries(t, db, product.ID); len(entries) != 0 {
		t.Fatalf("entries after delete: want=0 got=%d", len(entries))
	}
}

func TestRowChangedRefusesDuplicateKeys(t *testing.T) {
	// Ledger without the unique index, holding pre-existing duplicates.
	db := newTestDB(t, false)
	rec := newReconcilerUnderTest(t, db)
	product := seedProduct(t, db, "REF-006")
	loc := seedLocation(t, db, "Facção Velha")
	userID := uuid.New()

	row := seedRow(t, db, product.ID, loc.ID, 3, date(2025, 2, 12), "OP-600")
	for i := 0; i < 2; i++ {
		dup := &types.MonthlyAllocation{
			ID:              uuid.New(),
			ProductID:       product.ID,
			LocationID:      loc.ID,
			Month:           2,
			Year:            2025,
			ProductionOrder: "OP-600",
			Quantity:        3,
			Kind:            types.AllocationKindOriginal,
			UserID:          userID,
		}
		if err := db.Create(dup).Error; err != nil {
			t.Fatalf("seed duplicate entry: %v", err)
		}
	}

	err := inTx(t, db, func(tx *gorm.DB) error {
		return rec.RowChanged(context.Background(), tx, RowEvent{After: row, UserID: userID})
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	if !IsConflict(err) {
		t.Fatalf("IsConflict: want=true got=false")
	}
}

func TestRowChangedRequiresTransaction(t *testing.T) {
	db := newTestDB(t, true)
	rec := newReconcilerUnderTest(t, db)
	err := rec.RowChanged(context.Background(), nil, RowEvent{UserID: uuid.New()})
	if err == nil {
		t.Fatalf("want error for nil transaction")
	}
}
