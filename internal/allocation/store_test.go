package allocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rogaciano/rotadomarPLM/internal/repos"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

type bucket struct {
	LocationID uuid.UUID
	Month      int
	Year       int
}

// fakeInvalidator records which occupancy buckets were dropped.
type fakeInvalidator struct {
	calls []bucket
}

func (f *fakeInvalidator) Invalidate(_ context.Context, locationID uuid.UUID, month, year int) {
	f.calls = append(f.calls, bucket{LocationID: locationID, Month: month, Year: year})
}

type storeFixture struct {
	db          *gorm.DB
	store       Store
	invalidator *fakeInvalidator
	product     *types.Product
	location    *types.Location
	userID      uuid.UUID
}

func newStoreFixture(tb testing.TB) *storeFixture {
	tb.Helper()
	db := newTestDB(tb, true)
	log := testLogger(tb)
	rowRepo := repos.NewProductLocationRepo(db, log)
	ledgerRepo := repos.NewMonthlyAllocationRepo(db, log)
	rec := NewReconciler(log, rowRepo, ledgerRepo)
	inv := &fakeInvalidator{}
	st := NewStore(db, log, repos.NewProductRepo(db, log), repos.NewLocationRepo(db, log), rowRepo, rec, inv)
	return &storeFixture{
		db:          db,
		store:       st,
		invalidator: inv,
		product:     seedProduct(tb, db, "REF-100"),
		location:    seedLocation(tb, db, "Facção Teste"),
		userID:      uuid.New(),
	}
}

func TestAssignCreatesRowAndLedgerEntry(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	row, err := f.store.Assign(ctx, AssignInput{
		ProductID:       f.product.ID,
		LocationID:      f.location.ID,
		Quantity:        120,
		TargetDate:      date(2025, 3, 15),
		ProductionOrder: "OP-777",
		UserID:          f.userID,
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if row.ID == uuid.Nil {
		t.Fatalf("row id not set")
	}

	entries := ledgerEntries(t, f.db, f.product.ID)
	if len(entries) != 1 {
		t.Fatalf("entries: want=1 got=%d", len(entries))
	}
	e := entries[0]
	if e.Quantity != 120 || e.Month != 3 || e.Year != 2025 || e.ProductionOrder != "OP-777" {
		t.Fatalf("entry mismatch: %+v", e)
	}
	if len(f.invalidator.calls) != 1 {
		t.Fatalf("invalidations: want=1 got=%d", len(f.invalidator.calls))
	}
	want := bucket{LocationID: f.location.ID, Month: 3, Year: 2025}
	if f.invalidator.calls[0] != want {
		t.Fatalf("invalidated bucket: want=%+v got=%+v", want, f.invalidator.calls[0])
	}
}

func TestAssignWithoutDateCreatesNoEntry(t *testing.T) {
	f := newStoreFixture(t)

	_, err := f.store.Assign(context.Background(), AssignInput{
		ProductID:  f.product.ID,
		LocationID: f.location.ID,
		Quantity:   50,
		UserID:     f.userID,
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if entries := ledgerEntries(t, f.db, f.product.ID); len(entries) != 0 {
		t.Fatalf("entries: want=0 got=%d", len(entries))
	}
	if len(f.invalidator.calls) != 0 {
		t.Fatalf("invalidations: want=0 got=%d", len(f.invalidator.calls))
	}
}

func TestAssignValidation(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	_, err := f.store.Assign(ctx, AssignInput{
		ProductID:  f.product.ID,
		LocationID: f.location.ID,
		Quantity:   -1,
		UserID:     f.userID,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative quantity: want ErrInvalidInput, got %v", err)
	}

	_, err = f.store.Assign(ctx, AssignInput{
		ProductID:  f.product.ID,
		LocationID: f.location.ID,
		Quantity:   1,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing user: want ErrInvalidInput, got %v", err)
	}

	_, err = f.store.Assign(ctx, AssignInput{
		ProductID:  uuid.New(),
		LocationID: f.location.ID,
		Quantity:   1,
		UserID:     f.userID,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown product: want ErrNotFound, got %v", err)
	}

	_, err = f.store.Assign(ctx, AssignInput{
		ProductID:  f.product.ID,
		LocationID: uuid.New(),
		Quantity:   1,
		UserID:     f.userID,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown location: want ErrNotFound, got %v", err)
	}
}

func TestUpdateMovesEntryAcrossMonths(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	row, err := f.store.Assign(ctx, AssignInput{
		ProductID:  f.product.ID,
		LocationID: f.location.ID,
		Quantity:   30,
		TargetDate: date(2025, 3, 31),
		UserID:     f.userID,
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	_, err = f.store.Update(ctx, row.ID, UpdateInput{
		TargetDate: date(2025, 4, 1),
		UserID:     f.userID,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	entries := ledgerEntries(t, f.db, f.product.ID)
	if len(entries) != 1 {
		t.Fatalf("entries: want=1 got=%d", len(entries))
	}
	if entries[0].Month != 4 || entries[0].Year != 2025 {
		t.Fatalf("entry should have moved to 04/2025, got %02d/%d", entries[0].Month, entries[0].Year)
	}
	// Both the vacated and the new bucket must be invalidated.
	if len(f.invalidator.calls) != 3 {
		t.Fatalf("invalidations: want=3 got=%d", len(f.invalidator.calls))
	}
}

func TestUpdateAddingDateMakesRowEligible(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	row, err := f.store.Assign(ctx, AssignInput{
		ProductID:  f.product.ID,
		LocationID: f.location.ID,
		Quantity:   15,
		UserID:     f.userID,
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if entries := ledgerEntries(t, f.db, f.product.ID); len(entries) != 0 {
		t.Fatalf("entries before date: want=0 got=%d", len(entries))
	}

	_, err = f.store.Update(ctx, row.ID, UpdateInput{
		TargetDate: date(2025, 9, 10),
		UserID:     f.userID,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	entries := ledgerEntries(t, f.db, f.product.ID)
	if len(entries) != 1 || entries[0].Quantity != 15 {
		t.Fatalf("entries after date: %+v", entries)
	}
}

func TestUpdateClearDateRemovesEntry(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	row, err := f.store.Assign(ctx, AssignInput{
		ProductID:  f.product.ID,
		LocationID: f.location.ID,
		Quantity:   15,
		TargetDate: date(2025, 9, 10),
		UserID:     f.userID,
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	updated, err := f.store.Update(ctx, row.ID, UpdateInput{
		ClearTargetDate: true,
		UserID:          f.userID,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.TargetDate != nil {
		t.Fatalf("target date should be cleared, got %v", updated.TargetDate)
	}
	if entries := ledgerEntries(t, f.db, f.product.ID); len(entries) != 0 {
		t.Fatalf("entries after clear: want=0 got=%d", len(entries))
	}
}

func TestUpdateSetAndClearDateConflict(t *testing.T) {
	f := newStoreFixture(t)
	_, err := f.store.Update(context.Background(), uuid.New(), UpdateInput{
		TargetDate:      date(2025, 1, 1),
		ClearTargetDate: true,
		UserID:          f.userID,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestSoftDeleteRemovesEntryKeepsRow(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	log := testLogger(t)
	rowRepo := repos.NewProductLocationRepo(f.db, log)

	row, err := f.store.Assign(ctx, AssignInput{
		ProductID:  f.product.ID,
		LocationID: f.location.ID,
		Quantity:   60,
		TargetDate: date(2025, 7, 7),
		UserID:     f.userID,
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if err := f.store.SoftDelete(ctx, row.ID, f.userID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	if entries := ledgerEntries(t, f.db, f.product.ID); len(entries) != 0 {
		t.Fatalf("entries after delete: want=0 got=%d", len(entries))
	}
	// The row itself survives for audit, marked deleted.
	kept, err := rowRepo.GetByID(ctx, nil, row.ID)
	if err != nil {
		t.Fatalf("GetByID after delete: %v", err)
	}
	if kept.Active() {
		t.Fatalf("row should be soft-deleted")
	}

	// Deleting the same row again is a not-found, not a second delete.
	if err := f.store.SoftDelete(ctx, row.ID, f.userID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}

func TestLedgerStaysConsistentAcrossMixedSequence(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	log := testLogger(t)
	checker := NewChecker(log, repos.NewProductLocationRepo(f.db, log), repos.NewMonthlyAllocationRepo(f.db, log))

	second := seedLocation(t, f.db, "Facção Dois")
	qty := func(n int) *int { return &n }

	rowA, err := f.store.Assign(ctx, AssignInput{
		ProductID: f.product.ID, LocationID: f.location.ID,
		Quantity: 10, TargetDate: date(2025, 3, 5), ProductionOrder: "OP-A", UserID: f.userID,
	})
	if err != nil {
		t.Fatalf("assign A: %v", err)
	}
	rowB, err := f.store.Assign(ctx, AssignInput{
		ProductID: f.product.ID, LocationID: f.location.ID,
		Quantity: 20, TargetDate: date(2025, 3, 20), ProductionOrder: "OP-A", UserID: f.userID,
	})
	if err != nil {
		t.Fatalf("assign B: %v", err)
	}
	rowC, err := f.store.Assign(ctx, AssignInput{
		ProductID: f.product.ID, LocationID: second.ID,
		Quantity: 7, UserID: f.userID,
	})
	if err != nil {
		t.Fatalf("assign C: %v", err)
	}

	if _, err := f.store.Update(ctx, rowA.ID, UpdateInput{Quantity: qty(12), UserID: f.userID}); err != nil {
		t.Fatalf("update A: %v", err)
	}
	if _, err := f.store.Update(ctx, rowC.ID, UpdateInput{TargetDate: date(2025, 4, 2), UserID: f.userID}); err != nil {
		t.Fatalf("update C: %v", err)
	}
	if err := f.store.SoftDelete(ctx, rowB.ID, f.userID); err != nil {
		t.Fatalf("delete B: %v", err)
	}

	report, err := checker.Check(ctx, f.product.ID)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !report.Consistent {
		t.Fatalf("report not consistent: %+v", report)
	}
	if report.EligibleSum != 19 || report.LedgerSum != 19 {
		t.Fatalf("sums: want eligible=ledger=19, got eligible=%d ledger=%d", report.EligibleSum, report.LedgerSum)
	}
}

func TestNormalizeDateTruncatesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	in := time.Date(2025, 3, 31, 23, 30, 0, 0, loc)
	got := normalizeDate(&in)
	want := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("normalizeDate: want=%v got=%v", want, got)
	}
}
