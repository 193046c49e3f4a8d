package allocation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rogaciano/rotadomarPLM/internal/repos"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

func newCheckerUnderTest(tb testing.TB, db *gorm.DB) Checker {
	tb.Helper()
	log := testLogger(tb)
	return NewChecker(log, repos.NewProductLocationRepo(db, log), repos.NewMonthlyAllocationRepo(db, log))
}

func TestCheckEmptyProductIsConsistent(t *testing.T) {
	db := newTestDB(t, true)
	chk := newCheckerUnderTest(t, db)
	product := seedProduct(t, db, "REF-400")

	report, err := chk.Check(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !report.Consistent || !report.TotalsMatch {
		t.Fatalf("empty product should be consistent: %+v", report)
	}
}

func TestCheckCountsParkedRowsSeparately(t *testing.T) {
	db := newTestDB(t, true)
	chk := newCheckerUnderTest(t, db)
	rec := newReconcilerUnderTest(t, db)
	product := seedProduct(t, db, "REF-401")
	loc := seedLocation(t, db, "Facção Chk")
	userID := uuid.New()

	eligible := seedRow(t, db, product.ID, loc.ID, 25, date(2025, 10, 10), "")
	seedRow(t, db, product.ID, loc.ID, 5, nil, "")

	err := inTx(t, db, func(tx *gorm.DB) error {
		return rec.RowChanged(context.Background(), tx, RowEvent{After: eligible, UserID: userID})
	})
	if err != nil {
		t.Fatalf("RowChanged: %v", err)
	}

	report, err := chk.Check(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.AssociationSum != 30 {
		t.Fatalf("association sum: want=30 got=%d", report.AssociationSum)
	}
	if report.EligibleSum != 25 || report.LedgerSum != 25 {
		t.Fatalf("sums: want eligible=ledger=25, got eligible=%d ledger=%d", report.EligibleSum, report.LedgerSum)
	}
	// A parked row is a gap between the two sums, not an inconsistency.
	if !report.Consistent {
		t.Fatalf("parked row should not break consistency: %+v", report)
	}
}

func TestCheckDetectsTotalsMismatch(t *testing.T) {
	db := newTestDB(t, true)
	chk := newCheckerUnderTest(t, db)
	product := seedProduct(t, db, "REF-402")
	loc := seedLocation(t, db, "Facção Drift")

	row := seedRow(t, db, product.ID, loc.ID, 10, date(2025, 6, 6), "")
	srcID := row.ID
	entry := &types.MonthlyAllocation{
		ID:                uuid.New(),
		ProductID:         product.ID,
		LocationID:        loc.ID,
		Month:             6,
		Year:              2025,
		Quantity:          999,
		Kind:              types.AllocationKindOriginal,
		UserID:            uuid.New(),
		ProductLocationID: &srcID,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("seed drifted entry: %v", err)
	}

	report, err := chk.Check(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.TotalsMatch || report.Consistent {
		t.Fatalf("drift not detected: %+v", report)
	}
}

func TestCheckDetectsDuplicateGroups(t *testing.T) {
	db := newTestDB(t, false)
	chk := newCheckerUnderTest(t, db)
	product := seedProduct(t, db, "REF-403")
	loc := seedLocation(t, db, "Facção Dup2")

	for i := 0; i < 2; i++ {
		entry := &types.MonthlyAllocation{
			ID:         uuid.New(),
			ProductID:  product.ID,
			LocationID: loc.ID,
			Month:      11,
			Year:       2024,
			Quantity:   4,
			Kind:       types.AllocationKindOriginal,
			UserID:     uuid.New(),
		}
		if err := db.Create(entry).Error; err != nil {
			t.Fatalf("seed duplicate: %v", err)
		}
	}

	report, err := chk.Check(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(report.DuplicateGroups) != 1 {
		t.Fatalf("duplicate groups: want=1 got=%d", len(report.DuplicateGroups))
	}
	g := report.DuplicateGroups[0]
	if g.Key.Month != 11 || g.Key.Year != 2024 || len(g.Entries) != 2 {
		t.Fatalf("duplicate group mismatch: %+v", g)
	}
	if report.Consistent {
		t.Fatalf("duplicates should mark the report inconsistent")
	}
}

func TestCheckDetectsOrphanEntries(t *testing.T) {
	db := newTestDB(t, true)
	chk := newCheckerUnderTest(t, db)
	product := seedProduct(t, db, "REF-404")
	loc := seedLocation(t, db, "Facção Orfã")

	ghost := uuid.New()
	entry := &types.MonthlyAllocation{
		ID:                uuid.New(),
		ProductID:         product.ID,
		LocationID:        loc.ID,
		Month:             1,
		Year:              2025,
		Quantity:          5,
		Kind:              types.AllocationKindOriginal,
		UserID:            uuid.New(),
		ProductLocationID: &ghost,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("seed orphan entry: %v", err)
	}

	report, err := chk.Check(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(report.OrphanEntries) != 1 {
		t.Fatalf("orphans: want=1 got=%d", len(report.OrphanEntries))
	}
	if report.Consistent {
		t.Fatalf("orphan should mark the report inconsistent")
	}
}
