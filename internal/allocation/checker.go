package allocation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/repos"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

// Report is the read-only consistency diagnosis for one product. Finding an
// inconsistency is reportable data, not an error: the checker only fails on
// storage problems.
type Report struct {
	ProductID       uuid.UUID                  `json:"product_id"`
	AssociationRows []*types.ProductLocation   `json:"association_rows"`
	LedgerEntries   []*types.MonthlyAllocation `json:"ledger_entries"`
	// AssociationSum counts every active row; EligibleSum only rows that
	// project into the ledger. TotalsMatch deliberately compares the ledger
	// against EligibleSum, not AssociationSum: a row parked without a date
	// owns no ledger bucket, so the gap between the two sums is reported
	// but is not treated as drift.
	AssociationSum int64 `json:"association_sum"`
	EligibleSum    int64 `json:"eligible_sum"`
	LedgerSum      int64 `json:"ledger_sum"`
	TotalsMatch    bool  `json:"totals_match"`
	DuplicateGroups []repos.DuplicateGroup     `json:"duplicate_groups,omitempty"`
	OrphanEntries   []*types.MonthlyAllocation `json:"orphan_entries,omitempty"`
	Consistent      bool                       `json:"consistent"`
}

// Checker diagnoses ledger drift for a product without mutating anything.
type Checker interface {
	Check(ctx context.Context, productID uuid.UUID) (*Report, error)
}

type checker struct {
	log        *logger.Logger
	rowRepo    repos.ProductLocationRepo
	ledgerRepo repos.MonthlyAllocationRepo
}

func NewChecker(baseLog *logger.Logger, rowRepo repos.ProductLocationRepo, ledgerRepo repos.MonthlyAllocationRepo) Checker {
	return &checker{
		log:        baseLog.With("component", "AllocationChecker"),
		rowRepo:    rowRepo,
		ledgerRepo: ledgerRepo,
	}
}

func (c *checker) Check(ctx context.Context, productID uuid.UUID) (*Report, error) {
	rows, err := c.rowRepo.GetActiveByProductID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("load association rows: %w", err)
	}
	entries, err := c.ledgerRepo.GetByProductID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("load ledger entries: %w", err)
	}
	rowSum, err := c.rowRepo.SumActiveQuantityByProductID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("sum association rows: %w", err)
	}
	ledgerSum, err := c.ledgerRepo.SumQuantityByProductID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("sum ledger entries: %w", err)
	}
	dups, err := c.ledgerRepo.DuplicateGroups(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("group ledger entries: %w", err)
	}

	var eligibleSum int64
	activeRowIDs := map[uuid.UUID]bool{}
	for _, row := range rows {
		activeRowIDs[row.ID] = true
		if row.Eligible() {
			eligibleSum += int64(row.Quantity)
		}
	}
	var orphans []*types.MonthlyAllocation
	for _, e := range entries {
		if e.ProductLocationID != nil && !activeRowIDs[*e.ProductLocationID] {
			orphans = append(orphans, e)
		}
	}

	report := &Report{
		ProductID:       productID,
		AssociationRows: rows,
		LedgerEntries:   entries,
		AssociationSum:  rowSum,
		EligibleSum:     eligibleSum,
		LedgerSum:       ledgerSum,
		TotalsMatch:     eligibleSum == ledgerSum,
		DuplicateGroups: dups,
		OrphanEntries:   orphans,
	}
	report.Consistent = report.TotalsMatch && len(dups) == 0 && len(orphans) == 0

	if !report.Consistent {
		c.log.Warn("Ledger inconsistency detected",
			"product_id", productID,
			"association_sum", rowSum,
			"eligible_sum", eligibleSum,
			"ledger_sum", ledgerSum,
			"duplicate_groups", len(dups),
			"orphan_entries", len(orphans))
	}
	return report, nil
}
