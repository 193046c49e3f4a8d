package allocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/repos"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

// RowEvent is one association-row lifecycle change. Before is nil on create,
// After is nil on delete; an update carries both. After a soft delete the
// After side is nil even though the row still exists for audit.
type RowEvent struct {
	Before *types.ProductLocation
	After  *types.ProductLocation
	UserID uuid.UUID
}

// Reconciler projects association-row events into the monthly allocation
// ledger. It must run inside the same transaction as the triggering write so
// a ledger failure rolls the whole mutation back.
//
// Merge policy: the ledger entry for a grouping key is always recomputed as
// the sum of quantities over every active eligible row resolving to that key.
// Two rows landing on the same key therefore merge into one entry instead of
// duplicating or silently overwriting each other. Recomputing from the live
// rows makes the operation idempotent: replaying an event converges to the
// same ledger state.
type Reconciler interface {
	RowChanged(ctx context.Context, tx *gorm.DB, ev RowEvent) error
	// RebuildKeys recomputes an explicit key set; used by the rebuilder.
	RebuildKeys(ctx context.Context, tx *gorm.DB, keys []repos.GroupKey, userID uuid.UUID, kind string) error
}

type reconciler struct {
	log        *logger.Logger
	rowRepo    repos.ProductLocationRepo
	ledgerRepo repos.MonthlyAllocationRepo
}

func NewReconciler(baseLog *logger.Logger, rowRepo repos.ProductLocationRepo, ledgerRepo repos.MonthlyAllocationRepo) Reconciler {
	return &reconciler{
		log:        baseLog.With("component", "Reconciler"),
		rowRepo:    rowRepo,
		ledgerRepo: ledgerRepo,
	}
}

// keyOf derives the ledger grouping key for a row. Second return is false for
// ineligible rows, which own no ledger bucket.
func keyOf(row *types.ProductLocation) (repos.GroupKey, bool) {
	if row == nil || row.TargetDate == nil || row.Quantity <= 0 {
		return repos.GroupKey{}, false
	}
	return repos.GroupKey{
		ProductID:       row.ProductID,
		LocationID:      row.LocationID,
		Month:           int(row.TargetDate.Month()),
		Year:            row.TargetDate.Year(),
		ProductionOrder: row.ProductionOrder,
	}, true
}

func (r *reconciler) RowChanged(ctx context.Context, tx *gorm.DB, ev RowEvent) error {
	if tx == nil {
		return fmt.Errorf("reconciler requires a transaction")
	}

	keys := make([]repos.GroupKey, 0, 2)
	if before, ok := keyOf(ev.Before); ok {
		keys = append(keys, before)
	}
	if after, ok := keyOf(ev.After); ok {
		keys = appendKey(keys, after)
	}
	if len(keys) == 0 {
		// Ineligible on both sides: nothing to project. Expected, not an error.
		r.log.Debug("Skipping ineligible row event",
			"before_eligible", false, "after_eligible", false)
		return nil
	}
	return r.recomputeKeys(ctx, tx, keys, ev.UserID, types.AllocationKindOriginal, false)
}

func (r *reconciler) RebuildKeys(ctx context.Context, tx *gorm.DB, keys []repos.GroupKey, userID uuid.UUID, kind string) error {
	if tx == nil {
		return fmt.Errorf("reconciler requires a transaction")
	}
	// The rebuilder cleared the product's ledger in this transaction, so the
	// entries are plain inserts. That keeps rebuild working on databases
	// still missing the grouping-key unique index, where an upsert has no
	// conflict target; those are exactly the databases rebuild repairs.
	return r.recomputeKeys(ctx, tx, keys, userID, kind, true)
}

func (r *reconciler) recomputeKeys(ctx context.Context, tx *gorm.DB, keys []repos.GroupKey, userID uuid.UUID, kind string, insertOnly bool) error {
	for _, key := range keys {
		if err := r.recompute(ctx, tx, key, userID, kind, insertOnly); err != nil {
			return fmt.Errorf("reconcile key %s %d/%d: %w", key.LocationID, key.Month, key.Year, err)
		}
	}
	return nil
}

// recompute rebuilds the single ledger entry for one grouping key from the
// active association rows. No contributing rows means no entry.
func (r *reconciler) recompute(ctx context.Context, tx *gorm.DB, key repos.GroupKey, userID uuid.UUID, kind string, insertOnly bool) error {
	if err := r.guardDuplicates(ctx, tx, key); err != nil {
		return err
	}

	rows, err := r.rowRepo.GetActiveByGroupKey(ctx, tx, key)
	if err != nil {
		return fmt.Errorf("load rows for key: %w", err)
	}

	if len(rows) == 0 {
		if err := r.ledgerRepo.DeleteByGroupKey(ctx, tx, key); err != nil {
			return fmt.Errorf("delete ledger entry: %w", err)
		}
		return nil
	}

	total := 0
	for _, row := range rows {
		total += row.Quantity
	}

	entry := &types.MonthlyAllocation{
		ID:              uuid.New(),
		ProductID:       key.ProductID,
		LocationID:      key.LocationID,
		Month:           key.Month,
		Year:            key.Year,
		ProductionOrder: key.ProductionOrder,
		Quantity:        total,
		Kind:            kind,
		UserID:          userID,
	}
	if len(rows) == 1 {
		// Source back-reference and note only make sense while exactly one
		// row feeds the entry; a merged entry privileges no row's note.
		srcID := rows[0].ID
		entry.ProductLocationID = &srcID
		entry.Note = rows[0].Note
	}
	if insertOnly {
		if err := r.ledgerRepo.Create(ctx, tx, entry); err != nil {
			return fmt.Errorf("create ledger entry: %w", err)
		}
	} else if err := r.ledgerRepo.Upsert(ctx, tx, entry); err != nil {
		return fmt.Errorf("upsert ledger entry: %w", err)
	}
	r.log.Debug("Reconciled grouping key",
		"product_id", key.ProductID,
		"location_id", key.LocationID,
		"month", key.Month,
		"year", key.Year,
		"production_order", key.ProductionOrder,
		"quantity", total,
		"merged_rows", len(rows))
	return nil
}

// guardDuplicates refuses to reconcile a key that already holds more than one
// ledger entry. That state predates the grouping-key unique index and an
// upsert against it would pick an arbitrary row to keep.
func (r *reconciler) guardDuplicates(ctx context.Context, tx *gorm.DB, key repos.GroupKey) error {
	dups, err := r.ledgerRepo.DuplicateGroups(ctx, tx, key.ProductID)
	if err != nil {
		return fmt.Errorf("check duplicates: %w", err)
	}
	for _, d := range dups {
		if d.Key == key {
			return fmt.Errorf("%d entries on key: %w", len(d.Entries), ErrConflict)
		}
	}
	return nil
}

func appendKey(keys []repos.GroupKey, key repos.GroupKey) []repos.GroupKey {
	for _, existing := range keys {
		if existing == key {
			return keys
		}
	}
	return append(keys, key)
}

// IsConflict reports whether err originates from a duplicate grouping key.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
