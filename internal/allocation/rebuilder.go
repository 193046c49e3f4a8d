package allocation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/repos"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

// occBucket is one (location, month, year) occupancy cache bucket. Distinct
// production orders share a bucket, so invalidation dedupes on it rather
// than on the full grouping key.
type occBucket struct {
	locationID uuid.UUID
	month      int
	year       int
}

func appendBucket(buckets []occBucket, b occBucket) []occBucket {
	for _, existing := range buckets {
		if existing == b {
			return buckets
		}
	}
	return append(buckets, b)
}

type RebuildResult struct {
	ProductID      uuid.UUID `json:"product_id"`
	DeletedEntries int64     `json:"deleted_entries"`
	CreatedEntries int       `json:"created_entries"`
	SkippedRows    int       `json:"skipped_rows"`
}

// Rebuilder wipes and regenerates a product's monthly ledger from its current
// active association rows. The explicit repair operation: operators run it
// after the checker reports drift. Running it twice yields the same entry set.
type Rebuilder interface {
	Rebuild(ctx context.Context, productID uuid.UUID, userID uuid.UUID) (*RebuildResult, error)
}

type rebuilder struct {
	db          *gorm.DB
	log         *logger.Logger
	rowRepo     repos.ProductLocationRepo
	ledgerRepo  repos.MonthlyAllocationRepo
	eventRepo   repos.ProductEventRepo
	reconciler  Reconciler
	invalidator OccupancyInvalidator
}

func NewRebuilder(
	db *gorm.DB,
	baseLog *logger.Logger,
	rowRepo repos.ProductLocationRepo,
	ledgerRepo repos.MonthlyAllocationRepo,
	eventRepo repos.ProductEventRepo,
	reconciler Reconciler,
	invalidator OccupancyInvalidator,
) Rebuilder {
	return &rebuilder{
		db:          db,
		log:         baseLog.With("component", "AllocationRebuilder"),
		rowRepo:     rowRepo,
		ledgerRepo:  ledgerRepo,
		eventRepo:   eventRepo,
		reconciler:  reconciler,
		invalidator: invalidator,
	}
}

func (r *rebuilder) Rebuild(ctx context.Context, productID uuid.UUID, userID uuid.UUID) (*RebuildResult, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("acting user required: %w", ErrInvalidInput)
	}

	result := &RebuildResult{ProductID: productID}
	var (
		keys    []repos.GroupKey
		buckets []occBucket
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Stale entries about to be wiped may sit in buckets no surviving
		// row projects onto; their occupancy caches go stale too.
		existing, err := r.ledgerRepo.GetByProductID(ctx, tx, productID)
		if err != nil {
			return fmt.Errorf("load ledger entries: %w", err)
		}
		for _, entry := range existing {
			buckets = appendBucket(buckets, occBucket{entry.LocationID, entry.Month, entry.Year})
		}

		deleted, err := r.ledgerRepo.DeleteByProductID(ctx, tx, productID)
		if err != nil {
			return fmt.Errorf("clear ledger: %w", err)
		}
		result.DeletedEntries = deleted

		rows, err := r.rowRepo.GetActiveByProductID(ctx, tx, productID)
		if err != nil {
			return fmt.Errorf("load association rows: %w", err)
		}

		for _, row := range rows {
			key, ok := keyOf(row)
			if !ok {
				result.SkippedRows++
				r.log.Debug("Skipping row without date or quantity", "row_id", row.ID)
				continue
			}
			keys = appendKey(keys, key)
		}

		if err := r.reconciler.RebuildKeys(ctx, tx, keys, userID, types.AllocationKindRebuild); err != nil {
			return err
		}
		result.CreatedEntries = len(keys)

		payload, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("encode rebuild payload: %w", err)
		}
		return r.eventRepo.Append(ctx, tx, &types.ProductEvent{
			ID:        uuid.New(),
			ProductID: productID,
			UserID:    userID,
			Action:    types.ProductEventLedgerRebuilt,
			Payload:   datatypes.JSON(payload),
		})
	})
	if err != nil {
		r.log.Error("Rebuild failed", "product_id", productID, "error", err)
		return nil, err
	}

	if r.invalidator != nil {
		for _, key := range keys {
			buckets = appendBucket(buckets, occBucket{key.LocationID, key.Month, key.Year})
		}
		for _, b := range buckets {
			r.invalidator.Invalidate(ctx, b.locationID, b.month, b.year)
		}
	}
	r.log.Info("Rebuilt monthly ledger",
		"product_id", productID,
		"deleted", result.DeletedEntries,
		"created", result.CreatedEntries,
		"skipped_rows", result.SkippedRows)
	return result, nil
}
