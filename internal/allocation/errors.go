package allocation

import "errors"

var (
	// ErrNotFound signals a missing association row, product, or location.
	ErrNotFound = errors.New("not found")
	// ErrIneligible marks a row that cannot be projected (no target date or
	// non-positive quantity). Handled internally; callers never see it.
	ErrIneligible = errors.New("row not eligible for monthly projection")
	// ErrConflict signals more than one ledger entry on a single grouping
	// key. Only possible on data predating the unique index; the reconciler
	// refuses to guess and the operator must rebuild the product.
	ErrConflict = errors.New("duplicate monthly entries for grouping key")
	// ErrInvalidInput signals a malformed mutation request.
	ErrInvalidInput = errors.New("invalid input")
)
