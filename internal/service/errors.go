package service

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")

	// ErrAssetCleanup means a product's image could not be removed
	// during delete; the product is kept so no catalog entry ever
	// points at a missing asset.
	ErrAssetCleanup = errors.New("failed to remove product image")
)

// ValidationError reports the first order field that failed
// validation, by its JSON name.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q failed %q validation", e.Field, e.Rule)
}
