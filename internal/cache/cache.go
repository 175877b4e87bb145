package cache

import (
	"context"

	"storefront/internal/model"
)

// ProductCache holds the full catalogue listing. Misses are reported with
// ok == false and a nil error.
//
// Every Invalidate starts a new generation. GetAll reports the generation it
// looked in, and SetAll only fills that generation, so a listing read from the
// database before an invalidation can never be served after it.
type ProductCache interface {
	GetAll(ctx context.Context) (products []model.Product, generation int64, ok bool, err error)
	SetAll(ctx context.Context, generation int64, products []model.Product) error
	Invalidate(ctx context.Context) error
	Close() error
}

type nopCache struct{}

// NewNopCache returns a cache that never hits.
func NewNopCache() ProductCache {
	return nopCache{}
}

func (nopCache) GetAll(context.Context) ([]model.Product, int64, bool, error) {
	return nil, 0, false, nil
}
func (nopCache) SetAll(context.Context, int64, []model.Product) error { return nil }
func (nopCache) Invalidate(context.Context) error                     { return nil }
func (nopCache) Close() error                                         { return nil }
