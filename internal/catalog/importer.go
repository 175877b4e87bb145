package catalog

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultBatchSize = 500

// Importer loads catalogue files and inserts their products.
type Importer struct {
	loader    Loader
	products  repository.ProductRepository
	batchSize int
	now       func() time.Time
	logger    zerolog.Logger
}

// NewImporter creates an importer writing through products.
func NewImporter(loader Loader, products repository.ProductRepository, logger zerolog.Logger) *Importer {
	return &Importer{
		loader:    loader,
		products:  products,
		batchSize: defaultBatchSize,
		now:       time.Now,
		logger:    logger.With().Str("component", "catalog-importer").Logger(),
	}
}

// Import loads every path in order and returns the number of products written.
// Records whose id already exists are left untouched.
func (im *Importer) Import(ctx context.Context, paths []string) (int, error) {
	total := 0
	for _, path := range paths {
		records, err := im.loader.Load(ctx, path)
		if err != nil {
			return total, fmt.Errorf("failed to load %s: %w", path, err)
		}

		products, err := im.toProducts(records)
		if err != nil {
			return total, fmt.Errorf("invalid record in %s: %w", path, err)
		}

		for start := 0; start < len(products); start += im.batchSize {
			end := min(start+im.batchSize, len(products))
			n, err := im.products.CreateBatch(ctx, products[start:end])
			total += n
			if err != nil {
				return total, fmt.Errorf("failed to import %s: %w", path, err)
			}
		}

		im.logger.Info().Str("path", path).Int("records", len(records)).Msg("catalogue file imported")
	}
	return total, nil
}

func (im *Importer) toProducts(records []Record) ([]model.Product, error) {
	now := im.now()
	products := make([]model.Product, len(records))
	for i := range records {
		id := uuid.New()
		if records[i].ID != "" {
			parsed, err := uuid.Parse(records[i].ID)
			if err != nil {
				return nil, fmt.Errorf("record %d: bad id %q", i+1, records[i].ID)
			}
			id = parsed
		}
		// Keep file order as newest-first order.
		products[i] = records[i].ToProduct(id, now.Add(-time.Duration(i)*time.Millisecond))
	}
	return products, nil
}
