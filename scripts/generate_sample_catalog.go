package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"storefront/internal/catalog"
	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// catalogNamespace derives stable product ids, so importing the generated
// files twice leaves the catalogue unchanged.
var catalogNamespace = uuid.MustParse("6f1c2a7e-4b8d-4e0a-9c3f-2d5b7a1e8c40")

// generateSampleCatalog writes gzipped JSON-lines catalogue files for
// cmd/seed. File 2 repeats one product from file 1 to show that duplicate
// ids are skipped on import.
func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	dataDir := "data/catalog"

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("failed to create directory")
	}

	files := map[string][]catalog.Record{
		"men.jsonl.gz": {
			record("Men Round Neck Pure Cotton T-shirt", "men", "topwear", "19.99", true, "S", "M", "L"),
			record("Men Slim Fit Chinos", "men", "bottomwear", "39.50", false, "30", "32", "34"),
			record("Men Quilted Winter Jacket", "men", "winterwear", "89", true, "M", "L", "XL"),
		},
		"women.jsonl.gz": {
			record("Women Floral Summer Dress", "women", "topwear", "45", true, "S", "M"),
			record("Women High Rise Jeans", "women", "bottomwear", "49.99", false, "26", "28", "30"),
			record("Men Round Neck Pure Cotton T-shirt", "men", "topwear", "19.99", true, "S", "M", "L"),
		},
		"kids.jsonl.gz": {
			record("Kids Hooded Sweatshirt", "kids", "winterwear", "24", false, "XS", "S"),
			record("Kids Denim Shorts", "kids", "bottomwear", "15.75", false, "XS", "S", "M"),
		},
	}

	for filename, records := range files {
		filePath := filepath.Join(dataDir, filename)

		if err := writeCatalogFile(filePath, records); err != nil {
			logger.Fatal().Err(err).Str("file", filename).Msg("failed to create catalogue file")
		}

		logger.Info().Str("file", filePath).Int("products", len(records)).Msg("catalogue file created")
	}

	fmt.Println("\nImport with:")
	fmt.Println("  go run ./cmd/seed -catalog data/catalog/men.jsonl.gz,data/catalog/women.jsonl.gz,data/catalog/kids.jsonl.gz")
}

func record(name, category, subcategory, price string, bestseller bool, sizes ...string) catalog.Record {
	return catalog.Record{
		ID: uuid.NewSHA1(catalogNamespace, []byte(name)).String(),
		ProductRequest: model.ProductRequest{
			Name:        name,
			Description: "A sample " + category + " " + subcategory + " product.",
			Price:       decimal.RequireFromString(price),
			Images:      []string{"https://placehold.co/600x800?text=" + uuid.NewSHA1(catalogNamespace, []byte(name)).String()[:8]},
			Category:    category,
			Subcategory: subcategory,
			Sizes:       sizes,
			Bestseller:  bestseller,
		},
	}
}

func writeCatalogFile(filePath string, records []catalog.Record) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	enc := json.NewEncoder(gzipWriter)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	return nil
}
