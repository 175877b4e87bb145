package catalog

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"storefront/internal/model"
	"storefront/internal/validation"

	"github.com/rs/zerolog"
)

// Record is one line of a catalogue file. ID is optional; records that carry
// one are imported idempotently.
type Record struct {
	ID string `json:"id,omitempty"`
	model.ProductRequest
}

// Loader reads a gzipped newline-delimited JSON catalogue file.
type Loader interface {
	Load(ctx context.Context, path string) ([]Record, error)
}

// decodeRecords reads gzip-compressed JSON lines from r. Blank lines are
// skipped; malformed or invalid records are logged and skipped.
func decodeRecords(ctx context.Context, r io.Reader, source string, logger zerolog.Logger) ([]Record, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		logger.Error().Err(err).Str("source", source).Msg("failed to create gzip reader")
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", source, err)
	}
	defer gzipReader.Close()

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		records []Record
		lineNo  int
		skipped int
	)
	for scanner.Scan() {
		lineNo++
		if lineNo%10_000 == 0 {
			select {
			case <-ctx.Done():
				logger.Warn().Str("source", source).Msg("catalogue loading cancelled")
				return nil, ctx.Err()
			default:
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			skipped++
			logger.Warn().Err(err).Str("source", source).Int("line", lineNo).Msg("skipping malformed record")
			continue
		}
		if err := validation.Struct(&rec.ProductRequest); err != nil {
			skipped++
			logger.Warn().Err(err).Str("source", source).Int("line", lineNo).Msg("skipping invalid record")
			continue
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		logger.Error().Err(err).Str("source", source).Msg("error reading catalogue file")
		return nil, fmt.Errorf("error reading catalogue file %s: %w", source, err)
	}

	logger.Info().
		Str("source", source).
		Int("records", len(records)).
		Int("skipped", skipped).
		Msg("catalogue file loaded")

	return records, nil
}
