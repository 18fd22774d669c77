package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidbz/precedent/internal/observability"
)

const defaultIngestBatchSize = 500

// IngestService copies reference cases from a CaseSource into the vector index.
// Records whose embedding dimension differs from the index are rejected.
type IngestService struct {
	source    CaseSource
	index     SimilaritySearch
	batchSize int
}

// NewIngestService creates a new ingestion service.
func NewIngestService(source CaseSource, index SimilaritySearch, batchSize int) *IngestService {
	if batchSize <= 0 {
		batchSize = defaultIngestBatchSize
	}

	return &IngestService{
		source:    source,
		index:     index,
		batchSize: batchSize,
	}
}

// Run pages through the whole source. It stops at the first source error or
// context cancellation; per-record index failures are counted and skipped.
func (s *IngestService) Run(ctx context.Context) (*IngestReport, error) {
	if s.source == nil || s.index == nil {
		return nil, errors.New("ingest requires a case source and an index")
	}

	logger := observability.FromContext(ctx)
	report := &IngestReport{}
	dimension := s.index.Dimension()
	afterID := ""

	for {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("ingest cancelled: %w", err)
		}

		records, err := s.source.List(ctx, afterID, s.batchSize)
		if err != nil {
			return report, fmt.Errorf("failed to list cases after %q: %w", afterID, err)
		}

		if len(records) == 0 {
			break
		}

		for i := range records {
			record := &records[i]
			report.Scanned++

			if len(record.Embedding) != dimension {
				report.Rejected++
				logger.Warn("rejecting case with mismatched embedding dimension",
					observability.String("case_id", record.ID),
					observability.Int("dimension", len(record.Embedding)),
					observability.Int("expected_dimension", dimension))
				continue
			}

			if indexErr := s.index.Index(ctx, record); indexErr != nil {
				report.Failed++
				logger.Error("failed to index case",
					observability.String("case_id", record.ID),
					observability.Error(indexErr))
				continue
			}

			report.Indexed++
		}

		afterID = records[len(records)-1].ID

		logger.Info("ingest batch completed",
			observability.Int("batch_size", len(records)),
			observability.Int("indexed", report.Indexed),
			observability.Int("rejected", report.Rejected),
			observability.String("last_id", afterID))

		if len(records) < s.batchSize {
			break
		}
	}

	return report, nil
}
