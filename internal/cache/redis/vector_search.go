package redis

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/precedent/internal/domain"
	"github.com/davidbz/precedent/internal/observability"
)

const (
	redisDialectVersion = 2

	knnQuery = "*=>[KNN $K @embedding $vec EF_RUNTIME $EF AS score]"

	fieldEmbedding   = "embedding"
	fieldCaseID      = "case_id"
	fieldAge         = "age"
	fieldSex         = "sex"
	fieldAdmissionID = "admission_id"
	fieldICDCodes    = "icd_codes"
	fieldICDLabels   = "icd_labels"
	fieldNote        = "note"
	fieldVitals      = "vitals"
	fieldOutcomes    = "outcomes"
	fieldTreatments  = "treatments"
	fieldDiagnostics = "diagnostics"
	fieldMetadata    = "metadata"
	fieldScore       = "score"

	tagSeparator = ","
)

// IndexConfig describes the RediSearch index holding the reference cases.
type IndexConfig struct {
	Name           string `env:"INDEX_NAME"                 envDefault:"idx:cases"`
	KeyPrefix      string `env:"INDEX_KEY_PREFIX"           envDefault:"case:"`
	Dimension      int    `env:"INDEX_DIMENSION"            envDefault:"768"`
	M              int    `env:"INDEX_HNSW_M"               envDefault:"16"`
	EFConstruction int    `env:"INDEX_HNSW_EF_CONSTRUCTION" envDefault:"200"`
}

// returnFields is the projection of every search. The embedding is never requested.
var returnFields = []redis.FTSearchReturn{
	{FieldName: fieldCaseID},
	{FieldName: fieldAge},
	{FieldName: fieldSex},
	{FieldName: fieldAdmissionID},
	{FieldName: fieldICDCodes},
	{FieldName: fieldICDLabels},
	{FieldName: fieldNote},
	{FieldName: fieldVitals},
	{FieldName: fieldOutcomes},
	{FieldName: fieldTreatments},
	{FieldName: fieldDiagnostics},
	{FieldName: fieldMetadata},
	{FieldName: fieldScore},
}

// VectorSearch implements domain.SimilaritySearch on a RediSearch HNSW index.
type VectorSearch struct {
	client    *redis.Client
	indexName string
	keyPrefix string
	dimension int
	m         int
	efBuild   int
}

// NewVectorSearch creates a new Redis vector search adapter and ensures the index exists.
func NewVectorSearch(ctx context.Context, client *redis.Client, cfg *IndexConfig) (*VectorSearch, error) {
	v := newVectorSearch(client, cfg)
	if v.dimension <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", v.dimension)
	}

	if err := v.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return v, nil
}

func newVectorSearch(client *redis.Client, cfg *IndexConfig) *VectorSearch {
	return &VectorSearch{
		client:    client,
		indexName: cfg.Name,
		keyPrefix: cfg.KeyPrefix,
		dimension: cfg.Dimension,
		m:         cfg.M,
		efBuild:   cfg.EFConstruction,
	}
}

// Dimension returns the configured vector dimension.
func (v *VectorSearch) Dimension() int {
	return v.dimension
}

// floatsToBytes converts float64 slice to binary byte representation.
func floatsToBytes(fs []float64) []byte {
	const bytesPerFloat32 = 4
	buf := make([]byte, len(fs)*bytesPerFloat32)

	for i, f := range fs {
		// Convert float64 to float32 for Redis compatibility
		u := math.Float32bits(float32(f))
		binary.LittleEndian.PutUint32(buf[i*bytesPerFloat32:], u)
	}

	return buf
}

// Search returns up to limit nearest cases, most similar first. numCandidates
// sizes the HNSW candidate list and is raised to limit when smaller.
func (v *VectorSearch) Search(
	ctx context.Context,
	vector []float64,
	numCandidates int,
	limit int,
) ([]domain.SearchResult, error) {
	if len(vector) == 0 {
		return nil, domain.ErrEmptyQueryVector
	}

	if len(vector) != v.dimension {
		return nil, fmt.Errorf("%w: %w: query has %d dimensions, index %s expects %d",
			domain.ErrIndexUnavailable, domain.ErrDimensionMismatch, len(vector), v.indexName, v.dimension)
	}

	if limit <= 0 {
		return []domain.SearchResult{}, nil
	}

	logger := observability.FromContext(ctx)
	logger.Debug("starting vector search",
		observability.String("index", v.indexName),
		observability.Int("num_candidates", numCandidates),
		observability.Int("limit", limit))

	results, err := v.client.FTSearchWithArgs(ctx, v.indexName, knnQuery, v.searchOptions(vector, numCandidates, limit)).Result()
	if err != nil {
		logger.Error("vector search failed", observability.Error(err))
		return nil, fmt.Errorf("%w: search failed: %w", domain.ErrIndexUnavailable, err)
	}

	logger.Debug("vector search completed",
		observability.Int("total_docs", results.Total),
		observability.Int("docs_returned", len(results.Docs)))

	return v.parseSearchResults(ctx, results), nil
}

func (v *VectorSearch) searchOptions(vector []float64, numCandidates, limit int) *redis.FTSearchOptions {
	return &redis.FTSearchOptions{
		Return: returnFields,
		SortBy: []redis.FTSearchSortBy{
			{FieldName: fieldScore, Asc: true},
		},
		LimitOffset:    0,
		Limit:          limit,
		DialectVersion: redisDialectVersion,
		Params: map[string]any{
			"K":   limit,
			"EF":  max(numCandidates, limit),
			"vec": floatsToBytes(vector),
		},
	}
}

// Index stores one reference case as a hash under <prefix><id>.
func (v *VectorSearch) Index(ctx context.Context, record *domain.CaseRecord) error {
	if record == nil || record.ID == "" {
		return errors.New("case record must have an id")
	}

	if len(record.Embedding) != v.dimension {
		return fmt.Errorf("%w: case %s has %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, record.ID, len(record.Embedding), v.dimension)
	}

	fields, err := hashFields(record)
	if err != nil {
		return fmt.Errorf("failed to encode case %s: %w", record.ID, err)
	}

	key := v.keyPrefix + record.ID
	if setErr := v.client.HSet(ctx, key, fields).Err(); setErr != nil {
		observability.FromContext(ctx).Error("vector index failed",
			observability.String("key", key),
			observability.Error(setErr))
		return fmt.Errorf("%w: failed to index %s: %w", domain.ErrIndexUnavailable, key, setErr)
	}

	return nil
}

func hashFields(record *domain.CaseRecord) (map[string]any, error) {
	labels := record.ICDLabels
	if labels == nil {
		labels = []string{}
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("marshal icd labels: %w", err)
	}

	fields := map[string]any{
		fieldEmbedding:   floatsToBytes(record.Embedding),
		fieldCaseID:      record.ID,
		fieldAge:         record.Age,
		fieldSex:         record.Sex,
		fieldAdmissionID: record.AdmissionID,
		fieldICDCodes:    strings.Join(record.ICDCodes, tagSeparator),
		fieldICDLabels:   string(labelsJSON),
		fieldNote:        record.Note,
	}

	optional := map[string]json.RawMessage{
		fieldVitals:      record.Vitals,
		fieldOutcomes:    record.Outcomes,
		fieldTreatments:  record.Treatments,
		fieldDiagnostics: record.Diagnostics,
		fieldMetadata:    record.Metadata,
	}
	for name, raw := range optional {
		if len(raw) > 0 && string(raw) != "null" {
			fields[name] = string(raw)
		}
	}

	return fields, nil
}

// EnsureIndex creates the search index if it doesn't exist.
func (v *VectorSearch) EnsureIndex(ctx context.Context) error {
	logger := observability.FromContext(ctx)

	if _, err := v.client.FTInfo(ctx, v.indexName).Result(); err == nil {
		logger.Info("redis search index already exists, skipping creation",
			observability.String("index_name", v.indexName))
		return nil
	}

	logger.Info("creating redis search index",
		observability.String("index_name", v.indexName),
		observability.Int("embedding_dimension", v.dimension))

	_, err := v.client.FTCreate(ctx, v.indexName,
		&redis.FTCreateOptions{
			OnHash: true,
			Prefix: []any{v.keyPrefix},
		},
		&redis.FieldSchema{
			FieldName: fieldEmbedding,
			FieldType: redis.SearchFieldTypeVector,
			VectorArgs: &redis.FTVectorArgs{
				HNSWOptions: &redis.FTHNSWOptions{
					Type:                   "FLOAT32",
					Dim:                    v.dimension,
					DistanceMetric:         "COSINE",
					MaxEdgesPerNode:        v.m,
					MaxAllowedEdgesPerNode: v.efBuild,
				},
			},
		},
		&redis.FieldSchema{
			FieldName: fieldAge,
			FieldType: redis.SearchFieldTypeNumeric,
			Sortable:  true,
		},
		&redis.FieldSchema{
			FieldName: fieldSex,
			FieldType: redis.SearchFieldTypeTag,
		},
		&redis.FieldSchema{
			FieldName: fieldICDCodes,
			FieldType: redis.SearchFieldTypeTag,
			Separator: tagSeparator,
		},
	).Result()
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	logger.Info("successfully created redis search index",
		observability.String("index_name", v.indexName))

	return nil
}

// parseSearchResults converts documents in reply order, skipping malformed ones.
func (v *VectorSearch) parseSearchResults(ctx context.Context, result redis.FTSearchResult) []domain.SearchResult {
	logger := observability.FromContext(ctx)
	results := make([]domain.SearchResult, 0, len(result.Docs))

	for _, doc := range result.Docs {
		searchResult, err := v.parseSearchResult(doc)
		if err != nil {
			logger.Warn("skipping malformed search result",
				observability.String("key", doc.ID),
				observability.Error(err))
			continue
		}
		results = append(results, searchResult)
	}

	return results
}

// parseSearchResult parses a single Document into a domain SearchResult.
func (v *VectorSearch) parseSearchResult(doc redis.Document) (domain.SearchResult, error) {
	// The KNN distance is returned as the "score" field, not doc.Score.
	scoreStr, ok := doc.Fields[fieldScore]
	if !ok {
		return domain.SearchResult{}, errors.New("score field missing")
	}

	distance, err := strconv.ParseFloat(scoreStr, 64)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("invalid score %q: %w", scoreStr, err)
	}

	caseID := doc.Fields[fieldCaseID]
	if caseID == "" {
		caseID = strings.TrimPrefix(doc.ID, v.keyPrefix)
	}

	age := 0
	if ageStr := doc.Fields[fieldAge]; ageStr != "" {
		age, err = strconv.Atoi(ageStr)
		if err != nil {
			return domain.SearchResult{}, fmt.Errorf("invalid age %q: %w", ageStr, err)
		}
	}

	labels := []string{}
	if raw := doc.Fields[fieldICDLabels]; raw != "" {
		if unmarshalErr := json.Unmarshal([]byte(raw), &labels); unmarshalErr != nil {
			return domain.SearchResult{}, fmt.Errorf("invalid icd labels: %w", unmarshalErr)
		}
	}

	return domain.SearchResult{
		CaseID:      caseID,
		Similarity:  similarityFromDistance(distance),
		Age:         age,
		Sex:         doc.Fields[fieldSex],
		AdmissionID: doc.Fields[fieldAdmissionID],
		ICDCodes:    splitTags(doc.Fields[fieldICDCodes]),
		ICDLabels:   labels,
		Note:        doc.Fields[fieldNote],
		Vitals:      rawJSON(doc.Fields[fieldVitals]),
		Outcomes:    rawJSON(doc.Fields[fieldOutcomes]),
		Treatments:  rawJSON(doc.Fields[fieldTreatments]),
		Diagnostics: rawJSON(doc.Fields[fieldDiagnostics]),
		Metadata:    rawJSON(doc.Fields[fieldMetadata]),
	}, nil
}

// similarityFromDistance maps a cosine distance in [0,2] onto [0,1], 1 being identical.
func similarityFromDistance(distance float64) float64 {
	similarity := 1 - distance/2
	return math.Min(1, math.Max(0, similarity))
}

func splitTags(value string) []string {
	tags := []string{}
	for _, tag := range strings.Split(value, tagSeparator) {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func rawJSON(value string) json.RawMessage {
	if value == "" || !json.Valid([]byte(value)) {
		return nil
	}
	return json.RawMessage(value)
}
