package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SortField selects the attribute results are ordered by.
type SortField string

// SortOrder selects ascending or descending ordering.
type SortOrder string

const (
	SortBySimilarity SortField = "similarity"
	SortByAge        SortField = "age"

	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Reading is a single vital-sign value. It accepts JSON strings ("160/95") and
// JSON numbers (110) and keeps the literal text either way.
type Reading string

// UnmarshalJSON implements json.Unmarshaler.
func (r *Reading) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = Reading(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: vital reading must be a string or a number", ErrInvalidInput)
	}
	*r = Reading(n.String())
	return nil
}

// Vitals holds the optional vital signs of a query.
type Vitals struct {
	BP   Reading `json:"bp,omitempty"`
	HR   Reading `json:"hr,omitempty"`
	RR   Reading `json:"rr,omitempty"`
	SpO2 Reading `json:"spo2,omitempty"`
	Temp Reading `json:"temp,omitempty"`
}

// Query is a free-text clinical note with optional structured attributes.
type Query struct {
	NoteText string  `json:"note"`
	Age      *int    `json:"age,omitempty"`
	Sex      string  `json:"sex,omitempty"`
	Vitals   *Vitals `json:"vitals,omitempty"`
}

// FilterSortParams narrows and orders retrieved cases. Zero values mean "no constraint".
type FilterSortParams struct {
	MinAge        *int      `json:"minAge,omitempty"`
	MaxAge        *int      `json:"maxAge,omitempty"`
	Sex           string    `json:"sex,omitempty"`
	ICDCodes      []string  `json:"icdCodes,omitempty"`
	MinConfidence *float64  `json:"minConfidence,omitempty"`
	SortBy        SortField `json:"sortBy,omitempty"`
	SortOrder     SortOrder `json:"sortOrder,omitempty"`
}

// RetrievalRequest is one similar-case lookup. The cache key is derived from it.
type RetrievalRequest struct {
	Query   Query            `json:"query"`
	Filters FilterSortParams `json:"filters"`
}

// CaseRecord is a reference case in the corpus. It is read-only to the retrieval pipeline.
type CaseRecord struct {
	ID          string
	Embedding   []float64
	Age         int
	Sex         string
	AdmissionID string
	ICDCodes    []string
	ICDLabels   []string
	Note        string
	Vitals      json.RawMessage
	Outcomes    json.RawMessage
	Treatments  json.RawMessage
	Diagnostics json.RawMessage
	Metadata    json.RawMessage
}

// SearchResult is a CaseRecord as returned to callers. It has no embedding field.
type SearchResult struct {
	CaseID      string          `json:"caseId"`
	Similarity  float64         `json:"similarity"`
	Age         int             `json:"age"`
	Sex         string          `json:"sex"`
	AdmissionID string          `json:"admissionId"`
	ICDCodes    []string        `json:"icdCodes"`
	ICDLabels   []string        `json:"icdLabels"`
	Note        string          `json:"note"`
	Vitals      json.RawMessage `json:"vitals,omitempty"`
	Outcomes    json.RawMessage `json:"outcomes,omitempty"`
	Treatments  json.RawMessage `json:"treatments,omitempty"`
	Diagnostics json.RawMessage `json:"diagnostics,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// Result projects the record into a SearchResult, copying fields one by one.
func (c *CaseRecord) Result(similarity float64) SearchResult {
	return SearchResult{
		CaseID:      c.ID,
		Similarity:  similarity,
		Age:         c.Age,
		Sex:         c.Sex,
		AdmissionID: c.AdmissionID,
		ICDCodes:    c.ICDCodes,
		ICDLabels:   c.ICDLabels,
		Note:        c.Note,
		Vitals:      c.Vitals,
		Outcomes:    c.Outcomes,
		Treatments:  c.Treatments,
		Diagnostics: c.Diagnostics,
		Metadata:    c.Metadata,
	}
}

// CacheEntry is a stored computation result keyed by a stable content hash.
type CacheEntry struct {
	Key          string          `json:"key"`
	Operation    string          `json:"operation"`
	ParamsDigest string          `json:"paramsDigest"`
	Value        json.RawMessage `json:"value"`
	CreatedAt    time.Time       `json:"createdAt"`
	ExpiresAt    time.Time       `json:"expiresAt"`
}

// Expired reports whether the entry is no longer live at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Scanned  int `json:"scanned"`
	Indexed  int `json:"indexed"`
	Rejected int `json:"rejected"`
	Failed   int `json:"failed"`
}
