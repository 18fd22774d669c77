package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Validate checks the request at the boundary. All failures wrap ErrInvalidInput.
func (r *RetrievalRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: request cannot be nil", ErrInvalidInput)
	}

	if strings.TrimSpace(r.Query.NoteText) == "" {
		return fmt.Errorf("%w: note cannot be empty", ErrInvalidInput)
	}

	if r.Query.Age != nil && *r.Query.Age <= 0 {
		return fmt.Errorf("%w: age must be positive", ErrInvalidInput)
	}

	return r.Filters.Validate()
}

// Validate checks filter bounds and enum values.
func (f *FilterSortParams) Validate() error {
	if f.MinAge != nil && *f.MinAge < 0 {
		return fmt.Errorf("%w: minAge cannot be negative", ErrInvalidInput)
	}

	if f.MaxAge != nil && *f.MaxAge < 0 {
		return fmt.Errorf("%w: maxAge cannot be negative", ErrInvalidInput)
	}

	if f.MinAge != nil && f.MaxAge != nil && *f.MinAge > *f.MaxAge {
		return fmt.Errorf("%w: minAge %d is greater than maxAge %d", ErrInvalidInput, *f.MinAge, *f.MaxAge)
	}

	if f.MinConfidence != nil && (*f.MinConfidence < 0 || *f.MinConfidence > 1) {
		return fmt.Errorf("%w: minConfidence must be within [0, 1]", ErrInvalidInput)
	}

	switch f.SortBy {
	case "", SortBySimilarity, SortByAge:
	default:
		return fmt.Errorf("%w: unsupported sortBy %q", ErrInvalidInput, f.SortBy)
	}

	switch f.SortOrder {
	case "", SortAsc, SortDesc:
	default:
		return fmt.Errorf("%w: unsupported sortOrder %q", ErrInvalidInput, f.SortOrder)
	}

	return nil
}

// normalized returns a copy with defaults filled in and ICD codes in a stable order,
// so logically identical requests hash to the same cache key.
func (r *RetrievalRequest) normalized() RetrievalRequest {
	out := *r

	if out.Filters.SortBy == "" {
		out.Filters.SortBy = SortBySimilarity
	}
	if out.Filters.SortOrder == "" {
		out.Filters.SortOrder = SortDesc
	}

	if len(r.Filters.ICDCodes) > 0 {
		codes := slices.Clone(r.Filters.ICDCodes)
		slices.Sort(codes)
		out.Filters.ICDCodes = slices.Compact(codes)
	}

	if out.Query.Vitals != nil && *out.Query.Vitals == (Vitals{}) {
		out.Query.Vitals = nil
	}

	return out
}
