package domain

import (
	"cmp"
	"slices"
	"strings"
)

// ApplyFilters keeps the results matching every provided constraint and orders
// them by the requested field. Ties keep their input order. The input slice is
// not modified.
//
// A stored age of 0 means the age is unknown. Such results fail every age bound,
// including an explicit minAge of 0, so setting minAge to 0 is not the same as
// leaving it out.
func ApplyFilters(results []SearchResult, params FilterSortParams) []SearchResult {
	filtered := make([]SearchResult, 0, len(results))
	for _, result := range results {
		if matches(result, params) {
			filtered = append(filtered, result)
		}
	}

	sortResults(filtered, params.SortBy, params.SortOrder)

	return filtered
}

func matches(result SearchResult, params FilterSortParams) bool {
	// Age 0 means the record carries no age; it cannot satisfy an age bound.
	if (params.MinAge != nil || params.MaxAge != nil) && result.Age <= 0 {
		return false
	}

	if params.MinAge != nil && result.Age < *params.MinAge {
		return false
	}

	if params.MaxAge != nil && result.Age > *params.MaxAge {
		return false
	}

	if sex := strings.TrimSpace(params.Sex); sex != "" && !strings.EqualFold(sex, strings.TrimSpace(result.Sex)) {
		return false
	}

	if len(params.ICDCodes) > 0 && !anyCodeMatches(result.ICDCodes, params.ICDCodes) {
		return false
	}

	if params.MinConfidence != nil && result.Similarity < *params.MinConfidence {
		return false
	}

	return true
}

func anyCodeMatches(have, want []string) bool {
	for _, code := range have {
		for _, requested := range want {
			if strings.EqualFold(strings.TrimSpace(code), strings.TrimSpace(requested)) {
				return true
			}
		}
	}
	return false
}

func sortResults(results []SearchResult, by SortField, order SortOrder) {
	if by == "" {
		by = SortBySimilarity
	}
	if order == "" {
		order = SortDesc
	}

	slices.SortStableFunc(results, func(a, b SearchResult) int {
		var c int
		switch by {
		case SortByAge:
			c = cmp.Compare(a.Age, b.Age)
		default:
			c = cmp.Compare(a.Similarity, b.Similarity)
		}

		if order == SortDesc {
			return -c
		}
		return c
	})
}
