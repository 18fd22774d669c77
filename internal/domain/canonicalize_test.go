package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/precedent/internal/domain"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name  string
		query domain.Query
		want  string
	}{
		{
			name:  "should return note only when no structured fields",
			query: domain.Query{NoteText: "  cough   and\tfever\n"},
			want:  "cough and fever",
		},
		{
			name: "should append age sex and vitals in fixed order",
			query: domain.Query{
				NoteText: "65yo male, chest pain, BP 160/95, HR 110",
				Age:      intPtr(65),
				Sex:      "Male",
				Vitals:   &domain.Vitals{HR: "110", BP: "160/95"},
			},
			want: "65yo male, chest pain, BP 160/95, HR 110 (A:65 S:M Vitals[BP:160/95,HR:110])",
		},
		{
			name: "should order every vital as temp bp hr spo2 rr",
			query: domain.Query{
				NoteText: "dyspnea",
				Vitals:   &domain.Vitals{RR: "22", SpO2: "91", HR: "120", BP: "100/60", Temp: "38.5"},
			},
			want: "dyspnea (Vitals[Temp:38.5,BP:100/60,HR:120,SpO2:91,RR:22])",
		},
		{
			name:  "should render female as F",
			query: domain.Query{NoteText: "abdominal pain", Sex: " female "},
			want:  "abdominal pain (S:F)",
		},
		{
			name:  "should omit empty vitals block",
			query: domain.Query{NoteText: "headache", Age: intPtr(30), Vitals: &domain.Vitals{}},
			want:  "headache (A:30)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.Canonicalize(tt.query)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalize_EmptyNote(t *testing.T) {
	for _, note := range []string{"", "   ", "\n\t"} {
		_, err := domain.Canonicalize(domain.Query{NoteText: note, Age: intPtr(40)})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}

func TestCanonicalize_DeterministicAcrossFieldOrder(t *testing.T) {
	first := `{"note":"chest pain","age":65,"sex":"Male","vitals":{"hr":110,"bp":"160/95"}}`
	second := `{"vitals":{"bp":"160/95","hr":110},"sex":"Male","age":65,"note":"chest pain"}`

	var q1, q2 domain.Query
	require.NoError(t, json.Unmarshal([]byte(first), &q1))
	require.NoError(t, json.Unmarshal([]byte(second), &q2))

	c1, err := domain.Canonicalize(q1)
	require.NoError(t, err)
	c2, err := domain.Canonicalize(q2)
	require.NoError(t, err)

	require.Equal(t, c1, c2)
	require.Equal(t, "chest pain (A:65 S:M Vitals[BP:160/95,HR:110])", c1)
}

func TestReading_UnmarshalJSON(t *testing.T) {
	var vitals domain.Vitals
	require.NoError(t, json.Unmarshal([]byte(`{"temp":37.2,"bp":"120/80","hr":null}`), &vitals))
	require.Equal(t, domain.Reading("37.2"), vitals.Temp)
	require.Equal(t, domain.Reading("120/80"), vitals.BP)
	require.Empty(t, vitals.HR)

	err := json.Unmarshal([]byte(`{"hr":true}`), &vitals)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
