package domain

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Canonicalize builds the single text that is embedded for a query: the note
// followed by a compact summary of the structured fields, whitespace collapsed.
//
// Summary layout: (A:<age> S:<sex initial> Vitals[Temp:..,BP:..,HR:..,SpO2:..,RR:..])
// with absent fields left out and the field order fixed.
func Canonicalize(q Query) (string, error) {
	if strings.TrimSpace(q.NoteText) == "" {
		return "", fmt.Errorf("%w: note cannot be empty", ErrInvalidInput)
	}

	text := q.NoteText
	if summary := structuredSummary(q); summary != "" {
		text += " " + summary
	}

	return strings.Join(strings.Fields(text), " "), nil
}

func structuredSummary(q Query) string {
	var tokens []string

	if q.Age != nil {
		tokens = append(tokens, "A:"+strconv.Itoa(*q.Age))
	}

	if sex := sexInitial(q.Sex); sex != "" {
		tokens = append(tokens, "S:"+sex)
	}

	if q.Vitals != nil {
		if vitals := vitalsBlock(*q.Vitals); vitals != "" {
			tokens = append(tokens, vitals)
		}
	}

	if len(tokens) == 0 {
		return ""
	}

	return "(" + strings.Join(tokens, " ") + ")"
}

func vitalsBlock(v Vitals) string {
	ordered := []struct {
		key   string
		value Reading
	}{
		{"Temp", v.Temp},
		{"BP", v.BP},
		{"HR", v.HR},
		{"SpO2", v.SpO2},
		{"RR", v.RR},
	}

	parts := make([]string, 0, len(ordered))
	for _, reading := range ordered {
		value := strings.Join(strings.Fields(string(reading.value)), "")
		if value == "" {
			continue
		}
		parts = append(parts, reading.key+":"+value)
	}

	if len(parts) == 0 {
		return ""
	}

	return "Vitals[" + strings.Join(parts, ",") + "]"
}

// sexInitial renders "Male" as "M", "female" as "F" and so on.
func sexInitial(sex string) string {
	sex = strings.TrimSpace(sex)
	if sex == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(sex)
	return string(unicode.ToUpper(r))
}
