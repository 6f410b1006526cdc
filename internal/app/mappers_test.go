package app

import (
	"errors"
	"testing"
	"time"
)

func TestGetMonthFlexible(t *testing.T) {
	want := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		v    any
	}{
		{"time", time.Date(2023, 3, 17, 9, 30, 0, 0, time.UTC)},
		{"date string", "2023-03-17"},
		{"month string", "2023-03"},
		{"rfc3339", "2023-03-31T22:00:00Z"},
		{"unix seconds", int64(1679050000)},
		{"unix millis", int64(1679050000000)},
		{"float millis", 1679050000000.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := getMonthFlexible(map[string]any{"month": tc.v}, "month")
			if got == nil || !got.Equal(want) {
				t.Fatalf("got %v want %v", got, want)
			}
		})
	}
	if got := getMonthFlexible(map[string]any{"month": "soon"}, "month"); got != nil {
		t.Fatalf("expected nil for unparsable month, got %v", got)
	}
}

func TestMapRow_SourceIDStable(t *testing.T) {
	row := map[string]any{"text": "fine", "rating": 4.0, "product_id": "p1"}
	a, err := mapRow(row)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := mapRow(map[string]any{"text": "fine", "rating": 4.0, "product_id": "p1"})
	if a.SourceID == "" || a.SourceID != b.SourceID {
		t.Fatalf("hash not stable: %q vs %q", a.SourceID, b.SourceID)
	}
	c, _ := mapRow(map[string]any{"text": "fine", "rating": 5.0, "product_id": "p1"})
	if c.SourceID == a.SourceID {
		t.Fatalf("different rating should hash differently")
	}

	explicit, _ := mapRow(map[string]any{"id": int64(99), "text": "", "rating": 1.0, "asin": "x"})
	if explicit.SourceID != "99" {
		t.Fatalf("expected explicit id, got %q", explicit.SourceID)
	}
}

func TestMapRow_Errors(t *testing.T) {
	cases := []struct {
		row  map[string]any
		want error
	}{
		{map[string]any{"text": "x", "product_id": "p"}, errMissingRating},
		{map[string]any{"text": "x", "rating": 3.0}, errMissingProduct},
		{map[string]any{"rating": 3.0, "product_id": "p"}, errMissingText},
		{map[string]any{"text": "x", "rating": "n/a", "product_id": "p"}, errMissingRating},
	}
	for _, tc := range cases {
		if _, err := mapRow(tc.row); !errors.Is(err, tc.want) {
			t.Fatalf("row %v: got %v want %v", tc.row, err, tc.want)
		}
	}
	// empty text is a valid (neutral) review
	if _, err := mapRow(map[string]any{"text": "", "rating": 3.0, "product_id": "p"}); err != nil {
		t.Fatalf("empty text: %v", err)
	}
}

func TestGetFloatFlexible(t *testing.T) {
	cases := map[string]any{
		"float64": 4.0, "float32": float32(4), "int64": int64(4), "int": 4, "string": " 4.0 ", "comma": "4,0",
	}
	for name, v := range cases {
		got := getFloatFlexible(map[string]any{"r": v}, "r")
		if got == nil || *got != 4 {
			t.Fatalf("%s: got %v", name, got)
		}
	}
	nested := map[string]any{"scores": map[string]any{"overall": 3.5}}
	if got := getFloatFlexible(nested, "rating", "scores.overall"); got == nil || *got != 3.5 {
		t.Fatalf("nested: got %v", got)
	}
}
