package scoring_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overrated_products/internal/domain"
	"overrated_products/internal/scoring"
)

func compound(sum float64) float64 { return sum / math.Sqrt(sum*sum+15) }

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"It's GOOD!", "its good"},
		{"Terrible, broke in 2 days", "terrible broke in  days"},
		{"5/5 ⭐⭐⭐⭐⭐", " "},
		{"line\nbreak\ttab", "line\nbreak\ttab"},
		{"unit\x1fsep", "unit\x1fsep"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scoring.Normalize(tt.in), tt.in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Hello, World! 123 😀",
		"ÀÉÎ mixed Ünïcode — dashes",
		"already normalized text",
		"   ",
		"don't!!! STOP???",
	}
	for _, in := range inputs {
		once := scoring.Normalize(in)
		assert.Equal(t, once, scoring.Normalize(once), in)
	}
}

// VADER valences: terrible -2.1, broke -1.8, excellent 2.7, love 3.2,
// good 1.9, nice 1.8, bad -2.5, died -2.6, like 1.5, stopped -0.9, waste -1.8,
// disappointed -2.1, meh -0.3, okay 0.9. Boosters add 0.293, negation scales
// by -0.74.
func TestExtract_Scenarios(t *testing.T) {
	ex := scoring.NewExtractor(nil)

	tests := []struct {
		name string
		text string
		want float64
	}{
		{name: "negative", text: "Terrible, broke in two days", want: compound(-2.1 - 1.8)},
		{name: "positive", text: "Excellent, love it", want: compound(2.7 + 3.2)},
		{name: "empty", text: "", want: 0},
		{name: "punctuation only", text: "?!... 123", want: 0},
		{name: "no lexicon words", text: "the box arrived on tuesday", want: 0},
		{name: "negation", text: "not good", want: compound(1.9 * -0.74)},
		{name: "booster", text: "very good", want: compound(1.9 + 0.293)},
		{name: "decayed booster", text: "very nice and good", want: compound(1.8 + 0.293 + 1.9 + 0.293*0.9)},
		{name: "negative booster", text: "extremely bad", want: compound(-2.5 - 0.293)},
		{name: "contrast", text: "It's good, but the battery died after two days.", want: compound(1.9*0.5 - 2.6*1.5)},
		{name: "contraction negation", text: "I don't like it", want: compound(1.5 * -0.74)},
		{name: "total as booster", text: "Stopped working after a week, total waste of money", want: compound(-0.9 - 1.8 - 0.293)},
		{name: "boosted disappointment", text: "Cheap junk, fell apart, very disappointed", want: compound(-2.1 - 0.293)},
		{name: "lukewarm", text: "Meh, it is okay I guess", want: compound(-0.3 + 0.9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ex.Extract(tt.text)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-4)
			assert.GreaterOrEqual(t, got, -1.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestExtract_PinnedCompounds(t *testing.T) {
	ex := scoring.NewExtractor(nil)
	for text, want := range map[string]float64{
		"Terrible, broke in two days":                        -0.7096,
		"Excellent, love it":                                 0.8360,
		"It's good, but the battery died after two days.":    -0.6059,
		"Stopped working after a week, total waste of money": -0.6115,
		"Cheap junk, fell apart, very disappointed":          -0.5256,
		"Meh, it is okay I guess":                            0.1531,
	} {
		got, err := ex.Extract(text)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 5e-5, text)
	}
}

func TestExtract_WhitespaceKinds(t *testing.T) {
	ex := scoring.NewExtractor(nil)
	want, err := ex.Extract("good bad")
	require.NoError(t, err)
	for _, text := range []string{"good\tbad", "good\n\nbad", "  good   bad  ", "good\x1fbad", "good\x1cbad", "good\u00a0bad"} {
		got, err := ex.Extract(text)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-12, "%q", text)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	ex := scoring.NewExtractor(nil)
	text := "Pretty good value, but the strap broke and support was useless"
	a, err := ex.Extract(text)
	require.NoError(t, err)
	b, err := ex.Extract(text)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExtract_Bounded(t *testing.T) {
	ex := scoring.NewExtractor(nil)
	got, err := ex.Extract(strings.Repeat("love ", 500))
	require.NoError(t, err)
	assert.LessOrEqual(t, got, 1.0)
	assert.Greater(t, got, 0.99)
}

func TestExtract_InvalidUTF8(t *testing.T) {
	ex := scoring.NewExtractor(nil)
	_, err := ex.Extract(string([]byte{'o', 'k', 0xff}))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var ie *scoring.InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "text", ie.Field)
}

func TestExtract_LexiconOverrides(t *testing.T) {
	lx, err := scoring.ParseLexicon(strings.NewReader("# custom\nflimsy\t-1.0\n\nmeh\t-2.0\textra\n"))
	require.NoError(t, err)
	assert.Len(t, lx, 2)

	ex := scoring.NewExtractor(lx)
	got, err := ex.Extract("flimsy")
	require.NoError(t, err)
	assert.InDelta(t, compound(-1), got, 1e-4)

	got, err = ex.Extract("meh")
	require.NoError(t, err)
	assert.InDelta(t, compound(-2), got, 1e-4)

	// stock entries survive
	got, err = ex.Extract("terrible")
	require.NoError(t, err)
	assert.InDelta(t, compound(-2.1), got, 1e-4)

	// overrides do not leak into other extractors
	got, err = scoring.NewExtractor(nil).Extract("flimsy")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestParseLexicon_Errors(t *testing.T) {
	_, err := scoring.ParseLexicon(strings.NewReader("novalence\n"))
	assert.Error(t, err)
	_, err = scoring.ParseLexicon(strings.NewReader("word\tabc\n"))
	assert.Error(t, err)
	_, err = scoring.ParseLexicon(strings.NewReader("word\t7\n"))
	assert.Error(t, err)
}

func TestLoadLexicon(t *testing.T) {
	lx, err := scoring.LoadLexicon("")
	require.NoError(t, err)
	assert.Empty(t, lx)

	_, err = scoring.LoadLexicon("/definitely/not/here.tsv")
	assert.Error(t, err)
}

func TestLabelAndExplain(t *testing.T) {
	tests := []struct {
		s       float64
		label   domain.SentimentLabel
		explain string
	}{
		{-0.7, domain.SentimentNegative, "negative"},
		{-0.1, domain.SentimentNegative, "mixed"},
		{-0.05, domain.SentimentNegative, "mixed"},
		{0, domain.SentimentNeutral, "mixed"},
		{0.049, domain.SentimentNeutral, "mixed"},
		{0.05, domain.SentimentPositive, "mixed"},
		{0.2, domain.SentimentPositive, "mixed"},
		{0.21, domain.SentimentPositive, "positive"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.label, scoring.Label(tt.s), tt.s)
		assert.Equal(t, tt.explain, scoring.Explain(tt.s), tt.s)
	}
}
