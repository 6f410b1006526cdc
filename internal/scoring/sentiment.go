package scoring

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonreiter/govader"

	"overrated_products/internal/domain"
)

// isSpace is the whitespace set of a Unicode-aware \s: unicode.IsSpace plus the
// information separators U+001C..U+001F.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// Normalize lowercases text and drops every rune that is neither an ASCII
// letter nor whitespace. Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || isSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Extractor scores text polarity with VADER. The analyzer is only read after
// construction, so one Extractor serves concurrent callers.
type Extractor struct {
	sia *govader.SentimentIntensityAnalyzer
}

// NewExtractor builds a VADER analyzer with the stock lexicon; entries in
// overrides replace or extend it.
func NewExtractor(overrides Lexicon) *Extractor {
	sia := govader.NewSentimentIntensityAnalyzer()
	for w, v := range overrides {
		sia.Lexicon[w] = v
	}
	return &Extractor{sia: sia}
}

// Extract returns the VADER compound polarity of the normalized text, in
// [-1, 1]. Text with no lexicon words, including empty text, scores 0.
func (e *Extractor) Extract(text string) (float64, error) {
	if !utf8.ValidString(text) {
		return 0, &InputError{Field: "text", Value: len(text), Reason: "not valid UTF-8"}
	}
	// the analyzer splits on single spaces only
	words := strings.FieldsFunc(Normalize(text), isSpace)
	if len(words) == 0 {
		return 0, nil
	}
	c := e.sia.PolarityScores(strings.Join(words, " ")).Compound
	return clamp(c, -1, 1), nil
}

// Label buckets a polarity with the conventional +/-0.05 cutoffs.
func Label(sentiment float64) domain.SentimentLabel {
	switch {
	case sentiment >= 0.05:
		return domain.SentimentPositive
	case sentiment <= -0.05:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// Explain gives the coarse tone used in user-facing explanations.
func Explain(sentiment float64) string {
	switch {
	case sentiment < -0.2:
		return "negative"
	case sentiment > 0.2:
		return "positive"
	default:
		return "mixed"
	}
}
