package scoring

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Lexicon maps lowercase words to a valence in [-4, 4]. Entries override the
// stock VADER lexicon word by word.
type Lexicon map[string]float64

// LoadLexicon reads an override file; empty path means no overrides.
func LoadLexicon(path string) (Lexicon, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseLexicon(f)
}

// ParseLexicon reads "word<TAB>valence" lines, the layout of vader_lexicon.txt.
// Blank lines and lines starting with '#' are skipped; extra tab-separated
// columns are ignored.
func ParseLexicon(r io.Reader) (Lexicon, error) {
	lx := Lexicon{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		parts := strings.Split(s, "\t")
		if len(parts) < 2 {
			return nil, fmt.Errorf("lexicon line %d: want word<TAB>valence", line)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("lexicon line %d: %w", line, err)
		}
		if v < -4 || v > 4 {
			return nil, fmt.Errorf("lexicon line %d: valence %v outside [-4, 4]", line, v)
		}
		lx[strings.ToLower(strings.TrimSpace(parts[0]))] = v
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lx, nil
}
