// Package nlp holds the Portuguese text model used to compare user questions
// against curated intent phrasings.
package nlp

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	StopwordsFile = "stopwords_pt.txt"
	LemmasFile    = "lemmas_pt.txt"
)

//go:embed lexicon/*.txt
var lexicon embed.FS

// Model is an immutable lexicon. It is safe for concurrent use.
type Model struct {
	stopwords map[string]struct{}
	lemmas    map[string]string
}

// Load builds the model from the lexicon compiled into the binary.
func Load() (*Model, error) {
	stop, err := lexicon.Open("lexicon/" + StopwordsFile)
	if err != nil {
		return nil, fmt.Errorf("open embedded stopwords: %w", err)
	}
	defer stop.Close()

	lem, err := lexicon.Open("lexicon/" + LemmasFile)
	if err != nil {
		return nil, fmt.Errorf("open embedded lemmas: %w", err)
	}
	defer lem.Close()

	return NewModel(stop, lem)
}

// LoadDir builds the model from lexicon files in dir.
func LoadDir(dir string) (*Model, error) {
	stop, err := os.Open(filepath.Join(dir, StopwordsFile))
	if err != nil {
		return nil, fmt.Errorf("open stopwords: %w", err)
	}
	defer stop.Close()

	lem, err := os.Open(filepath.Join(dir, LemmasFile))
	if err != nil {
		return nil, fmt.Errorf("open lemmas: %w", err)
	}
	defer lem.Close()

	return NewModel(stop, lem)
}

// NewModel parses a stopword list (one word per line) and a lemma table
// ("form lemma" per line). Lines starting with # are comments.
func NewModel(stopwords, lemmas io.Reader) (*Model, error) {
	m := &Model{
		stopwords: make(map[string]struct{}),
		lemmas:    make(map[string]string),
	}

	err := eachLine(stopwords, func(_ int, fields []string) error {
		for _, f := range fields {
			m.stopwords[Fold(f)] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read stopwords: %w", err)
	}
	if len(m.stopwords) == 0 {
		return nil, errors.New("stopword list is empty")
	}

	err = eachLine(lemmas, func(n int, fields []string) error {
		if len(fields) != 2 {
			return fmt.Errorf("line %d: expected 2 fields, got %d", n, len(fields))
		}
		m.lemmas[Fold(fields[0])] = Fold(fields[1])
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read lemmas: %w", err)
	}

	return m, nil
}

func eachLine(r io.Reader, fn func(n int, fields []string) error) error {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(n, strings.Fields(line)); err != nil {
			return err
		}
	}
	return sc.Err()
}

func (m *Model) IsStopword(token string) bool {
	_, ok := m.stopwords[token]
	return ok
}

// Lemma returns the dictionary form of an already folded token.
func (m *Model) Lemma(token string) string {
	if l, ok := m.lemmas[token]; ok {
		return l
	}
	return singular(token)
}

// Fold lowercases s with Unicode case folding and strips diacritics.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, cases.Fold().String(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

var pluralRules = []struct {
	suffix, replace string
	minLen          int
}{
	{"oes", "ao", 4},
	{"aes", "ao", 4},
	{"ais", "al", 5},
	{"ns", "m", 4},
	{"res", "r", 5},
	{"zes", "z", 5},
	{"ses", "s", 5},
}

// singular undoes regular Portuguese noun plurals on a folded token.
func singular(token string) string {
	for _, r := range pluralRules {
		if len(token) >= r.minLen && strings.HasSuffix(token, r.suffix) {
			return strings.TrimSuffix(token, r.suffix) + r.replace
		}
	}
	if len(token) > 3 && strings.HasSuffix(token, "s") {
		prev := token[len(token)-2]
		if strings.IndexByte("aeo", prev) >= 0 {
			return token[:len(token)-1]
		}
	}
	return token
}
