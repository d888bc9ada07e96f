package nlp

import (
	"strings"
	"unicode"
)

// Normalizer turns free text into comparable lemma tokens.
type Normalizer struct {
	model *Model
}

func NewNormalizer(model *Model) *Normalizer {
	return &Normalizer{model: model}
}

// Tokens folds case and accents, drops punctuation and stopwords, and
// lemmatizes what remains. Order of the input is kept.
func (n *Normalizer) Tokens(text string) []string {
	words := strings.FieldsFunc(Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if n.model.IsStopword(w) {
			continue
		}
		tokens = append(tokens, n.model.Lemma(w))
	}
	return tokens
}
