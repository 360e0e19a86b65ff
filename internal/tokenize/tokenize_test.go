package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		lang string
		want []string
	}{
		{"Sentence", "This is a test.", "en", []string{"This", "is", "a", "test", "."}},
		{"Negation", "He couldn't get out.", "en", []string{"He", "could", "n't", "get", "out", "."}},
		{"Possessive", "John's car", "en", []string{"John", "'s", "car"}},
		{"Typographic apostrophe", "it’s", "en", []string{"it", "'s"}},
		{"Hyphen", "state-of-the-art design", "en", []string{"state-of-the-art", "design"}},
		{"Numbers", "3.14 and 1,000", "en", []string{"3.14", "and", "1,000"}},
		{"Ellipsis", "Wait...", "en", []string{"Wait", "..."}},
		{"Punctuation", "(yes!)", "en", []string{"(", "yes", "!", ")"}},
		{"French elision", "L'homme qu'il voit", "fr", []string{"L'", "homme", "qu'", "il", "voit"}},
		{"Italian elision", "dell'anno", "it", []string{"dell'", "anno"}},
		{"German umlaut", "Die Straße ist schön.", "de", []string{"Die", "Straße", "ist", "schön", "."}},
		{"Unknown language keeps clitics", "don't", "xx", []string{"don't"}},
		{"Empty", "   ", "en", nil},
	}

	tok := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.Tokenize(tt.text, tt.lang))
		})
	}
}
