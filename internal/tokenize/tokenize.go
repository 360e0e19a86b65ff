// Package tokenize splits raw text into engine tokens.
package tokenize

import (
	"regexp"
	"strings"
)

// Words with internal hyphens or apostrophes, numbers with separators, ellipses,
// then any other single non-space rune.
var reToken = regexp.MustCompile(`\pL+(?:[-’']\pL+)*['’]?|\pN+(?:[.,:]\pN+)*|\.\.\.|[^\s\pL\pN]`)

var englishClitics = []string{"n't", "'s", "'re", "'ve", "'ll", "'d", "'m", "'"}

var elisions = map[string][]string{
	"fr": {"qu'", "l'", "d'", "j'", "m'", "n'", "s'", "t'", "c'"},
	"it": {"dell'", "all'", "nell'", "dall'", "sull'", "un'", "l'", "d'"},
}

// Regexp is a rule-based tokenizer. It implements ports.Tokenizer.
type Regexp struct{}

// New returns a Regexp tokenizer.
func New() Regexp {
	return Regexp{}
}

// Tokenize splits text. lang selects clitic handling: "en" splits suffixes such
// as n't and 's, "fr" and "it" split elided articles. Other values only split
// on the generic rules.
func (Regexp) Tokenize(text, lang string) []string {
	lang = strings.ToLower(lang)
	var out []string
	for _, tok := range reToken.FindAllString(text, -1) {
		tok = strings.ReplaceAll(tok, "’", "'")
		switch {
		case lang == "en":
			out = append(out, splitSuffix(tok, englishClitics)...)
		case elisions[lang] != nil:
			out = append(out, splitPrefix(tok, elisions[lang])...)
		default:
			out = append(out, tok)
		}
	}
	return out
}

func splitSuffix(tok string, suffixes []string) []string {
	lower := strings.ToLower(tok)
	for _, s := range suffixes {
		if len(lower) > len(s) && strings.HasSuffix(lower, s) {
			cut := len(tok) - len(s)
			return []string{tok[:cut], tok[cut:]}
		}
	}
	return []string{tok}
}

func splitPrefix(tok string, prefixes []string) []string {
	lower := strings.ToLower(tok)
	for _, p := range prefixes {
		if len(lower) > len(p) && strings.HasPrefix(lower, p) {
			return []string{tok[:len(p)], tok[len(p):]}
		}
	}
	return []string{tok}
}
