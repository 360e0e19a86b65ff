package ports

// Tokenizer splits raw text into tokens for a language tag ("en", "de", ...).
type Tokenizer interface {
	Tokenize(text, lang string) []string
}
