package domain

// PrimaryRecord is the mandatory result for one input token.
type PrimaryRecord struct {
	Token string `json:"token"`
	Tag   string `json:"tag"`
	Lemma string `json:"lemma"`
}

// ProbabilityRecord is one candidate analysis emitted in probability mode.
// Probability is in (0, 1].
type ProbabilityRecord struct {
	Tag         string  `json:"tag"`
	Lemma       string  `json:"lemma"`
	Probability float64 `json:"probability"`
}

// TaggedToken is a fully assembled result for one token.
// Probabilities is empty unless probability mode was enabled.
type TaggedToken struct {
	PrimaryRecord
	Probabilities []ProbabilityRecord `json:"probabilities,omitempty"`
}
