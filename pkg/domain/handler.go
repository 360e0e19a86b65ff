package domain

// Handler receives exactly one primary record per submitted token, in submission order.
// A returned error aborts the batch and terminates the session.
type Handler interface {
	Token(token, tag, lemma string) error
}

// ProbabilityHandler additionally receives the candidate analyses of each token.
// Probability is called zero or more times right after the Token call the
// candidates belong to, in the order the engine produced them (descending).
type ProbabilityHandler interface {
	Handler
	Probability(tag, lemma string, probability float64) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(token, tag, lemma string) error

func (f HandlerFunc) Token(token, tag, lemma string) error {
	return f(token, tag, lemma)
}

// Collector is a ProbabilityHandler that assembles TaggedTokens in memory.
// It is also usable as a plain Handler.
type Collector struct {
	Results []TaggedToken
}

func (c *Collector) Token(token, tag, lemma string) error {
	c.Results = append(c.Results, TaggedToken{
		PrimaryRecord: PrimaryRecord{Token: token, Tag: tag, Lemma: lemma},
	})
	return nil
}

func (c *Collector) Probability(tag, lemma string, probability float64) error {
	if len(c.Results) == 0 {
		return ErrProtocol
	}
	last := &c.Results[len(c.Results)-1]
	last.Probabilities = append(last.Probabilities, ProbabilityRecord{
		Tag:         tag,
		Lemma:       lemma,
		Probability: probability,
	})
	return nil
}

// Reset drops all collected results.
func (c *Collector) Reset() {
	c.Results = nil
}
