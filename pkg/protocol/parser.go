package protocol

import (
	"fmt"

	"github.com/aretw0/treetagger/pkg/domain"
)

// State of the Parser.
type State int

const (
	AwaitingPrimary State = iota
	AwaitingContinuationOrNext
)

func (s State) String() string {
	if s == AwaitingContinuationOrNext {
		return "awaiting-continuation-or-next"
	}
	return "awaiting-primary"
}

// Parser matches engine output lines to pending tokens and dispatches
// assembled records. It serves exactly one batch.
type Parser struct {
	pending   *PendingQueue
	handler   domain.Handler
	prob      domain.ProbabilityHandler
	threshold float64

	state   State
	current string
	records int
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithProbabilities enables probability mode. Continuation records with a
// probability strictly below threshold are suppressed; zero disables filtering.
func WithProbabilities(h domain.ProbabilityHandler, threshold float64) ParserOption {
	return func(p *Parser) {
		p.prob = h
		p.handler = h
		p.threshold = threshold
	}
}

// NewParser creates a Parser that pops tokens from pending and dispatches to h.
func NewParser(pending *PendingQueue, h domain.Handler, opts ...ParserOption) *Parser {
	p := &Parser{
		pending: pending,
		handler: h,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current parser state.
func (p *Parser) State() State {
	return p.state
}

// Records returns how many records were dispatched so far.
func (p *Parser) Records() int {
	return p.records
}

// Feed consumes one output line. done is true once the sentinel echo was
// seen and every pending token was answered.
func (p *Parser) Feed(raw string) (done bool, err error) {
	line, err := ParseLine(raw)
	if err != nil {
		return false, err
	}

	switch line.Kind {
	case KindSentinel:
		if n := p.pending.Len(); n > 0 {
			next, _ := p.pending.Pop()
			return false, &domain.ProtocolError{
				Line:     Sentinel,
				Expected: next,
				Actual:   Sentinel,
				Reason:   fmt.Sprintf("sentinel echoed with %d token(s) unanswered", n),
			}
		}
		p.state = AwaitingPrimary
		p.current = ""
		return true, nil

	case KindContinuation:
		if p.prob == nil || p.state != AwaitingContinuationOrNext {
			return false, &domain.ProtocolError{
				Line:   raw,
				Reason: fmt.Sprintf("unexpected continuation record in state %s", p.state),
			}
		}
		if line.Probability < p.threshold {
			return false, nil
		}
		if err := p.prob.Probability(line.Tag, line.Lemma, line.Probability); err != nil {
			return false, fmt.Errorf("%w: probability for %q: %w", domain.ErrHandler, p.current, err)
		}
		p.records++
		return false, nil
	}

	expected, ok := p.pending.Pop()
	if !ok {
		return false, &domain.ProtocolError{
			Line:   raw,
			Actual: line.Token,
			Reason: "primary record without a pending token",
		}
	}
	if expected != line.Token {
		return false, &domain.ProtocolError{
			Line:     raw,
			Expected: expected,
			Actual:   line.Token,
			Reason:   "token mismatch",
		}
	}

	if err := p.handler.Token(line.Token, line.Tag, line.Lemma); err != nil {
		return false, fmt.Errorf("%w: token %q: %w", domain.ErrHandler, line.Token, err)
	}
	p.records++
	p.current = line.Token
	if p.prob != nil {
		p.state = AwaitingContinuationOrNext
	}
	return false, nil
}
