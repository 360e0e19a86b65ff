package protocol

import (
	"errors"
	"testing"

	"github.com/aretw0/treetagger/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	kind  string
	token string
	tag   string
	lemma string
	prob  float64
}

type recorder struct {
	events []event
	failOn string
}

func (r *recorder) Token(token, tag, lemma string) error {
	if token == r.failOn {
		return errors.New("boom")
	}
	r.events = append(r.events, event{kind: "token", token: token, tag: tag, lemma: lemma})
	return nil
}

func (r *recorder) Probability(tag, lemma string, p float64) error {
	r.events = append(r.events, event{kind: "prob", tag: tag, lemma: lemma, prob: p})
	return nil
}

func queueOf(tokens ...string) *PendingQueue {
	q := NewPendingQueue(len(tokens))
	for _, tok := range tokens {
		q.Push(tok)
	}
	return q
}

func feedAll(t *testing.T, p *Parser, lines ...string) bool {
	t.Helper()
	var done bool
	for _, l := range lines {
		var err error
		done, err = p.Feed(l)
		require.NoError(t, err, "line %q", l)
	}
	return done
}

func TestParser_PlainMode(t *testing.T) {
	rec := &recorder{}
	p := NewParser(queueOf("This", "is", "a", "test", "."), rec)

	done := feedAll(t, p,
		"This\tDT\tthis",
		"is\tVBZ\tbe",
		"a\tDT\ta",
		"test\tNN\ttest",
		".\tSENT\t.",
		Sentinel,
	)

	assert.True(t, done)
	assert.Equal(t, AwaitingPrimary, p.State())
	assert.Equal(t, []event{
		{kind: "token", token: "This", tag: "DT", lemma: "this"},
		{kind: "token", token: "is", tag: "VBZ", lemma: "be"},
		{kind: "token", token: "a", tag: "DT", lemma: "a"},
		{kind: "token", token: "test", tag: "NN", lemma: "test"},
		{kind: "token", token: ".", tag: "SENT", lemma: "."},
	}, rec.events)
	assert.Equal(t, 5, p.Records())
}

func TestParser_ProbabilityMode(t *testing.T) {
	t.Run("Ambiguous Token", func(t *testing.T) {
		rec := &recorder{}
		p := NewParser(queueOf("lead"), rec, WithProbabilities(rec, 0.1))

		done := feedAll(t, p,
			"lead\tNN\tlead",
			"\tNN\tlead\t0.647454",
			"\tVV\tlead\t0.196787",
			"\tJJ\tlead\t0.142647",
			"\tRB\tlead\t0.013112",
			Sentinel,
		)

		assert.True(t, done)
		assert.Equal(t, []event{
			{kind: "token", token: "lead", tag: "NN", lemma: "lead"},
			{kind: "prob", tag: "NN", lemma: "lead", prob: 0.647454},
			{kind: "prob", tag: "VV", lemma: "lead", prob: 0.196787},
			{kind: "prob", tag: "JJ", lemma: "lead", prob: 0.142647},
		}, rec.events)
	})

	t.Run("Threshold Is Inclusive", func(t *testing.T) {
		rec := &recorder{}
		p := NewParser(queueOf("out"), rec, WithProbabilities(rec, 0.1))

		feedAll(t, p,
			"out\tRP\tout",
			"\tRP\tout\t0.81",
			"\tIN\tout\t0.1",
			"\tRB\tout\t0.09",
			Sentinel,
		)

		require.Len(t, rec.events, 3)
		assert.Equal(t, 0.1, rec.events[2].prob)
	})

	t.Run("No Threshold Emits All", func(t *testing.T) {
		rec := &recorder{}
		p := NewParser(queueOf("out"), rec, WithProbabilities(rec, 0))

		feedAll(t, p, "out\tRP\tout", "\tRP\tout\t0.91", "\tRB\tout\t0.0001", Sentinel)
		assert.Len(t, rec.events, 3)
	})

	t.Run("Primary Line Ends Continuations", func(t *testing.T) {
		rec := &recorder{}
		p := NewParser(queueOf("the", "lead", "."), rec, WithProbabilities(rec, 0))

		done := feedAll(t, p,
			"the\tDT\tthe",
			"\tDT\tthe\t0.999993",
			"lead\tNN\tlead",
			"\tNN\tlead\t0.753085",
			"\tVV\tlead\t0.103856",
			".\tSENT\t.",
			Sentinel,
		)

		assert.True(t, done)
		kinds := make([]string, 0, len(rec.events))
		for _, e := range rec.events {
			kinds = append(kinds, e.kind+":"+e.tag)
		}
		assert.Equal(t, []string{
			"token:DT", "prob:DT",
			"token:NN", "prob:NN", "prob:VV",
			"token:SENT",
		}, kinds)
	})

	t.Run("Token Without Candidates", func(t *testing.T) {
		rec := &recorder{}
		p := NewParser(queueOf("a", "b"), rec, WithProbabilities(rec, 0))
		done := feedAll(t, p, "a\tDT\ta", "b\tNN\tb", Sentinel)
		assert.True(t, done)
		assert.Len(t, rec.events, 2)
	})
}

func TestParser_Violations(t *testing.T) {
	t.Run("Token Mismatch", func(t *testing.T) {
		p := NewParser(queueOf("This", "is"), &recorder{})
		_, err := p.Feed("is\tVBZ\tbe")

		var perr *domain.ProtocolError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "This", perr.Expected)
		assert.Equal(t, "is", perr.Actual)
	})

	t.Run("Primary Without Pending Token", func(t *testing.T) {
		p := NewParser(queueOf(), &recorder{})
		_, err := p.Feed("extra\tNN\textra")
		assert.ErrorIs(t, err, domain.ErrProtocol)
	})

	t.Run("Early Sentinel", func(t *testing.T) {
		p := NewParser(queueOf("a", "b"), &recorder{})
		_, err := p.Feed("a\tDT\ta")
		require.NoError(t, err)
		_, err = p.Feed(Sentinel)
		assert.ErrorIs(t, err, domain.ErrProtocol)
	})

	t.Run("Continuation In Plain Mode", func(t *testing.T) {
		p := NewParser(queueOf("lead"), &recorder{})
		_, err := p.Feed("lead\tNN\tlead")
		require.NoError(t, err)
		_, err = p.Feed("\tNN\tlead\t0.6")
		assert.ErrorIs(t, err, domain.ErrProtocol)
	})

	t.Run("Continuation Before Primary", func(t *testing.T) {
		rec := &recorder{}
		p := NewParser(queueOf("lead"), rec, WithProbabilities(rec, 0))
		_, err := p.Feed("\tNN\tlead\t0.6")
		assert.ErrorIs(t, err, domain.ErrProtocol)
	})

	t.Run("Malformed Line", func(t *testing.T) {
		p := NewParser(queueOf("lead"), &recorder{})
		_, err := p.Feed("garbage")
		assert.ErrorIs(t, err, domain.ErrProtocol)
	})

	t.Run("Handler Error", func(t *testing.T) {
		p := NewParser(queueOf("bad"), &recorder{failOn: "bad"})
		_, err := p.Feed("bad\tJJ\tbad")
		assert.ErrorIs(t, err, domain.ErrHandler)
		assert.NotErrorIs(t, err, domain.ErrProtocol)
	})
}
