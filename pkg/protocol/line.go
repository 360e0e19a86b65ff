package protocol

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/treetagger/pkg/domain"
)

// Sentinel is written after every batch to force the engine to flush.
const Sentinel = "<treetagger-sentinel-4711/>"

// Kind classifies an output line.
type Kind int

const (
	KindPrimary Kind = iota
	KindContinuation
	KindSentinel
)

func (k Kind) String() string {
	switch k {
	case KindPrimary:
		return "primary"
	case KindContinuation:
		return "continuation"
	case KindSentinel:
		return "sentinel"
	}
	return "unknown"
}

// Line is a parsed output line.
type Line struct {
	Kind        Kind
	Token       string
	Tag         string
	Lemma       string
	Probability float64
}

// ValidateTokens rejects tokens that would desynchronize the protocol.
// It checks the whole batch before anything is written.
func ValidateTokens(tokens []string) error {
	for i, tok := range tokens {
		switch {
		case tok == "":
			return fmt.Errorf("%w: token %d is empty", domain.ErrInvalidToken, i)
		case strings.ContainsAny(tok, "\r\n"):
			return fmt.Errorf("%w: token %d %q contains a line break", domain.ErrInvalidToken, i, tok)
		case strings.Contains(tok, "\t"):
			return fmt.Errorf("%w: token %d %q contains a tab", domain.ErrInvalidToken, i, tok)
		case !utf8.ValidString(tok):
			return fmt.Errorf("%w: token %d %q is not valid UTF-8", domain.ErrInvalidToken, i, tok)
		case tok == Sentinel:
			return fmt.Errorf("%w: token %d is the reserved sentinel", domain.ErrInvalidToken, i)
		case isMarkup(tok):
			// The engine runs with -sgml and echoes markup without a record.
			return fmt.Errorf("%w: token %d %q looks like SGML markup", domain.ErrInvalidToken, i, tok)
		}
	}
	return nil
}

func isMarkup(tok string) bool {
	return len(tok) >= 2 && tok[0] == '<' && tok[len(tok)-1] == '>'
}

// ParseLine classifies and parses one output line. The trailing line break,
// if any, is ignored.
func ParseLine(raw string) (Line, error) {
	line := strings.TrimRight(raw, "\r\n")

	if line == Sentinel {
		return Line{Kind: KindSentinel}, nil
	}

	fields := strings.Split(line, "\t")

	if len(fields) == 4 && fields[0] == "" {
		tag, lemma := fields[1], fields[2]
		if !isField(tag) || !isField(lemma) {
			return Line{}, malformed(line, "continuation record with empty or spaced field")
		}
		p, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return Line{}, malformed(line, "continuation record with unparsable probability")
		}
		if p <= 0 || p > 1 {
			return Line{}, malformed(line, "probability out of range (0, 1]")
		}
		return Line{Kind: KindContinuation, Tag: tag, Lemma: lemma, Probability: p}, nil
	}

	if len(fields) == 3 && fields[0] != "" {
		if !isField(fields[1]) || !isField(fields[2]) {
			return Line{}, malformed(line, "primary record with empty or spaced field")
		}
		return Line{Kind: KindPrimary, Token: fields[0], Tag: fields[1], Lemma: fields[2]}, nil
	}

	return Line{}, malformed(line, "line matches neither record grammar")
}

func isField(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t")
}

func malformed(line, reason string) error {
	return &domain.ProtocolError{Line: line, Reason: reason}
}
