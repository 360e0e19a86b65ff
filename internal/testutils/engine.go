package testutils

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/aretw0/treetagger/pkg/protocol"
)

// Analysis is one candidate the scripted engine knows for a token.
type Analysis struct {
	Tag   string
	Lemma string
	Prob  float64
}

// Engine is a scripted stand-in for the tagging engine. It speaks the same
// line protocol and, like the real one, holds its output back until it sees
// the batch sentinel.
type Engine struct {
	Lexicon map[string][]Analysis

	// Malformed maps a token to a raw line emitted instead of its record.
	Malformed map[string]string
	// CrashOn makes the engine exit with status 2 when it reads this token.
	CrashOn string
	// HangOn makes the engine stop responding when it reads this token.
	HangOn string
	// FailStart makes the engine print this message and exit with status 1.
	FailStart string
	// Banner lines are written to stderr at startup.
	Banner []string
	// Linger keeps the engine alive after its input was closed.
	Linger bool
}

// NewEngine returns an Engine loaded with ReferenceLexicon.
func NewEngine() *Engine {
	return &Engine{Lexicon: ReferenceLexicon()}
}

// ReferenceLexicon covers the sentences used across the test suites.
func ReferenceLexicon() map[string][]Analysis {
	return map[string][]Analysis{
		"This":  {{"DT", "this", 1.0}},
		"is":    {{"VBZ", "be", 1.0}},
		"a":     {{"DT", "a", 1.0}},
		"test":  {{"NN", "test", 0.999661}},
		".":     {{"SENT", ".", 1.0}},
		"He":    {{"PP", "he", 1.0}},
		"he":    {{"PP", "he", 1.0}},
		"could": {{"MD", "could", 1.0}},
		"would": {{"MD", "would", 1.0}},
		"if":    {{"IN", "if", 1.0}},
		"get":   {{"VV", "get", 1.0}},
		"the":   {{"DT", "the", 0.999993}},
		"out":   {{"RP", "out", 0.726204}, {"IN", "out", 0.226546}, {"RB", "out", 0.047250}},
		"lead": {
			{"NN", "lead", 0.647454},
			{"VV", "lead", 0.196787},
			{"JJ", "lead", 0.142647},
			{"RB", "lead", 0.013112},
		},
	}
}

type engineFlags struct {
	prob      bool
	threshold float64
}

func parseFlags(args []string) engineFlags {
	var f engineFlags
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-prob":
			f.prob = true
		case "-threshold":
			if i+1 < len(args) {
				f.threshold, _ = strconv.ParseFloat(args[i+1], 64)
				i++
			}
		}
	}
	return f
}

// Run serves the protocol until stdin is exhausted and returns the exit status.
// A hanging engine waits for ctx.
func (e *Engine) Run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) int {
	flags := parseFlags(args)

	for _, line := range e.Banner {
		fmt.Fprintln(stderr, line)
	}
	if e.FailStart != "" {
		fmt.Fprintln(stderr, e.FailStart)
		return 1
	}

	out := bufio.NewWriter(stdout)
	sc := bufio.NewScanner(stdin)
	for sc.Scan() {
		token := sc.Text()

		switch token {
		case protocol.Sentinel:
			fmt.Fprintln(out, protocol.Sentinel)
			if err := out.Flush(); err != nil {
				return 3
			}
			continue
		case e.CrashOn:
			fmt.Fprintln(stderr, "fatal: cannot handle", token)
			return 2
		case e.HangOn:
			out.Flush()
			<-ctx.Done()
			return 137
		}

		if raw, ok := e.Malformed[token]; ok {
			fmt.Fprintln(out, raw)
			continue
		}

		analyses := e.Lexicon[token]
		if len(analyses) == 0 {
			analyses = []Analysis{{"NP", "<unknown>", 1.0}}
		}
		best := analyses[0]
		fmt.Fprintf(out, "%s\t%s\t%s\n", token, best.Tag, best.Lemma)
		if flags.prob {
			for _, a := range analyses {
				if a.Prob < flags.threshold {
					continue
				}
				fmt.Fprintf(out, "\t%s\t%s\t%s\n", a.Tag, a.Lemma, strconv.FormatFloat(a.Prob, 'f', -1, 64))
			}
		}
	}
	out.Flush()
	if e.Linger {
		<-ctx.Done()
		return 137
	}
	return 0
}
