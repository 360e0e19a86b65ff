package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/aretw0/treetagger/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Format selects how results are printed.
type Format int

const (
	// FormatPlain mirrors the engine's own tab-separated output.
	FormatPlain Format = iota
	// FormatColor is FormatPlain styled for terminals.
	FormatColor
	// FormatJSON prints one JSON object per token.
	FormatJSON
)

// DetectFormat picks JSON when asked, color when w is a terminal, plain otherwise.
func DetectFormat(w io.Writer, asJSON bool) Format {
	if asJSON {
		return FormatJSON
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return FormatColor
	}
	return FormatPlain
}

// Printer writes tagging results.
type Printer struct {
	w      io.Writer
	format Format
	out    *termenv.Output
	enc    *json.Encoder
}

// PrinterOption configures a Printer.
type PrinterOption func(*Printer)

// WithColorProfile forces the terminal color profile.
func WithColorProfile(p termenv.Profile) PrinterOption {
	return func(pr *Printer) {
		pr.out = termenv.NewOutput(pr.w, termenv.WithProfile(p))
	}
}

// NewPrinter creates a Printer for w.
func NewPrinter(w io.Writer, format Format, opts ...PrinterOption) *Printer {
	p := &Printer{
		w:      w,
		format: format,
		out:    termenv.NewOutput(w),
		enc:    json.NewEncoder(w),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Print writes results in the configured format.
func (p *Printer) Print(results []domain.TaggedToken) error {
	for _, r := range results {
		var err error
		switch p.format {
		case FormatJSON:
			err = p.enc.Encode(r)
		case FormatColor:
			err = p.printColor(r)
		default:
			err = p.printPlain(r)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printPlain(r domain.TaggedToken) error {
	if _, err := fmt.Fprintf(p.w, "%s\t%s\t%s\n", r.Token, r.Tag, r.Lemma); err != nil {
		return err
	}
	for _, c := range r.Probabilities {
		if _, err := fmt.Fprintf(p.w, "\t%s\t%s\t%s\n", c.Tag, c.Lemma, formatProb(c.Probability)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printColor(r domain.TaggedToken) error {
	tag := p.out.String(r.Tag).Foreground(p.out.Color("6")).Bold()
	lemma := p.out.String(r.Lemma).Faint()
	if _, err := fmt.Fprintf(p.w, "%s\t%s\t%s\n", r.Token, tag, lemma); err != nil {
		return err
	}
	for _, c := range r.Probabilities {
		prob := p.out.String(formatProb(c.Probability)).Foreground(p.out.Color("3"))
		if _, err := fmt.Fprintf(p.w, "\t%s\t%s\t%s\n", c.Tag, c.Lemma, prob); err != nil {
			return err
		}
	}
	return nil
}

func formatProb(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
