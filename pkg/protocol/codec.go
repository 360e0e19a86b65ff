package protocol

import (
	"bufio"
	"fmt"
	"io"

	"github.com/aretw0/treetagger/pkg/domain"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Encode converts a batch into engine-encoded lines, sentinel included.
// Tokens that cannot be represented in enc are rejected with domain.ErrInvalidToken.
func Encode(tokens []string, enc encoding.Encoding) ([][]byte, error) {
	if err := ValidateTokens(tokens); err != nil {
		return nil, err
	}
	encoder := enc.NewEncoder()
	lines := make([][]byte, 0, len(tokens)+1)
	for i, tok := range append(tokens[:len(tokens):len(tokens)], Sentinel) {
		b, err := encoder.Bytes([]byte(tok + "\n"))
		if err != nil {
			return nil, fmt.Errorf("%w: token %d %q not representable: %v", domain.ErrInvalidToken, i, tok, err)
		}
		lines = append(lines, b)
	}
	return lines, nil
}

// LineWriter writes encoded lines to the engine input.
type LineWriter struct {
	bw *bufio.Writer
}

// NewLineWriter wraps the engine input stream.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{bw: bufio.NewWriter(w)}
}

// WriteLine buffers one encoded line.
func (w *LineWriter) WriteLine(line []byte) error {
	if _, err := w.bw.Write(line); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrWriteFailure, err)
	}
	return nil
}

// Flush pushes buffered lines to the engine.
func (w *LineWriter) Flush() error {
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrWriteFailure, err)
	}
	return nil
}

// LineReader decodes engine output into lines.
type LineReader struct {
	br *bufio.Reader
}

// NewLineReader wraps the engine output stream, decoding it with enc.
func NewLineReader(r io.Reader, enc encoding.Encoding) *LineReader {
	return &LineReader{br: bufio.NewReader(transform.NewReader(r, enc.NewDecoder()))}
}

// ReadLine returns the next line without its line break.
// A final line without a line break is returned together with io.EOF.
func (r *LineReader) ReadLine() (string, error) {
	line, err := r.br.ReadString('\n')
	if err != nil {
		return line, err
	}
	return trimEOL(line), nil
}

func trimEOL(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\n' {
		s = s[:n-1]
		if n := len(s); n > 0 && s[n-1] == '\r' {
			s = s[:n-1]
		}
	}
	return s
}
