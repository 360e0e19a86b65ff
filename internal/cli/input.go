package cli

import (
	"bufio"
	"io"
	"strings"
)

// ReadBatches reads one token per line and calls fn with batches of at most
// size tokens. Blank lines are skipped.
func ReadBatches(r io.Reader, size int, fn func(tokens []string) error) error {
	if size <= 0 {
		size = DefaultBatchSize
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	batch := make([]string, 0, size)
	for scanner.Scan() {
		tok := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(tok) == "" {
			continue
		}
		batch = append(batch, tok)
		if len(batch) == size {
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]string, 0, size)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}
