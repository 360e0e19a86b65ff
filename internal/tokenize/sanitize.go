package tokenize

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/treetagger/pkg/domain"
)

var (
	// DefaultMaxTextSize is 1MB.
	DefaultMaxTextSize = 1 << 20
	// EnvMaxTextSize is the environment variable to override the default
	EnvMaxTextSize = "TREETAGGER_MAX_TEXT_SIZE"
)

var (
	ErrTextTooLarge = errors.New("text exceeds maximum allowed size")
	ErrInvalidUTF8  = errors.New("text contains invalid UTF-8 sequences")
)

// Sanitize enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return. Errors wrap
// domain.ErrInvalidToken.
func Sanitize(text string) (string, error) {
	limit := maxTextSize()
	if len(text) > limit {
		return "", fmt.Errorf("%w: %w: size=%d limit=%d", domain.ErrInvalidToken, ErrTextTooLarge, len(text), limit)
	}
	if !utf8.ValidString(text) {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidToken, ErrInvalidUTF8)
	}

	// Fast path: nothing to strip.
	if strings.IndexFunc(text, unsafeControl) < 0 {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

func maxTextSize() int {
	if val := os.Getenv(EnvMaxTextSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxTextSize
}
