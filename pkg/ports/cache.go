package ports

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/aretw0/treetagger/pkg/domain"
)

// ResultCache stores assembled batch results.
type ResultCache interface {
	// Get returns the cached results for key. ok is false on a miss.
	Get(ctx context.Context, key string) (results []domain.TaggedToken, ok bool, err error)

	// Put stores results under key.
	Put(ctx context.Context, key string, results []domain.TaggedToken) error
}

// CacheKey derives a stable key from the model, the output mode and the batch.
func CacheKey(modelName string, probabilities bool, threshold float64, tokens []string) string {
	h := sha256.New()
	h.Write([]byte(modelName))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatBool(probabilities)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(threshold, 'g', -1, 64)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(tokens, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}
