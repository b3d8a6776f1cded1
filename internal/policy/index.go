// Package policy implements the compliance policy store and its
// nearest-neighbor retrieval index.
package policy

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/opensource-finance/harrier/internal/domain"
)

// Index is a flat vector index over policy texts. Every policy is embedded
// once on insert; retrieval is a full scan by squared L2 distance. Flat scan
// is exact and fast enough at policy-corpus scale (tens to low thousands of
// entries); an approximate index would only pay off far beyond that.
type Index struct {
	embedder domain.Embedder

	mu      sync.RWMutex
	texts   []string
	vectors [][]float32
}

// Match is a retrieved policy with its distance to the query.
type Match struct {
	Text     string  `json:"text"`
	Distance float64 `json:"distance"`
}

// NewIndex creates an empty index backed by the given embedder.
func NewIndex(embedder domain.Embedder) *Index {
	return &Index{embedder: embedder}
}

// Add embeds the texts and appends them to the index. Embedding happens
// outside the lock; the index mutation is a single critical section so
// texts and vectors stay positionally aligned under concurrent readers.
func (ix *Index) Add(ctx context.Context, texts []string) error {
	if len(texts) == 0 {
		return nil
	}
	vecs := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := ix.embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("embed policy text: %w", err)
		}
		if len(vec) != ix.embedder.Dim() {
			return fmt.Errorf("embedder returned %d dims, want %d", len(vec), ix.embedder.Dim())
		}
		vecs = append(vecs, vec)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.texts = append(ix.texts, texts...)
	ix.vectors = append(ix.vectors, vecs...)
	return nil
}

// Retrieve returns the k policies nearest to the query text, ordered by
// ascending distance. Ties break toward the earlier-inserted policy. When k
// exceeds the index size, every policy is returned.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	qvec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.texts) == 0 {
		return nil, nil
	}
	matches := make([]Match, len(ix.texts))
	for i, vec := range ix.vectors {
		matches[i] = Match{Text: ix.texts[i], Distance: sqL2(qvec, vec)}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Distance < matches[b].Distance
	})
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// Size returns the number of indexed policies.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.texts)
}

// Texts returns a copy of all indexed policy texts in insertion order.
func (ix *Index) Texts() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]string(nil), ix.texts...)
}

func sqL2(a, b []float32) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	// Dimension mismatch should not happen past Add's check, but keep the
	// result finite if it does.
	if math.IsNaN(sum) {
		return math.MaxFloat64
	}
	return sum
}
