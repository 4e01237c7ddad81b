package similarity

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	chromem "github.com/philippgille/chromem-go"
)

// embeddingDims is the dimensionality of the local code embedding.
const embeddingDims = 256

// localEmbedFunc returns a chromem embedding function backed by the local
// token-hash embedder. It is fully deterministic and needs no network or
// API key, so near-duplicate search works out of the box.
func localEmbedFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedText(text), nil
	}
}

// embedText maps code text onto a fixed-size vector by hashing tokens into
// buckets and L2-normalizing the counts. Structurally similar code shares
// most of its tokens and therefore lands close in cosine space. This is a
// bag-of-tokens model: it ignores ordering, which is what we want for
// detecting rephrased or lightly edited resubmissions.
func embedText(text string) []float32 {
	vec := make([]float32, embeddingDims)

	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%embeddingDims]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// Give empty inputs a fixed direction so cosine math stays defined.
		vec[0] = 1
		return vec
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// tokenize splits code into lowercase identifier and number runs. Punctuation
// and whitespace are separators; everything else is kept.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}
