package similarity

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

const collectionName = "proposals"

// DefaultThreshold is the cosine similarity above which two proposals are
// considered near-duplicates.
const DefaultThreshold = 0.92

// Match is one indexed proposal that scored above the search threshold.
type Match struct {
	ProposalID string  `json:"proposal_id"`
	FilePath   string  `json:"file_path"`
	Similarity float32 `json:"similarity"`
}

// Index holds embeddings of active proposals' code changes and answers
// near-duplicate queries. Exact-hash duplicate detection catches byte-equal
// resubmissions; the index catches lightly reworded ones.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	Threshold  float32
}

// NewIndex creates an in-memory index.
func NewIndex() (*Index, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, localEmbedFunc())
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Index{db: db, collection: col, Threshold: DefaultThreshold}, nil
}

// Add indexes one proposal's code-after content.
func (ix *Index) Add(ctx context.Context, proposalID, filePath, codeAfter string) error {
	doc := chromem.Document{
		ID:      proposalID,
		Content: codeAfter,
		Metadata: map[string]string{
			"file_path": filePath,
		},
	}
	if err := ix.collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("index proposal %s: %w", proposalID, err)
	}
	return nil
}

// Remove drops a proposal from the index, typically after its status leaves
// the active set.
func (ix *Index) Remove(ctx context.Context, proposalID string) error {
	return ix.collection.Delete(ctx, nil, nil, proposalID)
}

// FindSimilar returns indexed proposals whose code is close to the given
// content, most similar first. An empty result means the change looks novel.
func (ix *Index) FindSimilar(ctx context.Context, codeAfter string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 5
	}

	// chromem-go requires nResults <= collection size.
	count := ix.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := ix.collection.Query(ctx, codeAfter, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	threshold := ix.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var matches []Match
	for _, r := range results {
		if r.Similarity < threshold {
			continue
		}
		matches = append(matches, Match{
			ProposalID: r.ID,
			FilePath:   r.Metadata["file_path"],
			Similarity: r.Similarity,
		})
	}
	return matches, nil
}

// Count reports how many proposals are indexed.
func (ix *Index) Count() int {
	return ix.collection.Count()
}
