package entity

import (
	"slices"
	"strings"
)

// RankScored orders hits by similarity descending, breaking ties by the most
// recent window first and then by id, and keeps at most k. Every index
// backend returns results through it so the ordering contract holds
// regardless of how candidates were gathered.
func RankScored(hits []*ScoredEmbedding, k int) []*ScoredEmbedding {
	slices.SortStableFunc(hits, func(a, b *ScoredEmbedding) int {
		if a.Similarity != b.Similarity {
			if a.Similarity > b.Similarity {
				return -1
			}
			return 1
		}
		if c := b.Embedding.WindowStart.Compare(a.Embedding.WindowStart); c != 0 {
			return c
		}
		return strings.Compare(a.Embedding.Id.String(), b.Embedding.Id.String())
	})
	if k >= 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
