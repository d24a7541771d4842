package retrieval

import (
	"sort"

	"travel-rag/internal/domain"
)

// DefaultRRFK is the standard Reciprocal Rank Fusion damping constant.
const DefaultRRFK = 60.0

// FusedCandidate is one document in the RRF union of several ranked lists.
type FusedCandidate struct {
	Document domain.Document
	RRFScore float64
}

// ReciprocalRankFusion merges ranked lists into one candidate set ordered by
// Σ 1/(k + rank). Ranks are taken from list position (1-based). A document
// found in only one list keeps that list's contribution. Ties keep the order
// in which documents were first seen.
func ReciprocalRankFusion(k float64, lists ...[]domain.SearchResult) []FusedCandidate {
	if k <= 0 {
		k = DefaultRRFK
	}

	index := make(map[string]int)
	fused := make([]FusedCandidate, 0)

	for _, list := range lists {
		seenInList := make(map[string]bool, len(list))
		for pos, res := range list {
			id := res.Document.ID
			if seenInList[id] {
				continue
			}
			seenInList[id] = true

			i, ok := index[id]
			if !ok {
				i = len(fused)
				index[id] = i
				fused = append(fused, FusedCandidate{Document: res.Document})
			}
			fused[i].RRFScore += 1.0 / (k + float64(pos+1))
		}
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].RRFScore > fused[j].RRFScore
	})

	return fused
}
