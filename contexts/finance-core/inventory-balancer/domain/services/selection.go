package services

import (
	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/domain/entities"
)

// MergeCandidates flattens several search result batches into one list,
// deduplicated by YouTube ID. The first occurrence of an ID wins, so the
// merge is deterministic for a given batch order.
func MergeCandidates(batches ...[]entities.Candidate) []entities.Candidate {
	var merged []entities.Candidate
	seen := make(map[string]struct{})
	for _, batch := range batches {
		for _, candidate := range batch {
			if candidate.YouTubeID == "" {
				continue
			}
			if _, ok := seen[candidate.YouTubeID]; ok {
				continue
			}
			seen[candidate.YouTubeID] = struct{}{}
			merged = append(merged, candidate)
		}
	}
	return merged
}

// PlanGrowth greedily accepts candidates in encounter order until the value
// budget or the batch cap is exhausted, skipping IDs already processed in
// this process lifetime.
//
// A candidate whose cost would push the accepted total past budget is
// skipped, not substituted: iteration continues and a later cheaper
// candidate may still fit. No accepted candidate individually pushes the
// running total over budget.
func PlanGrowth(
	candidates []entities.Candidate,
	budget float64,
	baseRate float64,
	processed map[string]struct{},
	maxBatch int,
) ([]entities.Candidate, float64) {
	var accepted []entities.Candidate
	var total float64
	for _, candidate := range candidates {
		if maxBatch > 0 && len(accepted) >= maxBatch {
			break
		}
		if _, seen := processed[candidate.YouTubeID]; seen {
			continue
		}
		cost := candidate.Cost(baseRate)
		if total+cost > budget {
			continue
		}
		accepted = append(accepted, candidate)
		total += cost
	}
	return accepted, total
}
