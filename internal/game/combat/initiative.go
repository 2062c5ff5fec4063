package combat

import "sort"

// ComputeTurnOrder returns participant ids sorted by speed, fastest first.
// Ties keep insertion order. The order is computed once when a session is
// created and is not recalculated if speed changes mid-combat.
//
// Postcondition: Returns a permutation of the participant ids.
func ComputeTurnOrder(participants []Participant) []string {
	idx := make([]int, len(participants))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return participants[idx[a]].Stats.Speed > participants[idx[b]].Stats.Speed
	})
	order := make([]string, len(idx))
	for i, j := range idx {
		order[i] = participants[j].ID
	}
	return order
}
