package indicator

import (
	"sort"

	"github.com/andresuchdata/sentinela-corte/internal/domain"
)

// BuildUniverse returns the sorted set of branch identifiers seen in any of
// the given fact streams.
func BuildUniverse(streams ...[]domain.DailyValue) []string {
	seen := make(map[string]struct{})
	for _, stream := range streams {
		for _, v := range stream {
			seen[v.Branch] = struct{}{}
		}
	}

	branches := make([]string, 0, len(seen))
	for branch := range seen {
		branches = append(branches, branch)
	}
	sort.Strings(branches)
	return branches
}
