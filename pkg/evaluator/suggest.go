package evaluator

import "sort"

// maxSuggestionDistance bounds the edit distance for near misses, and
// maxSuggestions caps how many are attached to a resolution failure.
const (
	maxSuggestionDistance = 2
	maxSuggestions        = 3
)

// suggest ranks candidate names by edit distance from the missing name
// and returns the closest few. Candidates further than the bound are
// discarded; ties break alphabetically.
func suggest(name string, candidates []string) []string {
	type scored struct {
		name     string
		distance int
	}
	var near []scored
	seen := map[string]bool{}
	for _, candidate := range candidates {
		if candidate == "" || seen[candidate] {
			continue
		}
		seen[candidate] = true
		d := editDistance(name, candidate, maxSuggestionDistance)
		if d <= maxSuggestionDistance {
			near = append(near, scored{candidate, d})
		}
	}
	sort.Slice(near, func(i, j int) bool {
		if near[i].distance != near[j].distance {
			return near[i].distance < near[j].distance
		}
		return near[i].name < near[j].name
	})
	if len(near) > maxSuggestions {
		near = near[:maxSuggestions]
	}
	result := make([]string, len(near))
	for i, s := range near {
		result[i] = s.name
	}
	return result
}

// editDistance computes the Levenshtein distance between two strings,
// giving up early with bound+1 when the result must exceed bound.
func editDistance(a, b string, bound int) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(rb)-len(ra) > bound {
		return bound + 1
	}

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(rb); j++ {
		curr[0] = j
		rowMin := curr[0]
		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[i] = min(prev[i]+1, min(curr[i-1]+1, prev[i-1]+cost))
			if curr[i] < rowMin {
				rowMin = curr[i]
			}
		}
		if rowMin > bound {
			return bound + 1
		}
		prev, curr = curr, prev
	}
	return prev[len(ra)]
}
