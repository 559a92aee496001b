package shuffle

import "github.com/prxssh/foldcount/api"

// Merge adds every count of partial into aggregate.
//
// Addition is commutative, so the order in which partial maps arrive from
// the workers does not change the final aggregate.
func Merge(aggregate, partial api.FrequencyMap) {
	for word, count := range partial {
		aggregate[word] += count
	}
}

// MergeAll folds partials into a fresh aggregate.
func MergeAll(partials ...api.FrequencyMap) api.FrequencyMap {
	aggregate := make(api.FrequencyMap)
	for _, partial := range partials {
		Merge(aggregate, partial)
	}
	return aggregate
}

// Total returns the sum of all counts in m.
func Total(m api.FrequencyMap) int {
	total := 0
	for _, count := range m {
		total += count
	}
	return total
}
