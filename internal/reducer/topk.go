package reducer

import (
	"cmp"
	"slices"
	"strings"

	"github.com/prxssh/foldcount/api"
)

// TopK returns the k most frequent words of aggregate, by count descending.
// Equal counts are ordered by word ascending so results are reproducible.
//
// k larger than the vocabulary returns every word; k <= 0 returns an empty
// slice.
func TopK(aggregate api.FrequencyMap, k int) []api.Entry {
	if k <= 0 {
		return []api.Entry{}
	}

	entries := make([]api.Entry, 0, len(aggregate))
	for word, count := range aggregate {
		entries = append(entries, api.Entry{Word: word, Count: count})
	}

	slices.SortFunc(entries, compare)

	return entries[:min(k, len(entries))]
}

func compare(a, b api.Entry) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	return strings.Compare(a.Word, b.Word)
}
