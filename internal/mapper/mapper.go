package mapper

import (
	"strings"

	"github.com/prxssh/foldcount/api"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Count returns the word frequencies of a single chunk.
//
// Tokens are whitespace-separated runs, lower-cased before counting so the
// same word from different chunks lands on the same key after the shuffle.
// It never fails; the error return satisfies api.MapFunc.
func Count(chunk string) (api.FrequencyMap, error) {
	// A Caser keeps state and must not be shared between goroutines.
	lower := cases.Lower(language.Und)

	counts := make(api.FrequencyMap)
	for _, word := range strings.Fields(chunk) {
		counts[lower.String(word)]++
	}

	return counts, nil
}

var _ api.MapFunc = Count
