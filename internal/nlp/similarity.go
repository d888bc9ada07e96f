package nlp

import (
	"math"
	"slices"
	"strings"
)

// SortedKey sorts tokens and joins them with a single space.
func SortedKey(tokens []string) string {
	sorted := slices.Clone(tokens)
	slices.Sort(sorted)
	return strings.Join(sorted, " ")
}

// TokenSortRatio scores two token lists from 0 to 100 regardless of word order.
func TokenSortRatio(a, b []string) int {
	return Ratio(SortedKey(a), SortedKey(b))
}

// Ratio is the normalized indel similarity of two strings: 2*LCS/(len(a)+len(b))
// scaled to 0..100 and rounded. Either side empty scores 0.
func Ratio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	total := len(ra) + len(rb)
	return int(math.Round(100 * float64(2*lcs(ra, rb)) / float64(total)))
}

func lcs(a, b []rune) int {
	if len(b) > len(a) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
