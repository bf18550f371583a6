package grading

import "math"

// Score returns a 0-100 similarity between a and b based on weighted
// edit distance: insertions and deletions cost 1, substitutions cost 2,
// so the score is the percentage of matched characters over the
// combined length. Two empty strings score 100.
func Score(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 100
	}
	dist := weightedDistance(ar, br)
	return int(math.Round(100 * float64(total-dist) / float64(total)))
}

// weightedDistance computes edit distance with substitution cost 2
// using a single-row DP.
func weightedDistance(ar, br []rune) int {
	n, m := len(ar), len(br)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}
	dp := make([]int, m+1)
	for j := 0; j <= m; j++ {
		dp[j] = j
	}
	for i := 1; i <= n; i++ {
		prev := dp[0]
		dp[0] = i
		for j := 1; j <= m; j++ {
			tmp := dp[j]
			cost := 0
			if ar[i-1] != br[j-1] {
				cost = 2
			}
			ins := dp[j] + 1
			del := dp[j-1] + 1
			sub := prev + cost
			dp[j] = min3(ins, del, sub)
			prev = tmp
		}
	}
	return dp[m]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
