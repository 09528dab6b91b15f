package validate

// levenshteinDistance computes the classic edit distance between a and
// b, grounded on seed_validators.py's _levenshtein_distance.
func levenshteinDistance(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ar); i++ {
		curr[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			curr[j] = minInt(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(br)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// findSimilarTempID returns the nearest candidate to target, mirroring
// seed_validators.py's _find_similar_temp_id: a suggestion is returned
// only when its distance is <= 2 AND strictly smaller than every other
// candidate's distance (a tie yields no suggestion).
func findSimilarTempID(target string, candidates []string) (string, bool) {
	bestDist := -1
	best := ""
	tie := false

	for _, c := range candidates {
		d := levenshteinDistance(target, c)
		if d > 2 {
			continue
		}
		switch {
		case bestDist == -1 || d < bestDist:
			bestDist = d
			best = c
			tie = false
		case d == bestDist:
			tie = true
		}
	}

	if bestDist == -1 || tie {
		return "", false
	}
	return best, true
}
