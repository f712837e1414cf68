package cli

// suggestCommand returns the subcommand name closest to name, or "" when none is
// within an edit distance of two.
func suggestCommand(name string, commands []*Command) string {
	const maxDistance = 2

	best, bestDistance := "", maxDistance+1

	for _, cmd := range commands {
		if d := levenshtein(name, cmd.Name); d < bestDistance {
			best, bestDistance = cmd.Name, d
		}
	}

	return best
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i

		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(rb)]
}
