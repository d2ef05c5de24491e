package pattern

// SplitByPercent divides count into three parts proportional to the
// given percentages using the largest-remainder method. Each part first
// receives the floor of its exact share; leftover units go one at a time
// to the parts with the largest fractional share, ties going to the
// earlier part (Easy before Medium before Hard).
//
// Percentages are expected to sum to 100. When they do not, the shares
// are normalised against their actual sum so the parts still add up to
// count. A zero sum puts everything in the middle tier.
func SplitByPercent(count, easy, medium, hard int) [3]int {
	var out [3]int
	if count <= 0 {
		return out
	}
	pcts := [3]int{easy, medium, hard}
	sum := 0
	for i, p := range pcts {
		if p < 0 {
			pcts[i] = 0
		}
		sum += pcts[i]
	}
	if sum == 0 {
		out[1] = count
		return out
	}

	// Work in integer numerators over sum to keep the rule exact.
	var rem [3]int
	assigned := 0
	for i, p := range pcts {
		num := count * p
		out[i] = num / sum
		rem[i] = num % sum
		assigned += out[i]
	}

	for left := count - assigned; left > 0; left-- {
		best := 0
		for i := 1; i < 3; i++ {
			if rem[i] > rem[best] {
				best = i
			}
		}
		out[best]++
		rem[best] = -1
	}
	return out
}
