package sparse

// MatchResult is the outcome of ApproximateMatching: the set of
// candidate starting offsets that achieved the highest support seen,
// the support count itself, and the fraction of the pattern's
// distinct positions it represents.
type MatchResult struct {
	Offsets map[int]struct{}
	K       int
	Score   float64
}

// preprocessPattern returns, for each distinct symbol in pattern, the
// ordered list of (msize-k-1) offsets at which it occurs, collapsing
// immediately-repeated offsets (a quirk of the reference algorithm:
// only consecutive duplicates are dropped, not all of them).
func preprocessPattern[S comparable](pattern *SparseList[S]) map[S][]int {
	length := pattern.Len()
	result := make(map[S][]int)
	for _, k := range pattern.Keys() {
		name := pattern.Get(k)
		offset := length - k - 1
		existing, ok := result[name]
		if !ok {
			result[name] = []int{offset}
			continue
		}
		if existing[len(existing)-1] != offset {
			result[name] = append(existing, offset)
		}
	}
	return result
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// ApproximateMatching is a Baeza-Yates-Perleberg filter over sparse
// symbol sequences: it finds starting positions in text where at
// least kMin symbols of pattern align with text at the same cyclic
// shift. Only the populated positions of text are visited, in
// ascending order, up to stop+len(pattern)-1.
//
// Returns nil if text or pattern is empty, or if no alignment reaches
// kMin support.
func ApproximateMatching[S comparable](text, pattern *SparseList[S], stop, kMin int) *MatchResult {
	msize := pattern.Len()
	if len(text.Keys()) == 0 || msize == 0 {
		return nil
	}

	lookup := preprocessPattern(pattern)
	count := New[int](0)
	matchOffsets := make(map[int]struct{})
	k := kMin
	j := 0

	for _, i := range text.Keys() {
		if i > stop+msize-1 {
			break
		}
		count.WipeInterval(mod(j, msize), mod(i, msize))
		j = i

		symbol := text.Get(i)
		for _, off := range lookup[symbol] {
			pos := mod(i+off, msize)
			score := count.Get(pos) + 1
			count.Set(pos, score)

			switch {
			case score == k:
				matchOffsets[i+off-msize+1] = struct{}{}
			case score > k:
				k = score
				matchOffsets = map[int]struct{}{i + off - msize + 1: {}}
			}
		}
	}

	if len(matchOffsets) == 0 || k < kMin {
		return nil
	}
	return &MatchResult{Offsets: matchOffsets, K: k, Score: float64(k) / float64(len(pattern.Keys()))}
}
