package classify

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// CompareChromosomes orders chromosome labels naturally: numeric labels by
// value, then non-numeric labels lexically. A leading "chr" is ignored.
func CompareChromosomes(a, b string) int {
	a = strings.TrimPrefix(a, "chr")
	b = strings.TrimPrefix(b, "chr")

	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(na, nb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// SortCalls sorts classified calls by chromosome then position. Calls at the
// same locus keep their relative order.
func SortCalls(calls []ClassifiedCall) {
	slices.SortStableFunc(calls, func(x, y ClassifiedCall) int {
		if c := CompareChromosomes(x.Call.Chromosome, y.Call.Chromosome); c != 0 {
			return c
		}
		return cmp.Compare(x.Call.Position, y.Call.Position)
	})
}
