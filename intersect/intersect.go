package intersect

import (
	"cmp"

	"github.com/RoaringBitmap/roaring/v2"
)

// Mask marks matched positions of one input sequence.
type Mask []bool

// Indices returns the matched positions in ascending order.
func (m Mask) Indices() []int {
	out := make([]int, 0, m.Count())
	for i, ok := range m {
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// Count returns the number of matched positions.
func (m Mask) Count() int {
	n := 0
	for _, ok := range m {
		if ok {
			n++
		}
	}
	return n
}

// Bitmap returns the matched positions as a roaring bitmap.
func (m Mask) Bitmap() *roaring.Bitmap {
	bm := roaring.New()
	for i, ok := range m {
		if ok {
			bm.Add(uint32(i)) //nolint:gosec // masks are bounded by slice length
		}
	}
	return bm
}

// Uint8 returns the mask in 0/1 form.
func (m Mask) Uint8() []uint8 {
	out := make([]uint8, len(m))
	for i, ok := range m {
		if ok {
			out[i] = 1
		}
	}
	return out
}

// DivideAndConquer marks the values that a and b have in common.
//
// Both inputs must be sorted in non-decreasing order; this is not checked.
// The scan covers positions [0, n-1) of each input and the returned masks
// have length n-1. It returns a *LengthError if n < 1 or if n-1 exceeds the
// length of either input.
func DivideAndConquer[T cmp.Ordered](a, b []T, n int) (maskA, maskB Mask, err error) {
	if err := checkLength(len(a), len(b), n); err != nil {
		return nil, nil, err
	}

	limit := n - 1
	maskA = make(Mask, limit)
	maskB = make(Mask, limit)

	i, j := 0, 0
	for i < limit && j < limit {
		switch {
		case a[i] < b[j]:
			i++
		case b[j] < a[i]:
			j++
		default:
			// NaN is unordered and equal to nothing; step past it unmarked.
			if a[i] == b[j] {
				maskA[i] = true
				maskB[j] = true
			}
			i++
		}
	}

	return maskA, maskB, nil
}

// DivideAndConquerSorted is DivideAndConquer with an ordering check on the
// scanned prefix of both inputs. It returns an *OrderError for the first
// decreasing pair found.
func DivideAndConquerSorted[T cmp.Ordered](a, b []T, n int) (maskA, maskB Mask, err error) {
	if err := checkLength(len(a), len(b), n); err != nil {
		return nil, nil, err
	}
	if idx := firstDecrease(a[:n-1]); idx >= 0 {
		return nil, nil, &OrderError{Sequence: "a", Index: idx}
	}
	if idx := firstDecrease(b[:n-1]); idx >= 0 {
		return nil, nil, &OrderError{Sequence: "b", Index: idx}
	}
	return DivideAndConquer(a, b, n)
}

func checkLength(lenA, lenB, n int) error {
	if n < 1 || n-1 > lenA || n-1 > lenB {
		return &LengthError{N: n, LenA: lenA, LenB: lenB}
	}
	return nil
}

// firstDecrease returns the first index whose value is below its predecessor, or -1.
func firstDecrease[T cmp.Ordered](s []T) int {
	for i := 1; i < len(s); i++ {
		if s[i] < s[i-1] {
			return i
		}
	}
	return -1
}
