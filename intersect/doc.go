// Package intersect finds common values of two non-decreasing sequences.
//
// DivideAndConquer walks both sequences with one index each and marks the
// positions whose value also occurs in the other sequence. It runs in linear
// time and allocates only the two result masks.
//
// The scan keeps two conventions callers depend on:
//
//   - Masks have length n-1 for a declared length n. Callers that want a mask
//     entry for every element pass len+1 (the tttr correlator does this).
//   - On a match only the index into a advances. A single value of b can be
//     matched by several equal values of a, never the other way round.
//
// # Usage
//
//	maskA, maskB, err := intersect.DivideAndConquer(y, shifted, len(y)+1)
//	if err != nil {
//	    return err
//	}
//	for _, i := range maskA.Indices() {
//	    // y[i] also occurs in shifted
//	}
//
// Use DivideAndConquerSorted when the inputs are not known to be sorted.
package intersect
