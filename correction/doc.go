// Package correction removes artifacts from a photon stream using a per-bin
// artifact prediction of its intensity trace.
//
// A classifier (for example a U-Net) scores every bin of the binned trace.
// Bins scoring above the threshold are artifacts and their photons are
// deleted, deleted with the remaining stream closed over the gap, or kept
// with a reduced weight for a weighted correlation.
package correction
