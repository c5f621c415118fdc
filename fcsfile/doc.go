// Package fcsfile reads and writes the text formats exchanged with FCS
// fitting software.
//
// Correlation files use the FCSfitJS / FOCUSpoint "point" layout: a block of
// key,value header rows, a column header, one lag,value row per point and a
// closing "end" row. Photon files are two-column time,channel CSV.
package fcsfile
