// Package mmap provides read-only memory-mapped file access.
//
// Photon streams are stored as large text files that are parsed once from
// start to end. Mapping them avoids copying the file through a read buffer
// before parsing.
//
//	m, err := mmap.Open("trace.csv")
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// Unix systems use mmap(2) through golang.org/x/sys/unix; Windows uses
// CreateFileMapping.
package mmap
