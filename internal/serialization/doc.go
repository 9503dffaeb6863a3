// Package serialization reads and writes float32/float64 tensors in the
// SafeTensors format, the file format the CLI uses for problems and
// solutions.
//
//	Format Structure:
//	  [8 bytes: header size N (uint64 LE)]
//	  [N bytes: JSON header]
//	  [tensor data: raw little-endian bytes, tensors back to back]
//
// The header maps each tensor name to its dtype ("F32" or "F64"), shape and
// [begin, end) byte range in the data section. The optional "__metadata__"
// entry holds string pairs; the writer adds a SHA-256 of the data section
// under "sha256", and the reader verifies it when present.
//
// Example usage:
//
//	err := serialization.WriteSafeTensors("solution.safetensors",
//	    map[string]*tensor.RawTensor{"solution": x.Raw()},
//	    map[string]string{"method": "cg"})
//
//	tensors, metadata, err := serialization.ReadSafeTensors("problem.safetensors")
//	matrix := tensors["matrix"]
package serialization
