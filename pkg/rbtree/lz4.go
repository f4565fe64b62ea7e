// Package rbtree implements an ordered set of int keys as a red-black tree
// whose nodes live in an index-addressed arena.
//
// Insert, Remove and Find run in O(log n); every public operation leaves the
// tree satisfying the red-black invariants, which Validate checks on demand.
// The arena can be compressed with LZ4 while a tree is idle.
package rbtree

import (
	"bytes"
	"encoding/binary"

	"github.com/pierrec/lz4/v4"
)

// uint32ByteSize is the number of bytes in a uint32.
const uint32ByteSize = 4

// CompressUInt32Slice compresses a slice of uint32-s with LZ4.
func CompressUInt32Slice(data []uint32) []byte {
	buf := new(bytes.Buffer)

	writeErr := binary.Write(buf, binary.LittleEndian, data)
	if writeErr != nil {
		return nil
	}

	compressed := make([]byte, lz4.CompressBlockBound(buf.Len()))

	written, err := lz4.CompressBlock(buf.Bytes(), compressed, nil)
	if err != nil || written == 0 {
		return nil
	}

	return compressed[:written]
}

// DecompressUInt32Slice decompresses a slice of uint32-s previously compressed with LZ4.
// `result` must be preallocated.
func DecompressUInt32Slice(data []byte, result []uint32) {
	decompressed := make([]byte, len(result)*uint32ByteSize)

	_, err := lz4.UncompressBlock(data, decompressed)
	if err != nil {
		return
	}

	readErr := binary.Read(bytes.NewReader(decompressed), binary.LittleEndian, result)
	if readErr != nil {
		return
	}
}
