package rbtree

import (
	"maps"
	"math"
	"sync"
	"unsafe"

	"github.com/NWuSunset/Red-Black-Tree/pkg/safeconv"
)

// growCapacityNumerator and growCapacityDenominator define the 3/2 growth factor for storage.
const (
	growCapacityNumerator   = 3
	growCapacityDenominator = 2
)

// Hibernated arena columns. The gap list is stored after the node columns.
const (
	columnKeyLo = iota
	columnKeyHi
	columnLeft
	columnParent
	columnRight
	columnColor
	columnCount
)

// nodeSize is the in-memory size of one arena slot.
const nodeSize = int(unsafe.Sizeof(node{}))

// Allocator owns the arena of tree nodes. Slot 0 is reserved for "absent".
//
// An Allocator may back several trees. It is not safe for concurrent use.
type Allocator struct {
	storage              []node
	gaps                 map[uint32]bool
	hibernatedData       [columnCount + 1][]byte
	HibernationThreshold int
	hibernatedStorageLen int
	hibernatedGapsLen    int
}

// NewAllocator creates a new allocator for tree nodes.
func NewAllocator() *Allocator {
	return &Allocator{
		storage:              []node{},
		gaps:                 map[uint32]bool{},
		hibernatedData:       [columnCount + 1][]byte{},
		HibernationThreshold: 0,
		hibernatedStorageLen: 0,
		hibernatedGapsLen:    0,
	}
}

// Size returns the number of arena slots, including the reserved one.
func (allocator *Allocator) Size() int {
	if allocator.storage == nil {
		return allocator.hibernatedStorageLen
	}

	return len(allocator.storage)
}

// Used returns the number of live nodes in the arena.
func (allocator *Allocator) Used() int {
	allocator.mustBeAwake()

	if len(allocator.storage) == 0 {
		return 0
	}

	return len(allocator.storage) - len(allocator.gaps) - 1
}

// Footprint returns the number of bytes held by the arena slots.
func (allocator *Allocator) Footprint() int {
	if allocator.storage == nil {
		return allocator.CompressedSize()
	}

	return cap(allocator.storage) * nodeSize
}

// Hibernated reports whether the arena is currently compressed.
func (allocator *Allocator) Hibernated() bool {
	return allocator.storage == nil
}

// CompressedSize returns the total size of the compressed columns.
func (allocator *Allocator) CompressedSize() int {
	total := 0

	for _, column := range allocator.hibernatedData {
		total += len(column)
	}

	return total
}

// Clone copies an existing allocator.
func (allocator *Allocator) Clone() *Allocator {
	if allocator.storage == nil {
		panic("cannot clone a hibernated allocator")
	}

	newAllocator := &Allocator{
		HibernationThreshold: allocator.HibernationThreshold,
		storage:              make([]node, len(allocator.storage), cap(allocator.storage)),
		gaps:                 map[uint32]bool{},
		hibernatedData:       [columnCount + 1][]byte{},
		hibernatedStorageLen: 0,
		hibernatedGapsLen:    0,
	}
	copy(newAllocator.storage, allocator.storage)
	maps.Copy(newAllocator.gaps, allocator.gaps)

	return newAllocator
}

// Hibernate compresses the arena and releases the node storage.
// Arenas smaller than HibernationThreshold are left untouched.
func (allocator *Allocator) Hibernate() {
	if allocator.storage == nil {
		panic("cannot hibernate an already hibernated Allocator")
	}

	if len(allocator.storage) < allocator.HibernationThreshold {
		return
	}

	allocator.hibernatedStorageLen = len(allocator.storage)
	if allocator.hibernatedStorageLen == 0 {
		allocator.storage = nil
		allocator.gaps = nil

		return
	}

	buffers := [columnCount][]uint32{}

	for idx := range buffers {
		buffers[idx] = make([]uint32, len(allocator.storage))
	}

	// Columns compress much better than interleaved structs.
	for idx, nd := range allocator.storage {
		buffers[columnKeyLo][idx], buffers[columnKeyHi][idx] = safeconv.SplitInt(nd.key)
		buffers[columnLeft][idx] = nd.left
		buffers[columnParent][idx] = nd.parent
		buffers[columnRight][idx] = nd.right
		buffers[columnColor][idx] = uint32(nd.color)
	}

	allocator.storage = nil

	wg := &sync.WaitGroup{}
	wg.Add(len(buffers) + 1)

	for idx, buffer := range buffers {
		go func(bufIdx int, buf []uint32) {
			allocator.hibernatedData[bufIdx] = CompressUInt32Slice(buf)
			buffers[bufIdx] = nil

			wg.Done()
		}(idx, buffer)
	}

	go func() {
		if len(allocator.gaps) > 0 {
			allocator.hibernatedGapsLen = len(allocator.gaps)

			gapsBuffer := make([]uint32, 0, len(allocator.gaps))
			for key := range allocator.gaps {
				gapsBuffer = append(gapsBuffer, key)
			}

			allocator.hibernatedData[columnCount] = CompressUInt32Slice(gapsBuffer)
		}

		allocator.gaps = nil

		wg.Done()
	}()

	wg.Wait()
}

// Boot performs the opposite of Hibernate() - decompresses and restores the arena.
// Booting an awake allocator is a no-op.
func (allocator *Allocator) Boot() {
	if allocator.storage != nil {
		return
	}

	if allocator.hibernatedStorageLen == 0 {
		allocator.storage = []node{}
		allocator.gaps = map[uint32]bool{}

		return
	}

	allocator.gaps = map[uint32]bool{}
	buffers := [columnCount][]uint32{}

	wg := &sync.WaitGroup{}
	wg.Add(len(buffers) + 1)

	for idx := range buffers {
		go func(bufIdx int) {
			buffers[bufIdx] = make([]uint32, allocator.hibernatedStorageLen)
			DecompressUInt32Slice(allocator.hibernatedData[bufIdx], buffers[bufIdx])
			allocator.hibernatedData[bufIdx] = nil

			wg.Done()
		}(idx)
	}

	go func() {
		if allocator.hibernatedGapsLen > 0 {
			buffer := make([]uint32, allocator.hibernatedGapsLen)
			DecompressUInt32Slice(allocator.hibernatedData[columnCount], buffer)

			for _, key := range buffer {
				allocator.gaps[key] = true
			}

			allocator.hibernatedData[columnCount] = nil
			allocator.hibernatedGapsLen = 0
		}

		wg.Done()
	}()

	wg.Wait()

	capSize := (allocator.hibernatedStorageLen * growCapacityNumerator) / growCapacityDenominator
	allocator.storage = make([]node, allocator.hibernatedStorageLen, capSize)

	for idx := range allocator.storage {
		nd := &allocator.storage[idx]
		nd.key = safeconv.JoinInt(buffers[columnKeyLo][idx], buffers[columnKeyHi][idx])
		nd.left = buffers[columnLeft][idx]
		nd.parent = buffers[columnParent][idx]
		nd.right = buffers[columnRight][idx]
		nd.color = Color(buffers[columnColor][idx])
	}

	allocator.hibernatedStorageLen = 0
}

func (allocator *Allocator) mustBeAwake() {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}
}

func (allocator *Allocator) malloc() uint32 {
	allocator.mustBeAwake()

	if len(allocator.gaps) > 0 {
		var key uint32

		for key = range allocator.gaps {
			break
		}

		delete(allocator.gaps, key)

		return key
	}

	nodeLen := len(allocator.storage)
	if nodeLen == 0 {
		// Zero is reserved.
		allocator.storage = append(allocator.storage, node{color: Black})
		nodeLen = 1
	}

	if nodeLen == math.MaxUint32 {
		panic("the node arena has reached the maximum value for uint32")
	}

	allocator.storage = append(allocator.storage, node{})

	return safeconv.MustIntToUint32(nodeLen)
}

func (allocator *Allocator) free(nodeIdx uint32) {
	allocator.mustBeAwake()

	if nodeIdx == nilNode {
		panic("node #0 is special and cannot be deallocated")
	}

	_, exists := allocator.gaps[nodeIdx]
	doAssert(!exists)

	allocator.storage[nodeIdx] = node{}
	allocator.gaps[nodeIdx] = true
}
