package rbtree

import (
	"cmp"
	"iter"
)

// Tree is a red-black tree of distinct int keys.
//
// The tree owns its nodes through the bound Allocator; parent links inside
// the arena are navigation-only back references. A Tree is not safe for
// concurrent use.
type Tree struct {
	// Nodes allocator.
	allocator *Allocator

	// Root of the tree.
	root uint32

	// Number of nodes under root, including the root.
	count int

	// Lifetime number of rotations.
	rotations uint64
}

// New creates an empty tree with its own allocator.
func New() *Tree {
	return NewWithAllocator(NewAllocator())
}

// NewWithAllocator creates an empty tree whose nodes live in allocator.
func NewWithAllocator(allocator *Allocator) *Tree {
	return &Tree{allocator: allocator, root: nilNode, count: 0, rotations: 0}
}

// storage returns the arena slots. It panics on a hibernated allocator.
func (tree *Tree) storage() []node {
	tree.allocator.mustBeAwake()

	return tree.allocator.storage
}

// Clone returns an independent copy of the tree backed by a copy of its
// arena. Nodes of other trees sharing the allocator are copied too but stay
// unreachable from the clone. REQUIRES: the allocator is awake.
func (tree *Tree) Clone() *Tree {
	clone := *tree
	clone.allocator = tree.allocator.Clone()

	return &clone
}

// Allocator returns the bound nodes allocator.
func (tree *Tree) Allocator() *Allocator {
	return tree.allocator
}

// Len returns the number of keys in the tree.
func (tree *Tree) Len() int {
	return tree.count
}

// Rotations returns how many rotations the tree has performed so far.
func (tree *Tree) Rotations() uint64 {
	return tree.rotations
}

// Root returns a handle to the root node, absent for an empty tree.
func (tree *Tree) Root() Node {
	return tree.handle(tree.root)
}

// Find looks key up. The second result is false when key is absent.
func (tree *Tree) Find(key int) (Node, bool) {
	idx := tree.find(key)
	if idx == nilNode {
		return Node{}, false
	}

	return tree.handle(idx), true
}

// Contains reports whether key is in the tree.
func (tree *Tree) Contains(key int) bool {
	return tree.find(key) != nilNode
}

// Min returns the smallest key.
func (tree *Tree) Min() (int, bool) {
	if tree.root == nilNode {
		return 0, false
	}

	return tree.storage()[tree.extreme(tree.root, Left)].key, true
}

// Max returns the largest key.
func (tree *Tree) Max() (int, bool) {
	if tree.root == nilNode {
		return 0, false
	}

	return tree.storage()[tree.extreme(tree.root, Right)].key, true
}

// Traverse returns the keys in ascending order.
func (tree *Tree) Traverse() []int {
	keys := make([]int, 0, tree.count)

	for key := range tree.All() {
		keys = append(keys, key)
	}

	return keys
}

// All iterates over the keys in ascending order. The tree must not be
// modified during iteration.
func (tree *Tree) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		if tree.root == nilNode {
			return
		}

		alloc := tree.storage()

		for idx := tree.extreme(tree.root, Left); idx != nilNode; idx = successor(idx, alloc) {
			if !yield(alloc[idx].key) {
				return
			}
		}
	}
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (tree *Tree) Height() int {
	return subtreeHeight(tree.root, tree.storage())
}

// Clear removes all the keys from the tree and returns their nodes to the allocator.
func (tree *Tree) Clear() {
	if tree.root != nilNode {
		tree.freeSubtree(tree.root)
	}

	tree.root = nilNode
	tree.count = 0
}

func (tree *Tree) freeSubtree(idx uint32) {
	// Post-order with an explicit stack so deep arenas cannot blow the goroutine stack.
	alloc := tree.storage()
	stack := []uint32{idx}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if alloc[top].left != nilNode {
			stack = append(stack, alloc[top].left)
		}

		if alloc[top].right != nilNode {
			stack = append(stack, alloc[top].right)
		}

		tree.allocator.free(top)
	}
}

func (tree *Tree) handle(idx uint32) Node {
	if idx == nilNode {
		return Node{}
	}

	return Node{tree: tree, idx: idx}
}

func (tree *Tree) find(key int) uint32 {
	alloc := tree.storage()
	idx := tree.root

	for idx != nilNode {
		switch comp := cmp.Compare(key, alloc[idx].key); {
		case comp == 0:
			return idx
		case comp < 0:
			idx = alloc[idx].left
		default:
			idx = alloc[idx].right
		}
	}

	return nilNode
}

// colorOf is the single color accessor: absent nodes are black.
func (tree *Tree) colorOf(idx uint32) Color {
	if idx == nilNode {
		return Black
	}

	return tree.storage()[idx].color
}

// dirOf returns the side of its parent idx hangs on. REQUIRES: idx has a parent.
func (tree *Tree) dirOf(idx uint32) Direction {
	alloc := tree.storage()
	parent := alloc[idx].parent
	doAssert(parent != nilNode)

	if alloc[parent].left == idx {
		return Left
	}

	return Right
}

// extreme walks from idx as far as possible in dir.
func (tree *Tree) extreme(idx uint32, dir Direction) uint32 {
	alloc := tree.storage()

	for alloc[idx].child(dir) != nilNode {
		idx = alloc[idx].child(dir)
	}

	return idx
}

// Return the minimum node that's larger than N. Return 0 if no such
// node is found.
func successor(idx uint32, alloc []node) uint32 {
	if alloc[idx].right != nilNode {
		cursor := alloc[idx].right

		for alloc[cursor].left != nilNode {
			cursor = alloc[cursor].left
		}

		return cursor
	}

	for {
		parent := alloc[idx].parent
		if parent == nilNode {
			return nilNode
		}

		if alloc[parent].left == idx {
			return parent
		}

		idx = parent
	}
}

func subtreeHeight(idx uint32, alloc []node) int {
	if idx == nilNode {
		return 0
	}

	return 1 + max(subtreeHeight(alloc[idx].left, alloc), subtreeHeight(alloc[idx].right, alloc))
}
