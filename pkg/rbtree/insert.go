package rbtree

import (
	"cmp"
	"fmt"
)

// Insert adds key to the tree. Inserting a key that is already present
// leaves the tree untouched and returns an error wrapping ErrDuplicateKey.
func (tree *Tree) Insert(key int) error {
	nodeIdx, inserted := tree.doInsert(key)
	if !inserted {
		return fmt.Errorf("insert %d: %w", key, ErrDuplicateKey)
	}

	tree.insertFixup(nodeIdx)

	return nil
}

// doInsert attaches a red leaf for key, or returns false when key exists.
func (tree *Tree) doInsert(key int) (uint32, bool) {
	tree.allocator.mustBeAwake()

	parent := nilNode
	dir := Left
	cursor := tree.root
	alloc := tree.storage()

	for cursor != nilNode {
		comp := cmp.Compare(key, alloc[cursor].key)
		if comp == 0 {
			return nilNode, false
		}

		parent = cursor
		dir = Right

		if comp < 0 {
			dir = Left
		}

		cursor = alloc[cursor].child(dir)
	}

	nodeIdx := tree.allocator.malloc()
	alloc = tree.storage()
	alloc[nodeIdx] = node{key: key, parent: parent, color: Red}

	if parent == nilNode {
		tree.root = nodeIdx
	} else {
		alloc[parent].setChild(dir, nodeIdx)
	}

	tree.count++

	return nodeIdx, true
}

// insertFixup restores the invariants after nodeIdx was attached as a red leaf.
// Only the red-uncle case walks upward; every other case terminates.
func (tree *Tree) insertFixup(nodeIdx uint32) {
	alloc := tree.storage()

	for {
		parent := alloc[nodeIdx].parent

		// Case: N is the root.
		if parent == nilNode {
			alloc[nodeIdx].color = Black

			break
		}

		// Case: the parent is black, nothing is violated.
		if alloc[parent].color == Black {
			return
		}

		// Case: the parent is a red root.
		grandparent := alloc[parent].parent
		if grandparent == nilNode {
			alloc[parent].color = Black

			return
		}

		parentDir := tree.dirOf(parent)
		uncle := alloc[grandparent].child(parentDir.Opposite())

		// Case: parent and uncle are both red.
		if tree.colorOf(uncle) == Red {
			alloc[parent].color = Black
			alloc[uncle].color = Black
			alloc[grandparent].color = Red
			nodeIdx = grandparent

			continue
		}

		// Case: N is the inner grandchild; turn it into the outer one.
		if nodeIdx == alloc[parent].child(parentDir.Opposite()) {
			tree.rotate(parent, parentDir)
			nodeIdx, parent = parent, nodeIdx
		}

		// Case: N is the outer grandchild.
		tree.rotate(grandparent, parentDir.Opposite())
		alloc[parent].color = Black
		alloc[grandparent].color = Red

		return
	}

	alloc[tree.root].color = Black
}
