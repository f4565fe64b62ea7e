package rbtree

import "fmt"

// Remove deletes key from the tree. Removing an absent key leaves the tree
// untouched and returns an error wrapping ErrKeyNotFound.
func (tree *Tree) Remove(key int) error {
	tree.allocator.mustBeAwake()

	nodeIdx := tree.find(key)
	if nodeIdx == nilNode {
		return fmt.Errorf("remove %d: %w", key, ErrKeyNotFound)
	}

	tree.doDelete(nodeIdx)

	return nil
}

// doDelete unlinks the node holding the key of nodeIdx.
func (tree *Tree) doDelete(nodeIdx uint32) {
	alloc := tree.storage()

	// Two children: the in-order successor donates its key and is unlinked instead.
	if alloc[nodeIdx].left != nilNode && alloc[nodeIdx].right != nilNode {
		succ := tree.extreme(alloc[nodeIdx].right, Left)
		alloc[nodeIdx].key = alloc[succ].key
		nodeIdx = succ
	}

	child := alloc[nodeIdx].left
	if child == nilNode {
		child = alloc[nodeIdx].right
	}

	switch {
	case child != nilNode:
		// A lone child is always red, so painting it black restores the black-height.
		tree.transplant(nodeIdx, child)
		alloc[child].color = Black
	case alloc[nodeIdx].parent == nilNode:
		tree.root = nilNode
	case alloc[nodeIdx].color == Red:
		tree.transplant(nodeIdx, nilNode)
	default:
		// The black leaf stays in place as the double-black marker while fixup runs.
		tree.deleteFixup(nodeIdx)
		tree.transplant(nodeIdx, nilNode)
	}

	tree.allocator.free(nodeIdx)
	tree.count--
}

// deleteFixup rebalances around nodeIdx, whose subtree is one black short
// compared with its sibling's.
func (tree *Tree) deleteFixup(nodeIdx uint32) {
	alloc := tree.storage()

	for alloc[nodeIdx].parent != nilNode {
		parent := alloc[nodeIdx].parent
		dir := tree.dirOf(nodeIdx)
		sibling := alloc[parent].child(dir.Opposite())

		if sibling == nilNode {
			nodeIdx = parent

			continue
		}

		// Case 3: red sibling. Rotate it above the parent so the new sibling is black.
		if alloc[sibling].color == Red {
			tree.rotate(parent, dir)
			alloc[parent].color = Red
			alloc[sibling].color = Black
			sibling = alloc[parent].child(dir.Opposite())

			if sibling == nilNode {
				nodeIdx = parent

				continue
			}
		}

		closeNephew := alloc[sibling].child(dir)
		farNephew := alloc[sibling].child(dir.Opposite())

		if tree.colorOf(closeNephew) == Black && tree.colorOf(farNephew) == Black {
			// Case 4: red parent absorbs the missing black.
			if alloc[parent].color == Red {
				alloc[parent].color = Black
				alloc[sibling].color = Red

				return
			}

			// Case 2: everything is black; push the deficiency one level up.
			alloc[sibling].color = Red
			nodeIdx = parent

			continue
		}

		// Case 5: close nephew red, far nephew black.
		if tree.colorOf(farNephew) == Black {
			tree.rotate(sibling, dir.Opposite())
			alloc[sibling].color = Red
			alloc[closeNephew].color = Black
			farNephew = sibling
			sibling = closeNephew
		}

		// Case 6: far nephew red.
		tree.rotate(parent, dir)
		alloc[sibling].color = alloc[parent].color
		alloc[parent].color = Black
		alloc[farNephew].color = Black

		return
	}
}
