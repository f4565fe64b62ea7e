package rbtree

// rotate turns the subtree at subRoot in dir and returns the new subtree root.
//
// Left rotation:
//
//	  X              Y
//	A   Y    =>    X   C
//	  B C        A B
//
// Right rotation:
//
//	    Y            X
//	  X   C  =>    A   Y
//	A B              B C
//
// Colors and keys are left untouched, so black-heights are preserved.
// REQUIRES: subRoot has a child on dir.Opposite().
//
//nolint:dupword // ASCII art diagrams contain intentional repeated letters.
func (tree *Tree) rotate(subRoot uint32, dir Direction) uint32 {
	alloc := tree.storage()
	opposite := dir.Opposite()

	newRoot := alloc[subRoot].child(opposite)
	doAssert(newRoot != nilNode)

	// Move the inner subtree.
	inner := alloc[newRoot].child(dir)
	alloc[subRoot].setChild(opposite, inner)

	if inner != nilNode {
		alloc[inner].parent = subRoot
	}

	// Hook the new root where subRoot used to hang.
	parent := alloc[subRoot].parent
	alloc[newRoot].parent = parent

	if parent == nilNode {
		tree.root = newRoot
	} else {
		alloc[parent].setChild(tree.dirOf(subRoot), newRoot)
	}

	alloc[newRoot].setChild(dir, subRoot)
	alloc[subRoot].parent = newRoot
	tree.rotations++

	return newRoot
}

// transplant puts the subtree rooted at replacement (possibly absent) in place of target.
func (tree *Tree) transplant(target, replacement uint32) {
	alloc := tree.storage()
	parent := alloc[target].parent

	if parent == nilNode {
		tree.root = replacement
	} else {
		alloc[parent].setChild(tree.dirOf(target), replacement)
	}

	if replacement != nilNode {
		alloc[replacement].parent = parent
	}
}
