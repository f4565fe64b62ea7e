package rbtree

// Color is the color of a tree node.
type Color uint8

// Node colors. Absent children are always reported as Black.
const (
	Red Color = iota
	Black
)

// String returns "R" or "B".
func (c Color) String() string {
	switch c {
	case Red:
		return "R"
	case Black:
		return "B"
	default:
		return "?"
	}
}

// Valid reports whether c is one of the two node colors.
func (c Color) Valid() bool {
	return c == Red || c == Black
}

// Direction selects a child of a node.
type Direction uint8

// Child directions.
const (
	Left Direction = iota
	Right
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Left {
		return Right
	}

	return Left
}

// String returns "left" or "right".
func (d Direction) String() string {
	if d == Left {
		return "left"
	}

	return "right"
}

// nilNode is the reserved arena index that stands for an absent node.
const nilNode uint32 = 0

type node struct {
	key                 int
	parent, left, right uint32
	color               Color
}

func (nd *node) child(dir Direction) uint32 {
	if dir == Left {
		return nd.left
	}

	return nd.right
}

func (nd *node) setChild(dir Direction, idx uint32) {
	if dir == Left {
		nd.left = idx
	} else {
		nd.right = idx
	}
}

// Node is a read-only handle to a tree node. The zero Node is absent.
//
// A handle stays valid until the node it points to is removed or the tree is
// cleared; a removal may also move keys between nodes.
type Node struct {
	tree *Tree
	idx  uint32
}

// IsNil reports whether the handle points to an absent position.
func (n Node) IsNil() bool {
	return n.tree == nil || n.idx == nilNode
}

// Key returns the node key. REQUIRES: !n.IsNil().
func (n Node) Key() int {
	doAssert(!n.IsNil())

	return n.tree.storage()[n.idx].key
}

// Color returns the node color, Black for an absent node.
func (n Node) Color() Color {
	if n.IsNil() {
		return Black
	}

	return n.tree.colorOf(n.idx)
}

// Left returns the left child handle.
func (n Node) Left() Node {
	return n.link(func(nd *node) uint32 { return nd.left })
}

// Right returns the right child handle.
func (n Node) Right() Node {
	return n.link(func(nd *node) uint32 { return nd.right })
}

// Child returns the child in the given direction.
func (n Node) Child(dir Direction) Node {
	return n.link(func(nd *node) uint32 { return nd.child(dir) })
}

// Parent returns the parent handle, absent for the root.
func (n Node) Parent() Node {
	return n.link(func(nd *node) uint32 { return nd.parent })
}

func (n Node) link(pick func(nd *node) uint32) Node {
	if n.IsNil() {
		return Node{}
	}

	idx := pick(&n.tree.storage()[n.idx])
	if idx == nilNode {
		return Node{}
	}

	return Node{tree: n.tree, idx: idx}
}

func doAssert(condition bool) {
	if !condition {
		panic("rbtree internal assertion failed")
	}
}
