package rbtree

// Stats is a point-in-time summary of a tree and its arena.
type Stats struct {
	Keys int `json:"keys" yaml:"keys"`
	// Height and BlackHeight are zero while the arena is hibernated.
	Height      int    `json:"height"       yaml:"height"`
	BlackHeight int    `json:"black_height" yaml:"black_height"`
	Rotations   uint64 `json:"rotations"    yaml:"rotations"`
	Min         int    `json:"min"          yaml:"min"`
	Max         int    `json:"max"          yaml:"max"`
	ArenaSlots  int    `json:"arena_slots"  yaml:"arena_slots"`
	ArenaBytes  int    `json:"arena_bytes"  yaml:"arena_bytes"`
	Hibernated  bool   `json:"hibernated"   yaml:"hibernated"`
}

// Stats collects the summary. It is safe to call on a hibernated arena.
func (tree *Tree) Stats() Stats {
	stats := Stats{
		Keys:       tree.count,
		Rotations:  tree.rotations,
		ArenaSlots: tree.allocator.Size(),
		ArenaBytes: tree.allocator.Footprint(),
		Hibernated: tree.allocator.Hibernated(),
	}

	if stats.Hibernated || tree.root == nilNode {
		return stats
	}

	alloc := tree.storage()
	stats.Height = tree.Height()
	stats.Min = alloc[tree.extreme(tree.root, Left)].key
	stats.Max = alloc[tree.extreme(tree.root, Right)].key

	// Every path has the same black count, so the left spine is enough.
	for idx := tree.root; idx != nilNode; idx = alloc[idx].left {
		if alloc[idx].color == Black {
			stats.BlackHeight++
		}
	}

	return stats
}
