package rbtree //nolint:testpackage // tests require access to unexported fields (storage, root, count).

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertAll(tb testing.TB, tree *Tree, keys ...int) {
	tb.Helper()

	for _, key := range keys {
		require.NoError(tb, tree.Insert(key), "insert %d", key)
	}
}

func requireValid(tb testing.TB, tree *Tree) ValidationReport {
	tb.Helper()

	report, err := tree.Validate()
	require.NoError(tb, err)
	require.True(tb, report.Valid)

	return report
}

// shape renders the tree in pre-order as key+color, e.g. "20B(10R,30R)".
func shape(tree *Tree) string {
	var builder strings.Builder

	var walk func(n Node)

	walk = func(n Node) {
		if n.IsNil() {
			builder.WriteString("-")

			return
		}

		fmt.Fprintf(&builder, "%d%s", n.Key(), n.Color())

		if n.Left().IsNil() && n.Right().IsNil() {
			return
		}

		builder.WriteString("(")
		walk(n.Left())
		builder.WriteString(",")
		walk(n.Right())
		builder.WriteString(")")
	}

	walk(tree.Root())

	return builder.String()
}

func TestEmpty(t *testing.T) {
	t.Parallel()

	tree := New()
	assert.Equal(t, 0, tree.Len())
	assert.True(t, tree.Root().IsNil())
	assert.False(t, tree.Contains(10))
	assert.Empty(t, tree.Traverse())
	assert.Equal(t, 0, tree.Height())

	_, found := tree.Find(10)
	assert.False(t, found)

	_, ok := tree.Min()
	assert.False(t, ok)

	_, ok = tree.Max()
	assert.False(t, ok)

	report := requireValid(t, tree)
	assert.Equal(t, 0, report.Nodes)
	assert.Equal(t, "none", report.RootColor)
}

func TestInsertSingleKeyBecomesBlackRoot(t *testing.T) {
	t.Parallel()

	tree := New()
	insertAll(t, tree, 10)

	root := tree.Root()
	require.False(t, root.IsNil())
	assert.Equal(t, 10, root.Key())
	assert.Equal(t, Black, root.Color())
	assert.True(t, root.Left().IsNil())
	assert.True(t, root.Right().IsNil())
	assert.Equal(t, 1, tree.Len())

	report := requireValid(t, tree)
	assert.Equal(t, 1, report.Nodes)
	assert.Equal(t, 1, report.BlackHeight)
	assert.Equal(t, "black", report.RootColor)
}

func TestInsertThreeKeysRedChildren(t *testing.T) {
	t.Parallel()

	tree := New()
	insertAll(t, tree, 20, 10, 30)

	assert.Equal(t, "20B(10R,30R)", shape(tree))
	assert.Equal(t, []int{10, 20, 30}, tree.Traverse())
	assert.Equal(t, tree.Root(), tree.Root().Left().Parent())
	assert.Equal(t, uint64(0), tree.Rotations())
	requireValid(t, tree)
}

func TestInsertUncleRedRecolors(t *testing.T) {
	t.Parallel()

	tree := New()
	insertAll(t, tree, 20, 10, 30, 5)

	assert.Equal(t, "20B(10B(5R,-),30B)", shape(tree))
	requireValid(t, tree)
}

func TestInsertOuterGrandchildRotatesOnce(t *testing.T) {
	t.Parallel()

	tree := New()
	insertAll(t, tree, 1, 2, 3)

	assert.Equal(t, "2B(1R,3R)", shape(tree))
	assert.Equal(t, uint64(1), tree.Rotations())
	requireValid(t, tree)
}

func TestInsertInnerGrandchildRotatesTwice(t *testing.T) {
	t.Parallel()

	tree := New()
	insertAll(t, tree, 1, 3, 2)

	assert.Equal(t, "2B(1R,3R)", shape(tree))
	assert.Equal(t, uint64(2), tree.Rotations())
	requireValid(t, tree)
}

func TestInsertDuplicateIsRejected(t *testing.T) {
	t.Parallel()

	tree := New()
	insertAll(t, tree, 44, 17, 88, 8, 32)

	before := shape(tree)
	rotations := tree.Rotations()
	used := tree.Allocator().Used()

	err := tree.Insert(32)
	require.ErrorIs(t, err, ErrDuplicateKey)

	assert.Equal(t, before, shape(tree))
	assert.Equal(t, rotations, tree.Rotations())
	assert.Equal(t, used, tree.Allocator().Used())
	assert.Equal(t, 5, tree.Len())
	requireValid(t, tree)
}

func TestFind(t *testing.T) {
	t.Parallel()

	tree := New()
	insertAll(t, tree, 20, 10, 30)

	nd, found := tree.Find(30)
	require.True(t, found)
	assert.Equal(t, 30, nd.Key())
	assert.Equal(t, Red, nd.Color())
	assert.Equal(t, 20, nd.Parent().Key())
	assert.Equal(t, nd, tree.Root().Child(Right))

	_, found = tree.Find(25)
	assert.False(t, found)
	assert.True(t, tree.Contains(10))
	assert.False(t, tree.Contains(11))
}

func TestNilNodeHandle(t *testing.T) {
	t.Parallel()

	var nd Node

	assert.True(t, nd.IsNil())
	assert.Equal(t, Black, nd.Color())
	assert.True(t, nd.Left().IsNil())
	assert.True(t, nd.Parent().IsNil())
	assert.Panics(t, func() { nd.Key() })
}

func TestRemoveMissingKey(t *testing.T) {
	t.Parallel()

	tree := New()
	require.ErrorIs(t, tree.Remove(10), ErrKeyNotFound)

	insertAll(t, tree, 10)

	// Removing a missing key must not touch its would-be neighbours.
	require.ErrorIs(t, tree.Remove(9), ErrKeyNotFound)
	assert.Equal(t, 1, tree.Len())
	assert.True(t, tree.Contains(10))

	require.NoError(t, tree.Remove(10))
	assert.Equal(t, 0, tree.Len())
	assert.True(t, tree.Root().IsNil())
	require.ErrorIs(t, tree.Remove(10), ErrKeyNotFound)
}

func TestRemoveRootWithTwoChildren(t *testing.T) {
	t.Parallel()

	tree := New()
	insertAll(t, tree, 20, 10, 30, 5, 15, 25, 40)

	require.NoError(t, tree.Remove(20))

	assert.False(t, tree.Contains(20))
	assert.Equal(t, []int{5, 10, 15, 25, 30, 40}, tree.Traverse())
	assert.Equal(t, 25, tree.Root().Key())

	report := requireValid(t, tree)
	assert.Equal(t, 6, report.Nodes)
}

func TestRemoveSequence(t *testing.T) {
	t.Parallel()

	inserts := []int{44, 17, 88, 8, 32, 65, 97, 28, 54, 82, 93, 21, 29, 76, 80}
	removals := []int{44, 32, 88, 28, 97, 21, 8, 65, 93, 17, 82, 54, 76, 29, 80}

	tree := New()
	insertAll(t, tree, inserts...)
	requireValid(t, tree)

	remaining := slices.Clone(inserts)

	for _, key := range removals {
		require.NoError(t, tree.Remove(key), "remove %d", key)

		remaining = slices.DeleteFunc(remaining, func(k int) bool { return k == key })
		expected := slices.Sorted(slices.Values(remaining))

		requireValid(t, tree)
		assert.False(t, tree.Contains(key))
		assert.Equal(t, expected, tree.Traverse(), "after removing %d", key)
	}

	assert.True(t, tree.Root().IsNil())
	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, 0, tree.Allocator().Used())
}

func TestRemoveCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		insert []int
		remove int
	}{
		{name: "root single node", insert: []int{10}, remove: 10},
		{name: "root with children", insert: []int{20, 10, 30}, remove: 20},
		{name: "red leaf", insert: []int{20, 10, 30, 40}, remove: 40},
		{name: "black leaf", insert: []int{20, 10, 30, 5, 15}, remove: 30},
		{name: "one red child", insert: []int{20, 10, 30, 40}, remove: 30},
		{name: "two children", insert: []int{20, 10, 30, 5, 15, 25, 40}, remove: 20},
		{name: "double black", insert: []int{20, 10, 30, 5, 25, 40}, remove: 10},
		{
			name:   "multiple rotations",
			insert: []int{50, 25, 75, 10, 30, 60, 90, 5, 15, 27, 40, 55, 70, 80, 100},
			remove: 25,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tree := New()
			insertAll(t, tree, tc.insert...)
			requireValid(t, tree)

			require.NoError(t, tree.Remove(tc.remove))

			requireValid(t, tree)
			assert.False(t, tree.Contains(tc.remove))
			assert.Equal(t, len(tc.insert)-1, tree.Len())

			expected := slices.DeleteFunc(slices.Sorted(slices.Values(tc.insert)), func(k int) bool {
				return k == tc.remove
			})
			assert.Equal(t, expected, tree.Traverse())
		})
	}
}

func TestRemoveBlackLeafWithRedSibling(t *testing.T) {
	t.Parallel()

	tree := New()
	// 10 ends up a black leaf whose sibling subtree is rooted at a red node.
	insertAll(t, tree, 10, 20, 30, 40, 50, 60)
	requireValid(t, tree)

	rotations := tree.Rotations()

	require.NoError(t, tree.Remove(10))
	requireValid(t, tree)
	assert.Greater(t, tree.Rotations(), rotations)
	assert.Equal(t, []int{20, 30, 40, 50, 60}, tree.Traverse())
}

func TestExtremeKeys(t *testing.T) {
	t.Parallel()

	tree := New()
	insertAll(t, tree, 0, math.MaxInt, math.MinInt, -1, 1)

	assert.Equal(t, []int{math.MinInt, -1, 0, 1, math.MaxInt}, tree.Traverse())

	minKey, ok := tree.Min()
	require.True(t, ok)
	assert.Equal(t, math.MinInt, minKey)

	maxKey, ok := tree.Max()
	require.True(t, ok)
	assert.Equal(t, math.MaxInt, maxKey)

	require.NoError(t, tree.Remove(math.MinInt))
	requireValid(t, tree)
}

func TestAllStopsEarly(t *testing.T) {
	t.Parallel()

	tree := New()
	insertAll(t, tree, 5, 3, 8, 1, 4)

	var seen []int

	for key := range tree.All() {
		seen = append(seen, key)
		if len(seen) == 3 {
			break
		}
	}

	assert.Equal(t, []int{1, 3, 4}, seen)
}

func TestClear(t *testing.T) {
	t.Parallel()

	tree := New()
	insertAll(t, tree, 5, 3, 8, 1, 4, 9, 7)

	tree.Clear()

	assert.Equal(t, 0, tree.Len())
	assert.True(t, tree.Root().IsNil())
	assert.Equal(t, 0, tree.Allocator().Used())
	requireValid(t, tree)

	insertAll(t, tree, 2, 1)
	assert.Equal(t, []int{1, 2}, tree.Traverse())
}

func TestIndependentTrees(t *testing.T) {
	t.Parallel()

	first := New()
	second := New()

	insertAll(t, first, 1, 2, 3)
	insertAll(t, second, 3, 4)

	assert.Equal(t, []int{1, 2, 3}, first.Traverse())
	assert.Equal(t, []int{3, 4}, second.Traverse())
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	tree := New()
	insertAll(t, tree, 20, 10, 30, 5, 15, 25, 40)
	require.NoError(t, tree.Remove(30))

	clone := tree.Clone()
	assert.Equal(t, tree.Traverse(), clone.Traverse())
	assert.Equal(t, tree.Len(), clone.Len())
	assert.Equal(t, tree.Rotations(), clone.Rotations())
	assert.NotSame(t, tree.Allocator(), clone.Allocator())

	insertAll(t, clone, 1, 2, 3)
	require.NoError(t, clone.Remove(20))
	require.NoError(t, tree.Remove(5))

	assert.Equal(t, []int{10, 15, 20, 25, 40}, tree.Traverse())
	assert.Equal(t, []int{1, 2, 3, 5, 10, 15, 25, 40}, clone.Traverse())
	requireValid(t, tree)
	requireValid(t, clone)
}

func TestCloneEmpty(t *testing.T) {
	t.Parallel()

	clone := New().Clone()
	assert.Zero(t, clone.Len())
	insertAll(t, clone, 7)
	assert.Equal(t, []int{7}, clone.Traverse())
}

func TestHibernatedTreePanics(t *testing.T) {
	t.Parallel()

	tree := New()
	insertAll(t, tree, 3, 1, 2)
	root := tree.Root()
	tree.Allocator().Hibernate()

	const msg = "hibernated allocators cannot be used"

	assert.PanicsWithValue(t, msg, func() { tree.Contains(1) })
	assert.PanicsWithValue(t, msg, func() { tree.Find(2) })
	assert.PanicsWithValue(t, msg, func() { tree.Traverse() })
	assert.PanicsWithValue(t, msg, func() { tree.Min() })
	assert.PanicsWithValue(t, msg, func() { tree.Max() })
	assert.PanicsWithValue(t, msg, func() { tree.Height() })
	assert.PanicsWithValue(t, msg, func() { tree.Clear() })
	assert.PanicsWithValue(t, msg, func() { root.Key() })
	assert.PanicsWithValue(t, msg, func() { root.Left() })
	assert.Panics(t, func() { tree.Clone() })

	tree.Allocator().Boot()
	assert.Equal(t, []int{1, 2, 3}, tree.Traverse())
}

func TestSharedAllocator(t *testing.T) {
	t.Parallel()

	allocator := NewAllocator()
	first := NewWithAllocator(allocator)
	second := NewWithAllocator(allocator)

	insertAll(t, first, 10, 20, 30)
	insertAll(t, second, 20, 5)

	assert.Equal(t, 5, allocator.Used())
	require.NoError(t, first.Remove(20))
	assert.True(t, second.Contains(20))
	assert.Equal(t, 4, allocator.Used())
	requireValid(t, first)
	requireValid(t, second)
}

func TestHeightIsLogarithmic(t *testing.T) {
	t.Parallel()

	tree := New()

	const keys = 1 << 12

	for key := range keys {
		require.NoError(t, tree.Insert(key))
	}

	report := requireValid(t, tree)
	assert.Equal(t, keys, report.Nodes)
	assert.Equal(t, tree.Height(), report.Height)
	// A red-black tree with n nodes is at most 2*log2(n+1) high.
	assert.LessOrEqual(t, tree.Height(), 2*int(math.Ceil(math.Log2(keys+1))))
}

// Randomized tests.

// oracle mirrors the tree contents in a plain set.
type oracle map[int]bool

func (o oracle) sorted() []int {
	keys := make([]int, 0, len(o))
	for key := range o {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}

func TestRandomizedAgainstOracle(t *testing.T) {
	t.Parallel()

	for _, seed := range []int64{1, 7, 42, 1337} {
		t.Run(fmt.Sprintf("seed_%d", seed), func(t *testing.T) {
			t.Parallel()

			rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic test data.
			tree := New()
			model := oracle{}

			for step := range 3000 {
				key := rng.Intn(300) - 150

				if rng.Intn(3) == 0 {
					err := tree.Remove(key)
					if model[key] {
						require.NoError(t, err, "step %d remove %d", step, key)
						delete(model, key)
					} else {
						require.ErrorIs(t, err, ErrKeyNotFound, "step %d remove %d", step, key)
					}
				} else {
					err := tree.Insert(key)
					if model[key] {
						require.ErrorIs(t, err, ErrDuplicateKey, "step %d insert %d", step, key)
					} else {
						require.NoError(t, err, "step %d insert %d", step, key)
						model[key] = true
					}
				}

				if step%10 == 0 {
					requireValid(t, tree)
				}

				require.Equal(t, len(model), tree.Len())
			}

			requireValid(t, tree)
			assert.Equal(t, model.sorted(), tree.Traverse())

			for key := -150; key < 150; key++ {
				assert.Equal(t, model[key], tree.Contains(key), "key %d", key)
			}
		})
	}
}

func TestRandomizedDrain(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(99)) //nolint:gosec // deterministic test data.
	keys := rng.Perm(500)

	tree := New()
	insertAll(t, tree, keys...)
	assert.Equal(t, slices.Sorted(slices.Values(keys)), tree.Traverse())

	rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	for idx, key := range keys {
		require.NoError(t, tree.Remove(key))
		requireValid(t, tree)
		assert.Equal(t, len(keys)-idx-1, tree.Len())
	}

	assert.True(t, tree.Root().IsNil())
}
