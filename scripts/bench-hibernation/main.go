// bench-hibernation measures heap memory before and after Hibernate() on
// trees built from random keys, with optional heap profiles per phase.
//
// Usage:
//
//	go run ./scripts/bench-hibernation --keys 1000000 --trees 4 --profile-dir /tmp/rbtree-profiles
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/NWuSunset/Red-Black-Tree/pkg/rbtree"
)

type heapSnapshot struct {
	label     string
	heapInUse uint64
	heapSys   uint64
}

func main() {
	keys := flag.Int("keys", 1_000_000, "Keys inserted into each tree")
	trees := flag.Int("trees", 1, "Trees sharing one allocator")
	removeEvery := flag.Int("remove-every", 0, "Remove every Nth key after building (0 = none)")
	seed := flag.Uint64("seed", 1, "Random seed")
	profileDir := flag.String("profile-dir", "", "Directory to write heap profiles (optional)")

	flag.Parse()

	if *keys <= 0 || *trees <= 0 {
		log.Fatal("--keys and --trees must be positive")
	}

	if *profileDir != "" {
		if err := os.MkdirAll(*profileDir, 0o755); err != nil {
			log.Fatalf("mkdir profile-dir: %v", err)
		}
	}

	var snapshots []heapSnapshot

	takeSnapshot := func(label string) {
		runtime.GC()
		runtime.GC()

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		snapshots = append(snapshots, heapSnapshot{label: label, heapInUse: m.HeapInuse, heapSys: m.HeapSys})
		log.Printf("  [heap] %-24s inuse=%9s  sys=%9s", label, humanize.IBytes(m.HeapInuse), humanize.IBytes(m.HeapSys))

		if *profileDir != "" {
			writeHeapProfile(filepath.Join(*profileDir, label+".prof"))
		}
	}

	takeSnapshot("baseline")

	allocator := rbtree.NewAllocator()
	rng := rand.New(rand.NewPCG(*seed, *seed)) //nolint:gosec // benchmark input, not security.
	forest := make([]*rbtree.Tree, *trees)

	for i := range forest {
		forest[i] = rbtree.NewWithAllocator(allocator)
		fill(forest[i], rng, *keys, *removeEvery)
	}

	log.Printf("built %d tree(s): %s slots, %s live nodes",
		*trees, humanize.Comma(int64(allocator.Size())), humanize.Comma(int64(allocator.Used())))

	takeSnapshot("built")

	reference := forest[0].Clone().Traverse()

	footprint := allocator.Footprint()
	allocator.Hibernate()

	log.Printf("hibernated: %s arena -> %s compressed", humanize.IBytes(toBytes(footprint)),
		humanize.IBytes(toBytes(allocator.CompressedSize())))

	takeSnapshot("hibernated")

	allocator.Boot()

	for i, tree := range forest {
		if _, err := tree.Validate(); err != nil {
			log.Fatalf("tree %d broken after boot: %v", i, err)
		}
	}

	if !slices.Equal(reference, forest[0].Traverse()) {
		log.Fatal("tree 0 keys changed across hibernation")
	}

	takeSnapshot("booted")

	fmt.Printf("%-24s %12s %12s\n", "Phase", "InUse", "Sys")

	for _, snap := range snapshots {
		fmt.Printf("%-24s %12s %12s\n", snap.label, humanize.IBytes(snap.heapInUse), humanize.IBytes(snap.heapSys))
	}

	built, hibernated := snapshots[1], snapshots[2]
	if built.heapInUse > hibernated.heapInUse {
		freed := built.heapInUse - hibernated.heapInUse
		fmt.Printf("  built -> hibernated: %s freed (%.1f%%)\n",
			humanize.IBytes(freed), float64(freed)*100/float64(built.heapInUse))
	}
}

func fill(tree *rbtree.Tree, rng *rand.Rand, keys, removeEvery int) {
	inserted := make([]int, 0, keys)

	for tree.Len() < keys {
		key := rng.IntN(keys * 4) //nolint:mnd // sparse key space keeps duplicates rare.
		if tree.Insert(key) == nil {
			inserted = append(inserted, key)
		}
	}

	if removeEvery <= 0 {
		return
	}

	for i := 0; i < len(inserted); i += removeEvery {
		if err := tree.Remove(inserted[i]); err != nil {
			log.Fatalf("remove %d: %v", inserted[i], err)
		}
	}
}

func toBytes(n int) uint64 {
	return uint64(n) //nolint:gosec // sizes are non-negative.
}

func writeHeapProfile(path string) {
	runtime.GC()

	f, err := os.Create(path)
	if err != nil {
		log.Printf("warning: create heap profile %s: %v", path, err)

		return
	}
	defer f.Close()

	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Printf("warning: write heap profile %s: %v", path, err)
	}
}
