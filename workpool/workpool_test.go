package workpool

import (
	"sort"
	"sync"
	"testing"
)

func TestForRangeCoversEveryIndexExactlyOnce(t *testing.T) {
	for _, threads := range []int{1, 2, 3, 4, 8} {
		pool := New(threads)
		const n = 101

		var mu sync.Mutex
		seen := make([]int, 0, n)

		pool.ForRange(n, func(start, end int) {
			mu.Lock()
			for i := start; i < end; i++ {
				seen = append(seen, i)
			}
			mu.Unlock()
		})

		sort.Ints(seen)
		if len(seen) != n {
			t.Fatalf("threads=%d: expected %d indices, got %d", threads, n, len(seen))
		}
		for i, v := range seen {
			if v != i {
				t.Fatalf("threads=%d: index coverage gap at %d (got %d)", threads, i, v)
			}
		}
	}
}

func TestForRangeSingleThreadInline(t *testing.T) {
	pool := New(1)
	called := 0
	pool.ForRange(10, func(start, end int) {
		called++
		if start != 0 || end != 10 {
			t.Fatalf("expected full range inline, got [%d,%d)", start, end)
		}
	})
	if called != 1 {
		t.Fatalf("expected exactly one inline call, got %d", called)
	}
}

func TestForRangeEmpty(t *testing.T) {
	pool := New(4)
	called := false
	pool.ForRange(0, func(start, end int) { called = true })
	if called {
		t.Fatal("expected no calls for n=0")
	}
}

func TestForGridCoversEveryCellExactlyOnce(t *testing.T) {
	weights := []int{3, 0, 5, 0, 0, 7, 2, 1, 0, 9, 4}
	weight := func(i int) int { return weights[i] }

	for _, threads := range []int{1, 2, 3, 4, 8} {
		pool := New(threads)

		var mu sync.Mutex
		seen := make([]int, 0, len(weights))

		pool.ForGrid(len(weights), weight, func(start, end int) {
			mu.Lock()
			for i := start; i < end; i++ {
				seen = append(seen, i)
			}
			mu.Unlock()
		})

		sort.Ints(seen)
		if len(seen) != len(weights) {
			t.Fatalf("threads=%d: expected %d cells, got %d", threads, len(weights), len(seen))
		}
		for i, v := range seen {
			if v != i {
				t.Fatalf("threads=%d: coverage gap at %d (got %d)", threads, i, v)
			}
		}
	}
}

func TestForGridAllEmptyCells(t *testing.T) {
	pool := New(4)
	weight := func(i int) int { return 0 }

	var mu sync.Mutex
	total := 0
	pool.ForGrid(16, weight, func(start, end int) {
		mu.Lock()
		total += end - start
		mu.Unlock()
	})
	if total != 16 {
		t.Fatalf("expected all 16 cells covered, got %d", total)
	}
}

func TestSetNumThreads(t *testing.T) {
	pool := New(1)
	pool.SetNumThreads(0)
	if pool.NumThreads() != 1 {
		t.Fatalf("expected clamp to 1, got %d", pool.NumThreads())
	}
	pool.SetNumThreads(4)
	if pool.NumThreads() != 4 {
		t.Fatalf("expected 4, got %d", pool.NumThreads())
	}
}
