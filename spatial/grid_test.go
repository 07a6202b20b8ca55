package spatial

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/sph3d/fluidcore/geom"
	"github.com/sph3d/fluidcore/workpool"
)

func testSpace() geom.Cuboid {
	return geom.NewCuboid(-1, 1, -1, 1, -1, 1)
}

func TestGridKeyOutsideVolume(t *testing.T) {
	g := NewGrid(testSpace(), 0.25)
	if key := g.GridKey(mgl32.Vec3{5, 5, 5}); key != -1 {
		t.Fatalf("expected -1 for out-of-range position, got %d", key)
	}
}

func TestGridKeyAgreesWithDiscretization(t *testing.T) {
	g := NewGrid(testSpace(), 0.25)
	a := mgl32.Vec3{0.1, 0.1, 0.1}
	b := mgl32.Vec3{0.12, 0.13, 0.14} // same cell as a

	if g.GridKey(a) != g.GridKey(b) {
		t.Fatalf("expected same cell for nearby points: %d vs %d", g.GridKey(a), g.GridKey(b))
	}

	c := mgl32.Vec3{0.9, 0.9, 0.9} // far cell
	if g.GridKey(a) == g.GridKey(c) {
		t.Fatal("expected different cells for distant points")
	}
}

func TestRebuildInvariantEveryParticleStoredOnce(t *testing.T) {
	g := NewGrid(testSpace(), 0.25)
	pool := workpool.New(4)

	var particles []Particle
	for i := 0; i < 500; i++ {
		x := float32(i%10)/10*1.8 - 0.9
		y := float32((i/10)%10)/10*1.8 - 0.9
		z := float32((i/100)%10)/10*1.8 - 0.9
		particles = append(particles, Particle{Index: i, Position: mgl32.Vec3{x, y, z}})
	}

	g.Rebuild(pool, particles)

	if got := g.Count(); got != len(particles) {
		t.Fatalf("expected %d particles stored, got %d", len(particles), got)
	}

	seen := make(map[int]bool)
	for key := 0; key < g.NumCells(); key++ {
		for _, p := range g.Bucket(key) {
			if seen[p.Index] {
				t.Fatalf("particle %d stored twice", p.Index)
			}
			seen[p.Index] = true
			if g.GridKey(p.Position) != key {
				t.Fatalf("particle %d stored in wrong bucket", p.Index)
			}
		}
	}
}

func TestRebuildDropsOutOfRangeParticles(t *testing.T) {
	g := NewGrid(testSpace(), 0.25)
	pool := workpool.New(2)

	particles := []Particle{
		{Index: 0, Position: mgl32.Vec3{0, 0, 0}},
		{Index: 1, Position: mgl32.Vec3{100, 100, 100}},
	}
	g.Rebuild(pool, particles)

	if got := g.Count(); got != 1 {
		t.Fatalf("expected 1 in-range particle retained, got %d", got)
	}
}

func TestNeighborKeysBoundedAndUnique(t *testing.T) {
	g := NewGrid(testSpace(), 0.25)
	keys := g.NeighborKeys(mgl32.Vec3{0, 0, 0})
	if len(keys) == 0 || len(keys) > 27 {
		t.Fatalf("expected between 1 and 27 neighbor keys, got %d", len(keys))
	}
	seen := make(map[int]bool)
	for _, k := range keys {
		if seen[k] {
			t.Fatalf("duplicate neighbor key %d", k)
		}
		seen[k] = true
	}
}

func TestNeighborKeysAtCornerAreFewer(t *testing.T) {
	g := NewGrid(testSpace(), 0.25)
	corner := g.NeighborKeys(mgl32.Vec3{-0.99, -0.99, -0.99})
	center := g.NeighborKeys(mgl32.Vec3{0, 0, 0})
	if len(corner) >= len(center) {
		t.Fatalf("expected fewer neighbor cells at a domain corner: corner=%d center=%d", len(corner), len(center))
	}
}
