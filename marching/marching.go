// Package marching implements the Marching Cubes density estimator
// described in spec.md §4.6: a padded density-counting grid and a second,
// half-shifted cube grid whose 8-corner values are sampled from it, both
// dispatched through a workpool.Pool handed to New (the callers in this
// module pass one separate from the particle system's own pool).
// Grounded on original_source's Marching_Cubes_Generator (grid sizing,
// dirty-flag reallocation, corner indexing) translated from its OpenGL
// buffer-upload model into a plain data producer: the triangle-table/GPU
// stage is delegated to a geometry shader per spec.md §1 and is out of
// scope here.
package marching

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/sph3d/fluidcore/geom"
	"github.com/sph3d/fluidcore/simcore"
	"github.com/sph3d/fluidcore/workpool"
)

// cornerOffsets is the fixed 8-corner indexing scheme from spec.md §4.6.
var cornerOffsets = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1},
	{0, 1, 0}, {1, 1, 0}, {1, 1, 1}, {0, 1, 1},
}

// Cube is one Marching Cubes cell: its world-space min corner, the
// estimated particle count at that corner, and the 8 sampled corner
// density values in the fixed winding spec.md §4.6 defines.
type Cube struct {
	MinCorner           mgl32.Vec3
	NumberOfParticles   int32
	Corners             [8]int32
}

// particleSource is the narrow read-only view Generator needs from the
// particle system: spec.md §3 describes MarchingCubesGenerator as holding
// "a read-only reference to the ParticleSystem".
type particleSource interface {
	SimulationSpace() geom.Cuboid
	Particles() []simcore.ParticleView
}

// Generator owns the density-estimator grid and the Marching Cubes grid
// derived from it.
type Generator struct {
	source particleSource
	pool   *workpool.Pool

	edgeLength float32
	isovalue   float32
	dirty      bool

	space geom.Cuboid // simulation space as of the last (re)allocation

	deMin            mgl32.Vec3
	deNx, deNy, deNz int
	density          []int32
	densityMu        []sync.Mutex

	mcNx, mcNy, mcNz int
	cubes            []Cube

	dataChanged bool
}

// New builds a Generator reading from source, dispatched through pool.
// OnSimulationSpaceChanged/SetCubeEdgeLength must be called (or a first
// Generate) before corner values are meaningful.
func New(source particleSource, pool *workpool.Pool, edgeLength, isovalue float32) *Generator {
	return &Generator{
		source:     source,
		pool:       pool,
		edgeLength: edgeLength,
		isovalue:   isovalue,
		dirty:      true,
	}
}

// OnSimulationSpaceChanged marks the grid geometry dirty: the next
// Generate() reallocates both sub-grids and reseeds cube min-corners.
func (g *Generator) OnSimulationSpaceChanged() { g.dirty = true }

// SetCubeEdgeLength changes the cube resolution, effective on the next
// Generate().
func (g *Generator) SetCubeEdgeLength(edge float32) {
	g.edgeLength = edge
	g.dirty = true
}

// SetIsovalue changes the iso-surface threshold passed downstream to the
// (out-of-scope) geometry shader; it does not require regridding.
func (g *Generator) SetIsovalue(v float32) { g.isovalue = v }

// Isovalue returns the current iso-surface threshold.
func (g *Generator) Isovalue() float32 { return g.isovalue }

// Cubes returns the current cube array for the rendering collaborator.
func (g *Generator) Cubes() []Cube { return g.cubes }

// ConsumeDataChanged reports whether Generate() produced new data since the
// last call, resetting the flag — a one-shot pull matching spec.md §4.6's
// "signal data changed to the renderer".
func (g *Generator) ConsumeDataChanged() bool {
	changed := g.dataChanged
	g.dataChanged = false
	return changed
}

// Generate reallocates the grids if dirty (or if the simulation space
// changed underneath it), then runs the density and vertex passes.
func (g *Generator) Generate() {
	space := g.source.SimulationSpace()
	if g.dirty || space != g.space {
		g.reallocate(space)
	} else {
		for i := range g.density {
			g.density[i] = 0
		}
	}

	views := g.source.Particles()
	positions := make([]mgl32.Vec3, len(views))
	for i, v := range views {
		positions[i] = v.Position
	}

	g.estimateDensity(positions)
	g.computeVertexValues()
	g.dataChanged = true
}

func (g *Generator) reallocate(space geom.Cuboid) {
	g.space = space
	g.dirty = false

	extent := space.Extent()
	nx := ceilDiv(extent.X(), g.edgeLength)
	ny := ceilDiv(extent.Y(), g.edgeLength)
	nz := ceilDiv(extent.Z(), g.edgeLength)

	g.deNx, g.deNy, g.deNz = nx+2, ny+2, nz+2
	g.deMin = space.Min.Sub(mgl32.Vec3{g.edgeLength, g.edgeLength, g.edgeLength})

	numDE := g.deNx * g.deNy * g.deNz
	g.density = make([]int32, numDE)
	g.densityMu = make([]sync.Mutex, numDE)

	g.mcNx, g.mcNy, g.mcNz = nx+1, ny+1, nz+1
	numMC := g.mcNx * g.mcNy * g.mcNz
	g.cubes = make([]Cube, numMC)

	g.pool.ForRange(numMC, func(start, end int) {
		for i := start; i < end; i++ {
			ix, iy, iz := g.unflattenMC(i)
			g.cubes[i].MinCorner = g.deMin.Add(mgl32.Vec3{
				(float32(ix) + 0.5) * g.edgeLength,
				(float32(iy) + 0.5) * g.edgeLength,
				(float32(iz) + 0.5) * g.edgeLength,
			})
		}
	})
}

func ceilDiv(extent, edge float32) int {
	if edge <= 0 {
		return 1
	}
	n := extent / edge
	i := int(n)
	if float32(i) < n {
		i++
	}
	if i < 1 {
		i = 1
	}
	return i
}

// densityIndex returns the flat density-grid index for a density-cell
// coordinate, Y-major to match spatial.Grid's convention, or -1 if out of
// bounds.
func (g *Generator) densityIndex(ix, iy, iz int) int {
	if ix < 0 || ix >= g.deNx || iy < 0 || iy >= g.deNy || iz < 0 || iz >= g.deNz {
		return -1
	}
	return iy + ix*g.deNy + iz*g.deNx*g.deNy
}

func (g *Generator) densityCellOf(pos mgl32.Vec3) (ix, iy, iz int, ok bool) {
	local := pos.Sub(g.deMin)
	ix = int(local.X() / g.edgeLength)
	iy = int(local.Y() / g.edgeLength)
	iz = int(local.Z() / g.edgeLength)
	if ix < 0 || ix >= g.deNx || iy < 0 || iy >= g.deNy || iz < 0 || iz >= g.deNz {
		return 0, 0, 0, false
	}
	return ix, iy, iz, true
}

func (g *Generator) unflattenMC(i int) (ix, iy, iz int) {
	iz = i / (g.mcNx * g.mcNy)
	rem := i % (g.mcNx * g.mcNy)
	ix = rem / g.mcNy
	iy = rem % g.mcNy
	return
}

// estimateDensity bucket-counts particles into the density grid
// (parallelForRange over particles, per-cell mutex), per spec.md §4.6.1.
func (g *Generator) estimateDensity(positions []mgl32.Vec3) {
	g.pool.ForRange(len(positions), func(start, end int) {
		for i := start; i < end; i++ {
			ix, iy, iz, ok := g.densityCellOf(positions[i])
			if !ok {
				continue
			}
			key := g.densityIndex(ix, iy, iz)
			g.densityMu[key].Lock()
			g.density[key]++
			g.densityMu[key].Unlock()
		}
	})
}

// computeVertexValues samples each cube's 8 corners from the density grid
// (parallelForRange over cubes), per spec.md §4.6.2. Every MC cube lies
// fully inside the density grid by construction (mcDim = deDim - 1), so
// every corner lookup is in-bounds.
func (g *Generator) computeVertexValues() {
	g.pool.ForRange(len(g.cubes), func(start, end int) {
		for i := start; i < end; i++ {
			ix, iy, iz := g.unflattenMC(i)
			cube := &g.cubes[i]

			base := g.densityIndex(ix, iy, iz)
			cube.NumberOfParticles = g.density[base]

			for c, off := range cornerOffsets {
				idx := g.densityIndex(ix+off[0], iy+off[1], iz+off[2])
				cube.Corners[c] = g.density[idx]
			}
		}
	})
}
