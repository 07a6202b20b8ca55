package geom

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestContainsPoint(t *testing.T) {
	c := NewCuboid(-1, 1, -1, 1, -1, 1)
	if !c.ContainsPoint(mgl32.Vec3{0, 0, 0}) {
		t.Fatal("expected origin to be contained")
	}
	if c.ContainsPoint(mgl32.Vec3{1.1, 0, 0}) {
		t.Fatal("expected point past x_max to be excluded")
	}
	if !c.ContainsPoint(mgl32.Vec3{1, 1, 1}) {
		t.Fatal("expected max corner to be contained (closed interval)")
	}
}

func TestContainsCuboid(t *testing.T) {
	space := NewCuboid(-1, 1, -1, 1, -1, 1)
	inner := NewCuboid(-0.5, 0.5, -0.5, 0.5, -0.5, 0.5)
	escaping := NewCuboid(-0.5, 1.5, -0.5, 0.5, -0.5, 0.5)

	if !space.ContainsCuboid(inner) {
		t.Fatal("expected inner cuboid to be contained")
	}
	if space.ContainsCuboid(escaping) {
		t.Fatal("expected escaping cuboid to be rejected")
	}
}

func TestVolumeAndCenter(t *testing.T) {
	c := NewCuboid(0, 2, 0, 4, 0, 1)
	if v := c.Volume(); v != 8 {
		t.Fatalf("expected volume 8, got %v", v)
	}
	if center := c.Center(); center != (mgl32.Vec3{1, 2, 0.5}) {
		t.Fatalf("unexpected center %v", center)
	}
}

func TestGenerateParticlesInsetAndContained(t *testing.T) {
	c := NewCuboid(-0.5, 0.5, -0.5, 0.5, -0.5, 0.5)
	d := float32(0.064)
	positions := c.GenerateParticles(d)

	if len(positions) == 0 {
		t.Fatal("expected generated particles")
	}
	for _, p := range positions {
		if !c.ContainsPoint(p) {
			t.Fatalf("generated particle %v escapes cuboid", p)
		}
		// Must be inset by at least d/2 from every face.
		if p.X() < c.Min.X()+d/2-1e-6 || p.X() > c.Max.X()-d/2+1e-6 {
			t.Fatalf("particle %v not inset on X", p)
		}
	}
}

func TestGenerateParticlesInvalidSpacing(t *testing.T) {
	c := NewCuboid(-1, 1, -1, 1, -1, 1)
	if positions := c.GenerateParticles(0); positions != nil {
		t.Fatalf("expected nil for non-positive spacing, got %v", positions)
	}
}
