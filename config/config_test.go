package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Physics.ParticleMass <= 0 {
		t.Fatalf("expected positive particle mass, got %v", cfg.Physics.ParticleMass)
	}
	if cfg.Derived.KernelRadius != cfg.Physics.InitialSpacing*KernelRadiusRatio {
		t.Fatalf("derived kernel radius not computed: %v", cfg.Derived.KernelRadius)
	}
	if cfg.NumThreads < MinThreads || cfg.NumThreads > MaxThreads {
		t.Fatalf("default thread count out of bounds: %v", cfg.NumThreads)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user.yaml")
	content := []byte("physics:\n  gas_constant: 0.5\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Physics.GasConstant != 0.5 {
		t.Fatalf("expected override gas constant 0.5, got %v", cfg.Physics.GasConstant)
	}
	// Fields absent from the override file retain their embedded default.
	if cfg.Physics.ParticleMass == 0 {
		t.Fatalf("expected particle mass to retain default")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Physics.GasConstant = 0.77

	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Physics.GasConstant != 0.77 {
		t.Fatalf("round trip lost gas constant: %v", reloaded.Physics.GasConstant)
	}
}

func TestClampThreads(t *testing.T) {
	if got := ClampThreads(0); got != MinThreads {
		t.Fatalf("expected clamp to MinThreads, got %v", got)
	}
	if got := ClampThreads(99); got != MaxThreads {
		t.Fatalf("expected clamp to MaxThreads, got %v", got)
	}
	if got := ClampThreads(3); got != 3 {
		t.Fatalf("expected in-range value preserved, got %v", got)
	}
}
