package main

import (
	"os"
	"path/filepath"
	"testing"

	"servd/internal/config"
)

// execServe runs the serve command with the run function stubbed out,
// returning the config it would have served with.
func execServe(t *testing.T, args ...string) config.Config {
	t.Helper()
	var got config.Config
	orig := runServeFn
	runServeFn = func(cfg config.Config, verbose bool) error {
		got = cfg
		return nil
	}
	t.Cleanup(func() { runServeFn = orig })

	cmd := serveCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("serve %v: %v", args, err)
	}
	return got
}

func TestServe_GPULayers(t *testing.T) {
	// Explicit 0 is CPU-only and must reach the launch config as 0.
	cfg := execServe(t, "--model-path", "/m/a.gguf", "--gpu-layers", "0")
	if cfg.GPULayers == nil || *cfg.GPULayers != 0 {
		t.Fatalf("--gpu-layers 0 not honored: %+v", cfg.GPULayers)
	}

	// Unset falls back to offloading everything.
	cfg = execServe(t, "--model-path", "/m/a.gguf")
	if cfg.GPULayers == nil || *cfg.GPULayers != -1 {
		t.Fatalf("default gpu layers = %+v, want -1", cfg.GPULayers)
	}

	cfg = execServe(t, "--model-path", "/m/a.gguf", "--gpu-layers", "12")
	if cfg.GPULayers == nil || *cfg.GPULayers != 12 {
		t.Fatalf("--gpu-layers 12 not honored: %+v", cfg.GPULayers)
	}
}

func TestServe_FlagBeatsFile(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "cfg.yaml")
	if err := os.WriteFile(p, []byte("model_path: /m/file.gguf\nport: 9100\ngpu_layers: 7\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := execServe(t, "--config", p, "--gpu-layers", "0", "--port", "9200")
	if cfg.ModelPath != "/m/file.gguf" {
		t.Fatalf("model_path from file not applied: %q", cfg.ModelPath)
	}
	if cfg.Port != 9200 {
		t.Fatalf("port flag must beat the file, got %d", cfg.Port)
	}
	if cfg.GPULayers == nil || *cfg.GPULayers != 0 {
		t.Fatalf("gpu-layers flag must beat the file, got %+v", cfg.GPULayers)
	}
}

func TestServe_ModelPathRequired(t *testing.T) {
	cmd := serveCmd()
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error without --model-path")
	}
}
