// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package detect

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func noTools(string) (string, error) {
	return "", errors.New("not found")
}

func TestProbe_NeverFails(t *testing.T) {
	// Every probe source is broken; the profile still comes back with
	// fallbacks filled in.
	p := NewProber(
		WithProcFiles("/nonexistent/meminfo", "/nonexistent/cpuinfo"),
		WithLookPath(noTools),
	)
	profile := p.Probe(context.Background())

	if profile.OS != runtime.GOOS {
		t.Errorf("OS = %q, want %q", profile.OS, runtime.GOOS)
	}
	if profile.CPUModel != "unknown" {
		t.Errorf("CPUModel = %q, want unknown", profile.CPUModel)
	}
	if profile.CPUCores <= 0 {
		t.Errorf("CPUCores = %d, want > 0", profile.CPUCores)
	}
	if profile.RAMGB != 0 {
		t.Errorf("RAMGB = %d, want 0 fallback", profile.RAMGB)
	}
	if profile.HasGPU() {
		t.Error("expected no GPU")
	}
}

func TestProbe_ReadsProcFiles(t *testing.T) {
	meminfo := writeFile(t, "meminfo", "MemTotal:       32610724 kB\nMemFree:        1000 kB\n")
	cpuinfo := writeFile(t, "cpuinfo", "processor\t: 0\nmodel name\t: AMD Ryzen 9 5950X 16-Core Processor\n")

	p := NewProber(WithProcFiles(meminfo, cpuinfo), WithLookPath(noTools))
	profile := p.Probe(context.Background())

	if profile.CPUModel != "AMD Ryzen 9 5950X 16-Core Processor" {
		t.Errorf("CPUModel = %q", profile.CPUModel)
	}
	if profile.RAMGB != 32 {
		t.Errorf("RAMGB = %d, want 32", profile.RAMGB)
	}
}

func TestDetectNvidia(t *testing.T) {
	run := func(_ context.Context, name string, _ ...string) (string, error) {
		if name != "nvidia-smi" {
			return "", errors.New("unexpected command")
		}
		return "NVIDIA GeForce RTX 4090, 24564\n", nil
	}
	lookPath := func(tool string) (string, error) {
		if tool == "nvidia-smi" {
			return "/usr/bin/nvidia-smi", nil
		}
		return "", errors.New("not found")
	}

	p := NewProber(WithRunner(run), WithLookPath(lookPath))
	gpu := p.detectNvidia(context.Background())
	if gpu == nil {
		t.Fatal("expected GPU")
	}
	if gpu.Name != "NVIDIA GeForce RTX 4090" {
		t.Errorf("Name = %q", gpu.Name)
	}
	if gpu.VramGB != 24 {
		t.Errorf("VramGB = %d, want 24", gpu.VramGB)
	}
	if gpu.Vendor != "nvidia" {
		t.Errorf("Vendor = %q", gpu.Vendor)
	}
}

func TestDetectNvidia_ToolMissing(t *testing.T) {
	p := NewProber(WithLookPath(noTools))
	if gpu := p.detectNvidia(context.Background()); gpu != nil {
		t.Errorf("expected nil, got %v", gpu)
	}
}

func TestDetectNvidia_GarbageOutput(t *testing.T) {
	run := func(context.Context, string, ...string) (string, error) {
		return "no devices were found", nil
	}
	lookPath := func(string) (string, error) { return "/usr/bin/nvidia-smi", nil }

	p := NewProber(WithRunner(run), WithLookPath(lookPath))
	if gpu := p.detectNvidia(context.Background()); gpu != nil {
		t.Errorf("expected nil, got %v", gpu)
	}
}

func TestDetectAmd(t *testing.T) {
	run := func(_ context.Context, name string, _ ...string) (string, error) {
		if name != "rocm-smi" {
			return "", errors.New("unexpected command")
		}
		return "GPU[0] : Card series: Radeon RX 7900 XTX\n" +
			"GPU[0] : VRAM Total Memory (B): 25753026560\n", nil
	}
	lookPath := func(tool string) (string, error) {
		if tool == "rocm-smi" {
			return "/usr/bin/rocm-smi", nil
		}
		return "", errors.New("not found")
	}

	p := NewProber(WithRunner(run), WithLookPath(lookPath))
	gpu := p.detectAmd(context.Background())
	if gpu == nil {
		t.Fatal("expected GPU")
	}
	if gpu.VramGB != 23 {
		t.Errorf("VramGB = %d, want 23", gpu.VramGB)
	}
	if gpu.Vendor != "amd" {
		t.Errorf("Vendor = %q", gpu.Vendor)
	}
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name        string
		profile     *Profile
		wantLocal   bool
		wantModel   string
	}{
		{
			name:      "big gpu",
			profile:   &Profile{GPU: &GpuInfo{Name: "RTX 4090", VramGB: 24}},
			wantLocal: true,
			wantModel: "qwen2.5-coder:32b",
		},
		{
			name:      "mid gpu",
			profile:   &Profile{GPU: &GpuInfo{Name: "RTX 4070", VramGB: 12}},
			wantLocal: true,
			wantModel: "qwen2.5-coder:14b",
		},
		{
			name:      "tiny gpu",
			profile:   &Profile{GPU: &GpuInfo{Name: "GT 1030", VramGB: 2}},
			wantLocal: false,
		},
		{
			name:      "cpu with plenty of ram",
			profile:   &Profile{RAMGB: 32},
			wantLocal: true,
			wantModel: "qwen2.5-coder:3b",
		},
		{
			name:      "cpu low ram",
			profile:   &Profile{RAMGB: 8},
			wantLocal: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Recommend(tt.profile)
			if rec.LocalCapable != tt.wantLocal {
				t.Errorf("LocalCapable = %v, want %v", rec.LocalCapable, tt.wantLocal)
			}
			if rec.Model != tt.wantModel {
				t.Errorf("Model = %q, want %q", rec.Model, tt.wantModel)
			}
			if rec.Reason == "" {
				t.Error("Reason is empty")
			}
		})
	}
}
