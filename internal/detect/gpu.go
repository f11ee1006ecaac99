// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package detect

import (
	"context"
	"runtime"
	"strconv"
	"strings"
)

// detectGPU checks for GPUs in vendor order: NVIDIA first (most common
// for local model workloads), then AMD, then Apple Silicon on macOS.
// Returns nil when no dedicated GPU is found.
func (p *Prober) detectGPU(ctx context.Context) *GpuInfo {
	if info := p.detectNvidia(ctx); info != nil {
		return info
	}
	if info := p.detectAmd(ctx); info != nil {
		return info
	}
	if runtime.GOOS == "darwin" {
		if info := p.detectAppleSilicon(ctx); info != nil {
			return info
		}
	}
	return nil
}

// detectNvidia queries nvidia-smi for the first GPU's name and VRAM.
func (p *Prober) detectNvidia(ctx context.Context) *GpuInfo {
	if _, err := p.lookPath("nvidia-smi"); err != nil {
		return nil
	}
	out, err := p.run(ctx, "nvidia-smi",
		"--query-gpu=name,memory.total", "--format=csv,noheader,nounits")
	if err != nil {
		return nil
	}

	// First line only; multi-GPU rigs report the primary device.
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	name, mem, ok := cutCSV(line)
	if !ok {
		return nil
	}

	vramMB, err := strconv.Atoi(strings.TrimSpace(mem))
	if err != nil {
		return nil
	}
	return &GpuInfo{
		Name:   strings.TrimSpace(name),
		VramGB: (vramMB + 512) / 1024,
		Vendor: "nvidia",
	}
}

// detectAmd queries rocm-smi for VRAM. Older rocm-smi versions print
// bytes, newer ones megabytes; both are handled.
func (p *Prober) detectAmd(ctx context.Context) *GpuInfo {
	if _, err := p.lookPath("rocm-smi"); err != nil {
		return nil
	}
	out, err := p.run(ctx, "rocm-smi", "--showproductname", "--showmeminfo", "vram")
	if err != nil {
		return nil
	}

	info := &GpuInfo{Name: "AMD GPU", Vendor: "amd"}
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.Contains(line, "Card series"):
			if _, value, ok := strings.Cut(line, ":"); ok {
				info.Name = strings.TrimSpace(value)
			}
		case strings.Contains(line, "VRAM Total Memory"):
			if _, value, ok := strings.Cut(line, ":"); ok {
				raw, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
				if err != nil {
					continue
				}
				if raw > 1<<32 {
					info.VramGB = int(raw >> 30)
				} else {
					info.VramGB = int((raw + 512) / 1024)
				}
			}
		}
	}
	if info.VramGB == 0 {
		return nil
	}
	return info
}

// detectAppleSilicon uses sysctl; Apple Silicon shares system memory
// with the GPU, so usable VRAM is reported as total RAM.
func (p *Prober) detectAppleSilicon(ctx context.Context) *GpuInfo {
	out, err := p.run(ctx, "sysctl", "-n", "machdep.cpu.brand_string")
	if err != nil {
		return nil
	}
	brand := strings.TrimSpace(out)
	if !strings.Contains(brand, "Apple") {
		return nil
	}

	memOut, err := p.run(ctx, "sysctl", "-n", "hw.memsize")
	if err != nil {
		return nil
	}
	bytes, err := strconv.ParseInt(strings.TrimSpace(memOut), 10, 64)
	if err != nil {
		return nil
	}
	return &GpuInfo{
		Name:   brand,
		VramGB: int(bytes >> 30),
		Vendor: "apple",
	}
}

func cutCSV(line string) (first, second string, ok bool) {
	return strings.Cut(line, ",")
}
