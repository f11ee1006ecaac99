// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package detect probes the host hardware for the setup flow.
//
// Detection is best-effort: every probe that fails leaves its field at a
// safe fallback ("unknown", zero) and the profile is always returned.
// Setup continues regardless of what is or is not found here.
package detect

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// probeTimeout bounds every external detection command.
const probeTimeout = 10 * time.Second

// =============================================================================
// HARDWARE PROFILE
// =============================================================================

// GpuInfo describes a detected GPU.
type GpuInfo struct {
	// Name of the GPU (e.g., "NVIDIA RTX 4090")
	Name string `json:"name"`
	// VramGB is the available VRAM in gigabytes
	VramGB int `json:"vram_gb"`
	// Vendor is "nvidia", "amd", "apple" or "unknown"
	Vendor string `json:"vendor"`
}

func (g *GpuInfo) String() string {
	return fmt.Sprintf("%s (%dGB VRAM)", g.Name, g.VramGB)
}

// Profile is a snapshot of the host hardware relevant to running
// local models.
type Profile struct {
	OS       string   `json:"os"`
	Arch     string   `json:"arch"`
	CPUModel string   `json:"cpu_model"`
	CPUCores int      `json:"cpu_cores"`
	RAMGB    int      `json:"ram_gb"`
	GPU      *GpuInfo `json:"gpu,omitempty"`
}

// HasGPU reports whether a dedicated GPU was found.
func (p *Profile) HasGPU() bool {
	return p.GPU != nil
}

func (p *Profile) String() string {
	gpu := "none"
	if p.GPU != nil {
		gpu = p.GPU.String()
	}
	return fmt.Sprintf("%s/%s, %d cores, %dGB RAM, GPU: %s", p.OS, p.Arch, p.CPUCores, p.RAMGB, gpu)
}

// =============================================================================
// PROBING
// =============================================================================

// runner executes an external command and returns its stdout. Swappable
// in tests.
type runner func(ctx context.Context, name string, args ...string) (string, error)

func execRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	return string(out), err
}

// Prober collects the hardware profile.
type Prober struct {
	run      runner
	procMem  string
	procCPU  string
	lookPath func(string) (string, error)
}

// Option configures a Prober.
type Option func(*Prober)

// WithRunner replaces the external command runner.
func WithRunner(r runner) Option {
	return func(p *Prober) { p.run = r }
}

// WithProcFiles overrides the /proc file paths read on Linux.
func WithProcFiles(meminfo, cpuinfo string) Option {
	return func(p *Prober) {
		p.procMem = meminfo
		p.procCPU = cpuinfo
	}
}

// WithLookPath replaces the executable lookup used for tool probes.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(p *Prober) { p.lookPath = fn }
}

// NewProber returns a Prober with OS defaults.
func NewProber(opts ...Option) *Prober {
	p := &Prober{
		run:      execRunner,
		procMem:  "/proc/meminfo",
		procCPU:  "/proc/cpuinfo",
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe gathers the hardware profile. It never fails: fields that cannot
// be determined are left at their fallback values.
func (p *Prober) Probe(ctx context.Context) *Profile {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, probeTimeout)
		defer cancel()
	}

	profile := &Profile{
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		CPUModel: "unknown",
		CPUCores: runtime.NumCPU(),
	}

	if model := p.cpuModel(); model != "" {
		profile.CPUModel = model
	}
	profile.RAMGB = p.totalRAMGB()
	profile.GPU = p.detectGPU(ctx)

	return profile
}

// cpuModel reads the CPU model name from /proc/cpuinfo.
func (p *Prober) cpuModel() string {
	f, err := os.Open(p.procCPU)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "model name") {
			if _, value, ok := strings.Cut(line, ":"); ok {
				return strings.TrimSpace(value)
			}
		}
	}
	return ""
}

// totalRAMGB reads MemTotal from /proc/meminfo, rounded to whole GB.
func (p *Prober) totalRAMGB() int {
	f, err := os.Open(p.procMem)
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return int((kb + 512*1024) / (1024 * 1024))
	}
	return 0
}
