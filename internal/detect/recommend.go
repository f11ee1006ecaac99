// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package detect

// Recommendation summarizes what the detected hardware can run locally.
type Recommendation struct {
	// LocalCapable is true when the host can run a useful local model.
	LocalCapable bool `json:"local_capable"`
	// Model is the suggested Ollama model tag, empty when not local-capable.
	Model string `json:"model,omitempty"`
	// Reason is a short human-readable explanation.
	Reason string `json:"reason"`
}

// modelTier maps a minimum VRAM figure to a suggested coding model.
// Ordered largest first; the first tier the hardware clears wins.
var modelTiers = []struct {
	minVramGB int
	model     string
}{
	{20, "qwen2.5-coder:32b"},
	{12, "qwen2.5-coder:14b"},
	{6, "qwen2.5-coder:7b"},
	{4, "qwen2.5-coder:3b"},
}

// cpuOnlyMinRAMGB is the minimum RAM to bother with CPU inference.
const cpuOnlyMinRAMGB = 16

// Recommend picks a local model for the profile, or explains why cloud
// is the better fit.
func Recommend(p *Profile) Recommendation {
	if p.HasGPU() {
		for _, tier := range modelTiers {
			if p.GPU.VramGB >= tier.minVramGB {
				return Recommendation{
					LocalCapable: true,
					Model:        tier.model,
					Reason:       p.GPU.String(),
				}
			}
		}
		return Recommendation{
			Reason: "GPU found but VRAM is too small for local models",
		}
	}

	if p.RAMGB >= cpuOnlyMinRAMGB {
		return Recommendation{
			LocalCapable: true,
			Model:        "qwen2.5-coder:3b",
			Reason:       "no GPU, small model on CPU",
		}
	}
	return Recommendation{
		Reason: "no GPU and limited RAM, cloud providers recommended",
	}
}
