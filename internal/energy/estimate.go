// Package energy converts token counts into energy and electricity cost.
package energy

import (
	"github.com/theirongolddev/wattwatch/internal/config"
	"github.com/theirongolddev/wattwatch/internal/model"
)

// CacheFactor is the share of the input rate charged for cache reads
// and cache writes.
const CacheFactor = 0.5

const tokensPerProfileUnit = 1_000_000

// Resolver maps a model id to its energy profile.
type Resolver interface {
	Resolve(modelID string) config.EnergyProfile
}

// Breakdown holds energy split by token class, in Wh.
type Breakdown struct {
	Input      float64
	Output     float64
	Reasoning  float64
	CacheRead  float64
	CacheWrite float64
}

// Total returns the summed energy of all classes.
func (b Breakdown) Total() float64 {
	return b.Input + b.Output + b.Reasoning + b.CacheRead + b.CacheWrite
}

// Result is an energy estimate and its cost at a given electricity rate.
type Result struct {
	EnergyWh  float64
	Cost      float64
	Breakdown Breakdown
}

// Estimate computes the energy used by tokens on modelID and its cost at
// rate (currency units per kWh). Inputs are not validated: callers pass
// non-negative counts and a positive rate.
func Estimate(r Resolver, tokens model.TokenCount, modelID string, rate float64) Result {
	return EstimateProfile(r.Resolve(modelID), tokens, rate)
}

// EstimateProfile is Estimate with an already-resolved profile.
func EstimateProfile(p config.EnergyProfile, tokens model.TokenCount, rate float64) Result {
	b := Breakdown{
		Input:      float64(tokens.Input) * p.Input / tokensPerProfileUnit,
		Output:     float64(tokens.Output) * p.Output / tokensPerProfileUnit,
		Reasoning:  float64(tokens.Reasoning) * p.Reasoning / tokensPerProfileUnit,
		CacheRead:  float64(tokens.CacheRead) * p.Input * CacheFactor / tokensPerProfileUnit,
		CacheWrite: float64(tokens.CacheWrite) * p.Input * CacheFactor / tokensPerProfileUnit,
	}

	energyWh := b.Total()
	return Result{
		EnergyWh:  energyWh,
		Cost:      energyWh / 1000 * rate,
		Breakdown: b,
	}
}
