package energy

import (
	"math"
	"testing"

	"github.com/theirongolddev/wattwatch/internal/config"
	"github.com/theirongolddev/wattwatch/internal/model"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestEstimate_Basic(t *testing.T) {
	r := config.DefaultRegistry(nil)
	tokens := model.TokenCount{Input: 1000, Output: 500}

	res := Estimate(r, tokens, "claude-sonnet", 0.25)

	// 1000*20/1e6 + 500*200/1e6 = 0.02 + 0.1
	if !approx(res.EnergyWh, 0.12, 1e-12) {
		t.Errorf("EnergyWh = %v, want 0.12", res.EnergyWh)
	}
	if !approx(res.Cost, 0.00003, 1e-12) {
		t.Errorf("Cost = %v, want 0.00003", res.Cost)
	}
	if !approx(res.Breakdown.Input, 0.02, 1e-12) || !approx(res.Breakdown.Output, 0.1, 1e-12) {
		t.Errorf("Breakdown = %+v", res.Breakdown)
	}
}

func TestEstimate_ZeroTokens(t *testing.T) {
	r := config.DefaultRegistry(nil)
	for _, m := range []string{"claude-sonnet", "claude-opus", "unknown", ""} {
		for _, rate := range []float64{0.25, 1, 1000} {
			res := Estimate(r, model.TokenCount{}, m, rate)
			if res.EnergyWh != 0 || res.Cost != 0 {
				t.Errorf("Estimate(zero, %q, %v) = %+v, want exact zeros", m, rate, res)
			}
		}
	}
}

func TestEstimate_CacheIsHalfInputRate(t *testing.T) {
	r := config.DefaultRegistry(nil)

	normal := Estimate(r, model.TokenCount{Input: 1000}, "claude-sonnet", 0.25)
	read := Estimate(r, model.TokenCount{CacheRead: 1000}, "claude-sonnet", 0.25)
	write := Estimate(r, model.TokenCount{CacheWrite: 1000}, "claude-sonnet", 0.25)

	if read.EnergyWh != normal.EnergyWh*0.5 {
		t.Errorf("cache read = %v, want %v", read.EnergyWh, normal.EnergyWh*0.5)
	}
	if write.EnergyWh != read.EnergyWh {
		t.Errorf("cache write = %v, want %v", write.EnergyWh, read.EnergyWh)
	}
}

func TestEstimate_RateScaling(t *testing.T) {
	r := config.DefaultRegistry(nil)
	tokens := model.TokenCount{Input: 1000, Output: 500, Reasoning: 200, CacheRead: 100, CacheWrite: 50}

	one := Estimate(r, tokens, "claude-sonnet", 0.25)
	two := Estimate(r, tokens, "claude-sonnet", 0.5)

	if one.EnergyWh != two.EnergyWh {
		t.Errorf("energy depends on rate: %v vs %v", one.EnergyWh, two.EnergyWh)
	}
	if two.Cost != one.Cost*2 {
		t.Errorf("doubling rate: cost %v, want %v", two.Cost, one.Cost*2)
	}
}

func TestEstimate_AllClasses(t *testing.T) {
	r := config.DefaultRegistry(nil)
	tokens := model.TokenCount{Input: 1000, Output: 500, Reasoning: 200, CacheRead: 100, CacheWrite: 50}

	res := Estimate(r, tokens, "claude-sonnet", 0.25)

	// 0.02 + 0.1 + 0.04 + 0.001 + 0.0005
	if !approx(res.EnergyWh, 0.1615, 1e-12) {
		t.Fatalf("EnergyWh = %v, want 0.1615", res.EnergyWh)
	}
	if !approx(res.Breakdown.Total(), res.EnergyWh, 1e-15) {
		t.Fatalf("Breakdown total %v != EnergyWh %v", res.Breakdown.Total(), res.EnergyWh)
	}
}

func TestEstimate_ModelProfilesDiffer(t *testing.T) {
	r := config.DefaultRegistry(nil)
	tokens := model.TokenCount{Output: 1000}

	haiku := Estimate(r, tokens, "claude-haiku", 0.25)
	opus := Estimate(r, tokens, "claude-opus", 0.25)
	if opus.EnergyWh <= haiku.EnergyWh {
		t.Fatalf("opus %v should exceed haiku %v", opus.EnergyWh, haiku.EnergyWh)
	}
}

func TestEstimate_UnknownModelFallsBack(t *testing.T) {
	r := config.DefaultRegistry(nil)
	tokens := model.TokenCount{Input: 1000, Output: 500}

	unknown := Estimate(r, tokens, "unknown-model", 0.25)
	direct := EstimateProfile(config.FallbackProfile, tokens, 0.25)
	if unknown != direct {
		t.Fatalf("unknown = %+v, want fallback estimate %+v", unknown, direct)
	}
	if unknown.EnergyWh <= 0 || unknown.Cost <= 0 {
		t.Fatalf("fallback estimate not positive: %+v", unknown)
	}
}
