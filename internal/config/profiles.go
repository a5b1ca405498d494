package config

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/theirongolddev/wattwatch/internal/logger"
)

// EnergyProfile holds per-million-token energy draw for a model, in Wh.
type EnergyProfile struct {
	Input     float64 `toml:"input"`
	Output    float64 `toml:"output"`
	Reasoning float64 `toml:"reasoning"`
}

// DefaultProfiles maps model base names to their energy profiles.
// Rates approximate datacenter GPU draw for inference.
var DefaultProfiles = map[string]EnergyProfile{
	"claude-opus":   {Input: 50, Output: 500, Reasoning: 500},
	"claude-sonnet": {Input: 20, Output: 200, Reasoning: 200},
	"claude-haiku":  {Input: 5, Output: 50, Reasoning: 50},
	"gpt-4":         {Input: 50, Output: 500, Reasoning: 500},
	"gpt-4o":        {Input: 20, Output: 200, Reasoning: 200},
	"gpt-4o-mini":   {Input: 5, Output: 50, Reasoning: 50},
	"gemini-pro":    {Input: 20, Output: 200, Reasoning: 200},
}

// FallbackProfile is used when a model id matches no registry entry.
var FallbackProfile = EnergyProfile{Input: 20, Output: 200, Reasoning: 200}

// Registry resolves model identifiers to energy profiles.
// It is read-only after construction and safe for concurrent use.
type Registry struct {
	profiles map[string]EnergyProfile
	// keys ordered longest first so more specific names win the fuzzy pass
	keys []string
	log  *zap.Logger
}

// NewRegistry builds a registry over profiles. Keys are lowercased.
// A nil logger discards fallback warnings.
func NewRegistry(profiles map[string]EnergyProfile, log *zap.Logger) *Registry {
	r := &Registry{
		profiles: make(map[string]EnergyProfile, len(profiles)),
		log:      logger.OrNop(log),
	}
	for name, p := range profiles {
		r.profiles[strings.ToLower(name)] = p
	}

	r.keys = make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		r.keys = append(r.keys, name)
	}
	sort.Slice(r.keys, func(i, j int) bool {
		if len(r.keys[i]) != len(r.keys[j]) {
			return len(r.keys[i]) > len(r.keys[j])
		}
		return r.keys[i] < r.keys[j]
	})

	return r
}

// DefaultRegistry returns a registry over DefaultProfiles.
func DefaultRegistry(log *zap.Logger) *Registry {
	return NewRegistry(DefaultProfiles, log)
}

// Resolve returns the profile for modelID. It never fails: unknown ids
// get a copy of FallbackProfile and a warning.
//
// Matching is exact first, then fuzzy: a key matches when each of its
// hyphen-separated parts appears among the parts of the id, e.g.
// "claude-3-5-sonnet-20241022" -> "claude-sonnet".
func (r *Registry) Resolve(modelID string) EnergyProfile {
	if p, ok := r.Lookup(modelID); ok {
		return p
	}

	r.log.Warn("unknown model, using fallback energy profile",
		zap.String("model", modelID),
	)
	return FallbackProfile
}

// Lookup is Resolve without the fallback: it reports whether modelID
// matched a registry entry, and logs nothing.
func (r *Registry) Lookup(modelID string) (EnergyProfile, bool) {
	name, ok := r.Match(modelID)
	if !ok {
		return EnergyProfile{}, false
	}
	return r.profiles[name], true
}

// Match returns the registry key modelID resolves to.
func (r *Registry) Match(modelID string) (string, bool) {
	normalized := strings.ToLower(modelID)
	if _, ok := r.profiles[normalized]; ok {
		return normalized, true
	}

	parts := strings.Split(normalized, "-")
	for _, key := range r.keys {
		if containsAllParts(parts, strings.Split(key, "-")) {
			return key, true
		}
	}
	return "", false
}

// Models returns the registered model names in alphabetical order.
func (r *Registry) Models() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	sort.Strings(out)
	return out
}

func containsAllParts(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ProfileOverride is a [profiles.<model>] table from the config file.
// Unset classes keep the value of the profile being overridden.
type ProfileOverride struct {
	Input     *float64 `toml:"input,omitempty"`
	Output    *float64 `toml:"output,omitempty"`
	Reasoning *float64 `toml:"reasoning,omitempty"`
}

// Apply layers the set fields of o over base.
func (o ProfileOverride) Apply(base EnergyProfile) EnergyProfile {
	if o.Input != nil {
		base.Input = *o.Input
	}
	if o.Output != nil {
		base.Output = *o.Output
	}
	if o.Reasoning != nil {
		base.Reasoning = *o.Reasoning
	}
	return base
}

// Validate reports the first class that is negative or not finite.
func (o ProfileOverride) Validate() error {
	fields := []struct {
		name string
		v    *float64
	}{
		{"input", o.Input},
		{"output", o.Output},
		{"reasoning", o.Reasoning},
	}
	for _, f := range fields {
		if f.v == nil {
			continue
		}
		if *f.v < 0 || math.IsNaN(*f.v) || math.IsInf(*f.v, 0) {
			return fmt.Errorf("%s must be a non-negative number, got %v", f.name, *f.v)
		}
	}
	return nil
}

// MergeProfiles returns base with overrides layered on top. An override
// applies to the profile its name resolves to in base (exact or fuzzy),
// or to FallbackProfile for a new model. Invalid overrides are logged at
// error level and skipped. Keys are lowercased; base is not modified.
func MergeProfiles(base map[string]EnergyProfile, overrides map[string]ProfileOverride, log *zap.Logger) map[string]EnergyProfile {
	log = logger.OrNop(log)
	baseReg := NewRegistry(base, nil)

	merged := make(map[string]EnergyProfile, len(base)+len(overrides))
	for name, p := range base {
		merged[strings.ToLower(name)] = p
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		o := overrides[name]
		if err := o.Validate(); err != nil {
			log.Error("invalid profile override, ignoring it",
				zap.String("model", name),
				zap.Error(err),
			)
			continue
		}
		p, ok := baseReg.Lookup(name)
		if !ok {
			p = FallbackProfile
		}
		merged[strings.ToLower(name)] = o.Apply(p)
	}
	return merged
}
