// Package model defines domain types for wattwatch sessions and host events.
package model

import "time"

// TokenCount holds cumulative token counts by class.
type TokenCount struct {
	Input      int64 `json:"input"`
	Output     int64 `json:"output"`
	Reasoning  int64 `json:"reasoning"`
	CacheRead  int64 `json:"cache_read"`
	CacheWrite int64 `json:"cache_write"`
}

// Total returns the sum of all five token classes.
func (t TokenCount) Total() int64 {
	return t.Input + t.Output + t.Reasoning + t.CacheRead + t.CacheWrite
}

// Add returns the field-wise sum of t and d.
func (t TokenCount) Add(d TokenCount) TokenCount {
	return TokenCount{
		Input:      t.Input + d.Input,
		Output:     t.Output + d.Output,
		Reasoning:  t.Reasoning + d.Reasoning,
		CacheRead:  t.CacheRead + d.CacheRead,
		CacheWrite: t.CacheWrite + d.CacheWrite,
	}
}

// IsZero reports whether every class is zero.
func (t TokenCount) IsZero() bool {
	return t == TokenCount{}
}

// SessionStats holds the running energy estimate for one host session.
type SessionStats struct {
	SessionID string     `json:"session_id"`
	Tokens    TokenCount `json:"tokens"`
	ModelID   string     `json:"model_id"`
	EnergyWh  float64    `json:"energy_wh"`
	Cost      float64    `json:"cost"`
	Updates   int        `json:"updates"`
	StartedAt time.Time  `json:"started_at"`
	UpdatedAt time.Time  `json:"updated_at,omitzero"`
}

// MergeModelID applies last-non-empty-wins: a non-empty incoming id
// replaces current, an empty one keeps it.
func MergeModelID(current, incoming string) string {
	if incoming != "" {
		return incoming
	}
	return current
}
