package model

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Host event types.
const (
	EventSessionCreated = "session.created"
	EventMessageUpdated = "message.updated"
	EventSessionIdle    = "session.idle"
	EventSessionDeleted = "session.deleted"
)

// RoleAssistant is the only message role that carries billable tokens.
const RoleAssistant = "assistant"

// Event is one lifecycle event as emitted by the host.
type Event struct {
	Type    string       `json:"type"`
	Session EventSession `json:"session"`
	Message *Message     `json:"message,omitempty"`
}

// EventSession identifies the session an event belongs to.
type EventSession struct {
	ID string `json:"id"`
}

// Message is the message payload of a message.updated event.
type Message struct {
	Role    string         `json:"role"`
	ModelID string         `json:"modelID,omitempty"`
	Tokens  *MessageTokens `json:"tokens,omitempty"`
}

// MessageTokens mirrors the host's token payload. Any field may be absent.
type MessageTokens struct {
	Input     *int64        `json:"input,omitempty"`
	Output    *int64        `json:"output,omitempty"`
	Reasoning *int64        `json:"reasoning,omitempty"`
	Cache     *MessageCache `json:"cache,omitempty"`
}

// MessageCache holds cache token counts.
type MessageCache struct {
	Read  *int64 `json:"read,omitempty"`
	Write *int64 `json:"write,omitempty"`
}

// Count converts the payload to a TokenCount. Absent and negative
// fields count as zero.
func (m MessageTokens) Count() TokenCount {
	tc := TokenCount{
		Input:     nonNegative(m.Input),
		Output:    nonNegative(m.Output),
		Reasoning: nonNegative(m.Reasoning),
	}
	if m.Cache != nil {
		tc.CacheRead = nonNegative(m.Cache.Read)
		tc.CacheWrite = nonNegative(m.Cache.Write)
	}
	return tc
}

func nonNegative(v *int64) int64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

// ParseEvent decodes a single JSON event.
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("decoding event: %w", err)
	}
	if ev.Type == "" {
		return ev, fmt.Errorf("decoding event: missing type")
	}
	return ev, nil
}

// ReadEvents decodes newline-delimited events from r and calls fn for
// each, in order. Blank lines are skipped. Decoding stops at the first
// malformed line or the first error from fn.
func ReadEvents(r io.Reader, fn func(Event) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256*1024), 2*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		ev, err := ParseEvent(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
		if err := fn(ev); err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading events: %w", err)
	}
	return nil
}

// Tokens builds a MessageTokens payload from plain counts.
func Tokens(input, output, reasoning, cacheRead, cacheWrite int64) *MessageTokens {
	return &MessageTokens{
		Input:     &input,
		Output:    &output,
		Reasoning: &reasoning,
		Cache:     &MessageCache{Read: &cacheRead, Write: &cacheWrite},
	}
}
