package model

import (
	"errors"
	"strings"
	"testing"
)

func TestParseEvent_MessageUpdated(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"type":"message.updated","session":{"id":"s1"},
		"message":{"role":"assistant","modelID":"claude-sonnet",
		"tokens":{"input":1000,"output":500,"reasoning":100,"cache":{"read":200,"write":50}}}}`))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}

	if ev.Type != EventMessageUpdated || ev.Session.ID != "s1" {
		t.Fatalf("header = %q/%q", ev.Type, ev.Session.ID)
	}
	if ev.Message == nil || ev.Message.Tokens == nil {
		t.Fatal("message tokens not decoded")
	}
	if ev.Message.Role != RoleAssistant || ev.Message.ModelID != "claude-sonnet" {
		t.Errorf("message = %+v", ev.Message)
	}

	want := TokenCount{Input: 1000, Output: 500, Reasoning: 100, CacheRead: 200, CacheWrite: 50}
	if got := ev.Message.Tokens.Count(); got != want {
		t.Errorf("Count() = %+v, want %+v", got, want)
	}
}

func TestParseEvent_PartialTokens(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"type":"message.updated","session":{"id":"s1"},
		"message":{"role":"assistant","tokens":{"output":7}}}`))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}

	if got := ev.Message.Tokens.Count(); got != (TokenCount{Output: 7}) {
		t.Fatalf("Count() = %+v, want only Output=7", got)
	}
}

func TestParseEvent_Errors(t *testing.T) {
	for _, raw := range []string{`{`, `{"session":{"id":"s1"}}`} {
		if _, err := ParseEvent([]byte(raw)); err == nil {
			t.Errorf("ParseEvent(%s) succeeded, want error", raw)
		}
	}
}

func TestMessageTokensCount_ClampsNegative(t *testing.T) {
	neg := int64(-10)
	mt := MessageTokens{Input: &neg, Cache: &MessageCache{Read: &neg}}
	if got := mt.Count(); !got.IsZero() {
		t.Fatalf("Count() = %+v, want zero", got)
	}
}

func TestTokensHelper(t *testing.T) {
	got := Tokens(1, 2, 3, 4, 5).Count()
	want := TokenCount{Input: 1, Output: 2, Reasoning: 3, CacheRead: 4, CacheWrite: 5}
	if got != want {
		t.Fatalf("Tokens(...).Count() = %+v, want %+v", got, want)
	}
}

func TestReadEvents(t *testing.T) {
	input := `{"type":"session.created","session":{"id":"s1"}}

{"type":"message.updated","session":{"id":"s1"},"message":{"role":"assistant","tokens":{"output":10}}}
{"type":"session.idle","session":{"id":"s1"}}
`
	var types []string
	err := ReadEvents(strings.NewReader(input), func(ev Event) error {
		types = append(types, ev.Type)
		return nil
	})
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}

	want := []string{EventSessionCreated, EventMessageUpdated, EventSessionIdle}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("types = %v, want %v", types, want)
	}
}

func TestReadEvents_StopsAtMalformedLine(t *testing.T) {
	input := "{\"type\":\"session.created\",\"session\":{\"id\":\"s1\"}}\n{oops\n{\"type\":\"session.idle\"}\n"

	seen := 0
	err := ReadEvents(strings.NewReader(input), func(Event) error {
		seen++
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("err = %v, want line 2 error", err)
	}
	if seen != 1 {
		t.Fatalf("seen = %d, want 1", seen)
	}
}

func TestReadEvents_PropagatesCallbackError(t *testing.T) {
	errStop := errors.New("stop")
	err := ReadEvents(strings.NewReader(`{"type":"session.idle","session":{"id":"s1"}}`),
		func(Event) error { return errStop })
	if !errors.Is(err, errStop) {
		t.Fatalf("err = %v, want wrapped errStop", err)
	}
}
