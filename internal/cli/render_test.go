package cli

import (
	"strings"
	"testing"
)

func TestRenderTable_ContainsCells(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Profiles",
		Headers: []string{"Model", "Input"},
		Rows: [][]string{
			{"claude-sonnet", "20"},
			{"---"},
			{"claude-opus", "50"},
		},
	})

	for _, want := range []string{"Profiles", "Model", "Input", "claude-sonnet", "claude-opus", "50"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Count(out, "\n"); lines != 8 {
		t.Errorf("table has %d lines, want 8:\n%s", lines, out)
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if out := RenderTable(Table{}); out != "" {
		t.Fatalf("RenderTable(empty) = %q, want empty", out)
	}
}

func TestRenderNotice(t *testing.T) {
	out := RenderNotice("s1", "Energy: ~0.12 Wh")
	if !strings.Contains(out, "s1") || !strings.Contains(out, "Energy: ~0.12 Wh") {
		t.Fatalf("RenderNotice = %q", out)
	}
}
