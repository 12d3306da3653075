package ui

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Clean Code", 20, "Clean Code"},
		{"Agile software development", 10, "Agile s..."},
		{"Crime and punishment", 3, "Cri"},
		{"Преступление и наказание", 8, "Прест..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestRenderBorn(t *testing.T) {
	year := 1952
	if got := RenderBorn(&year); got != "1952" {
		t.Errorf("RenderBorn(1952) = %q", got)
	}
	if got := RenderBorn(nil); !strings.Contains(got, "-") {
		t.Errorf("RenderBorn(nil) = %q, want dash", got)
	}
}

func TestTable(t *testing.T) {
	out := Table(
		[]Column{{Title: "NAME", Width: 20}, {Title: "BOOKS"}},
		[][]string{{"Robert Martin", "2"}, {"Martin Fowler", "1"}},
	)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Table() has %d lines, want 4:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "NAME") || !strings.Contains(lines[0], "BOOKS") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[2], "Robert Martin") {
		t.Errorf("first row = %q", lines[2])
	}
}
