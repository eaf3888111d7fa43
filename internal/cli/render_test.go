package cli

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"blank defaults to svg", "  ", []string{"svg"}},
		{"single format", "dot", []string{"dot"}},
		{"multiple formats", "svg,png,json", []string{"svg", "png", "json"}},
		{"spaces and empties dropped", " svg, ,dot ,", []string{"svg", "dot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseFormats(tt.input); !slices.Equal(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		want   string
	}{
		{"derived from input", "", "plant/graph.json", "plant/graph"},
		{"input without extension", "", "graph", "graph"},
		{"format extension stripped", "out/plant.svg", "graph.json", "out/plant"},
		{"unknown extension kept", "out/plant.v2", "graph.json", "out/plant.v2"},
		{"plain base", "out/plant", "graph.json", "out/plant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basePath(tt.output, tt.input); got != tt.want {
				t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
			}
		})
	}
}

func TestWriteArtifacts(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "plant")
	artifacts := map[string][]byte{
		"svg": []byte("<svg/>"),
		"dot": []byte("digraph {}"),
	}

	paths, err := writeArtifacts(base, artifacts, []string{"svg", "png", "dot"})
	if err != nil {
		t.Fatalf("writeArtifacts: %v", err)
	}
	want := []string{base + ".svg", base + ".dot"}
	if !slices.Equal(paths, want) {
		t.Fatalf("paths = %v, want %v (formats without artifacts skipped)", paths, want)
	}
	data, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "digraph {}" {
		t.Errorf("dot content = %q", data)
	}
}

func TestStatsLine(t *testing.T) {
	tests := []struct {
		name    string
		dropped int
		cached  bool
		want    []string
		notWant []string
	}{
		{"fresh", 0, false, []string{"3 nodes", "2 edges", iconFresh}, []string{"dropped", iconCached}},
		{"cached with drops", 4, true, []string{"4 dropped", iconCached}, []string{iconFresh}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := statsLine(3, 2, tt.dropped, tt.cached)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("statsLine() = %q, missing %q", got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("statsLine() = %q, should not contain %q", got, w)
				}
			}
		})
	}
}
