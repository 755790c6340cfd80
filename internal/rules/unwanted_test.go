package rules

import (
	"os"
	"path/filepath"
	"testing"

	"it-snapshot-inventory/internal/risk"
	"it-snapshot-inventory/internal/snapshot"
)

func TestDefaultPatterns_EmbeddedListParses(t *testing.T) {
	patterns := DefaultPatterns()
	if len(patterns) == 0 {
		t.Fatal("embedded pattern list is empty")
	}
	for _, p := range patterns {
		if p.Name == "" {
			t.Error("pattern with empty name survived parsing")
		}
		if !p.Severity.Valid() {
			t.Errorf("pattern %q has invalid severity %q", p.Name, p.Severity)
		}
	}
}

func TestLoadPatternsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	raw := []byte(`patterns:
  - name: "EvilTool"
    category: "Test"
    reason: "because"
    severity: high
  - name: ""
    severity: low
  - name: "NoSeverity"
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	patterns, err := LoadPatternsFile(path)
	if err != nil {
		t.Fatalf("LoadPatternsFile: %v", err)
	}
	if len(patterns) != 2 {
		t.Fatalf("got %d patterns, want 2 (empty name dropped)", len(patterns))
	}
	if patterns[0].Name != "EvilTool" || patterns[0].Severity != risk.SeverityHigh {
		t.Errorf("first pattern = %+v", patterns[0])
	}
	if patterns[1].Severity != risk.SeverityMedium {
		t.Errorf("missing severity should default to medium, got %q", patterns[1].Severity)
	}
	if patterns[1].Category != "Uncategorized" {
		t.Errorf("missing category should default, got %q", patterns[1].Category)
	}
}

func TestLoadPatternsFile_Missing(t *testing.T) {
	if _, err := LoadPatternsFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file should return error")
	}
}

func TestMatchInstalled_FirstPatternWinsPerApp(t *testing.T) {
	patterns := []UnwantedPattern{
		{Name: "Torrent", Category: "P2P", Severity: risk.SeverityMedium},
		{Name: "uTorrent", Category: "P2P-specific", Severity: risk.SeverityHigh},
	}
	installed := []snapshot.SoftwareItem{{Name: "uTorrent 3.6"}}
	matches := matchInstalled(installed, patterns)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1 (one finding per app)", len(matches))
	}
	if matches[0].pattern.Name != "Torrent" {
		t.Errorf("matched %q, want first declared pattern to win", matches[0].pattern.Name)
	}
}

func TestMatchInstalled_CaseInsensitive(t *testing.T) {
	patterns := []UnwantedPattern{{Name: "AnyDesk", Severity: risk.SeverityMedium}}
	installed := []snapshot.SoftwareItem{{Name: "ANYDESK remote"}}
	if got := matchInstalled(installed, patterns); len(got) != 1 {
		t.Errorf("case-insensitive match failed, got %d matches", len(got))
	}
}

func TestMatchInstalled_NoPatterns(t *testing.T) {
	installed := []snapshot.SoftwareItem{{Name: "uTorrent"}}
	if got := matchInstalled(installed, nil); got != nil {
		t.Errorf("nil patterns should yield no matches, got %v", got)
	}
}
