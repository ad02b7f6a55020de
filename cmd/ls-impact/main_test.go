package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/litescript/ls-impact/internal/version"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return buf.String()
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	if !strings.Contains(out, version.Version) {
		t.Errorf("version output = %q", out)
	}
}

func TestImpactCommand(t *testing.T) {
	out := execute(t, "impact", "--preset", "chelyabinsk")
	for _, want := range []string{"Impact: chelyabinsk", "Yield", "kt"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestImpactCommandInvalid(t *testing.T) {
	rootCmd.SetArgs([]string{"impact", "--preset", "tunguska"})
	rootCmd.SetOut(&bytes.Buffer{})
	if err := rootCmd.Execute(); err == nil || !strings.Contains(err.Error(), "preset") {
		t.Errorf("err = %v, want unknown preset", err)
	}
}

func TestPositionsCommandJSON(t *testing.T) {
	out := execute(t, "positions", "--at", "2000-01-01T12:00:00Z", "--json")
	var decoded struct {
		Days   float64 `json:"days_since_j2000"`
		Bodies []struct {
			Name string `json:"name"`
		} `json:"bodies"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("not JSON: %v\n%s", err, out)
	}
	if decoded.Days != 0 {
		t.Errorf("days = %v, want 0", decoded.Days)
	}
	if len(decoded.Bodies) != 11 {
		t.Errorf("bodies = %d, want 11", len(decoded.Bodies))
	}
}
