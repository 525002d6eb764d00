package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[arena]
collect-interval = "250ms"
collect-threshold = 5000

[strings]
in-place-append = false

[log]
verbosity = 2
file = "avmstring.log"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	d, err := c.CollectInterval()
	if err != nil || d != 250*time.Millisecond {
		t.Errorf("collect interval = %v (err %v), want 250ms", d, err)
	}
	if c.Arena.CollectThreshold != 5000 {
		t.Errorf("collect threshold = %d, want 5000", c.Arena.CollectThreshold)
	}
	if c.InPlaceAppend() {
		t.Error("in-place-append = false should disable the in-place path")
	}
	if c.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", c.Log.Verbosity)
	}
	if p := c.LogPath(); p == nil || *p != filepath.Join(c.Dir, "avmstring.log") {
		t.Errorf("log path = %v, want file under config dir", p)
	}
}

func TestDefaults(t *testing.T) {
	c, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	d, _ := c.CollectInterval()
	if d != 30*time.Second {
		t.Errorf("default collect interval = %v, want 30s", d)
	}
	if !c.InPlaceAppend() {
		t.Error("in-place append should default to enabled")
	}
	if c.LogPath() != nil {
		t.Error("default log path should be stderr (nil)")
	}
	if def := Default(); !def.InPlaceAppend() || def.Arena.CollectInterval != "30s" {
		t.Errorf("Default() = %+v", def)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad toml", "[arena\n"},
		{"bad duration", "[arena]\ncollect-interval = \"soon\"\n"},
		{"negative duration", "[arena]\ncollect-interval = \"-1s\"\n"},
		{"negative threshold", "[arena]\ncollect-threshold = -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, FileName), []byte("[arena]\ncollect-interval = \"0\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c == nil {
		t.Fatal("expected to find the config in a parent directory")
	}
	if d, _ := c.CollectInterval(); d != 0 {
		t.Errorf("collect interval = %v, want 0 (disabled)", d)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load of a directory without a config should fail")
	}
}
