package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/tspstudio/pkg/neos"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want none", cfg.File)
	}
	if cfg.Store.Backend != "file" || cfg.Cache.Backend != "file" {
		t.Errorf("backends = %q/%q", cfg.Store.Backend, cfg.Cache.Backend)
	}
	if cfg.NEOS.URL != neos.DefaultURL {
		t.Errorf("NEOS.URL = %q", cfg.NEOS.URL)
	}
	if cfg.NEOS.Delay != 15*time.Second || cfg.NEOS.Requeue != 10*time.Minute {
		t.Errorf("timings = %v/%v", cfg.NEOS.Delay, cfg.NEOS.Requeue)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := isolate(t)
	body := `
[store]
backend = "redis"
url = "redis://localhost:6379/0"

[neos]
email = "me@example.com"
delay = "30s"
max_attempts = 3
`
	if err := os.WriteFile(filepath.Join(dir, "tspstudio.toml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TSPSTUDIO_NEOS_REQUEUE", "1m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !strings.HasSuffix(cfg.File, "tspstudio.toml") {
		t.Errorf("File = %q", cfg.File)
	}
	if cfg.Store.Backend != "redis" || cfg.Store.URL == "" {
		t.Errorf("store = %+v", cfg.Store)
	}
	oc := cfg.Orchestrator()
	if oc.Email != "me@example.com" || oc.Delay != 30*time.Second || oc.MaxAttempts != 3 {
		t.Errorf("orchestrator = %+v", oc)
	}
	if oc.RequeueInterval != time.Minute {
		t.Errorf("RequeueInterval = %v, want env override", oc.RequeueInterval)
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	dir := isolate(t)
	if _, err := Load(filepath.Join(dir, "nope.toml")); err == nil {
		t.Error("expected error for missing explicit file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"unknown store", func(c *Config) { c.Store.Backend = "s3" }, false},
		{"redis without url", func(c *Config) { c.Store.Backend = "redis" }, false},
		{"mongo with url", func(c *Config) {
			c.Store.Backend = "mongo"
			c.Store.URL = "mongodb://localhost"
		}, true},
		{"cache none", func(c *Config) { c.Cache.Backend = "none" }, true},
		{"redis cache without url", func(c *Config) { c.Cache.Backend = "redis" }, false},
		{"bad email", func(c *Config) { c.NEOS.Email = "nope" }, false},
		{"negative delay", func(c *Config) { c.NEOS.Delay = -time.Second }, false},
		{"empty url", func(c *Config) { c.NEOS.URL = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			err := c.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestWriteTOML(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().WriteTOML(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"[store]", `backend = "file"`, "[neos]", neos.DefaultURL} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
