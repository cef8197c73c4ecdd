package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadConfiguration(filepath.Join(t.TempDir(), "nope.toml"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := DefaultConfiguration()
	if cfg.Turtle != want.Turtle || cfg.Eval != want.Eval || cfg.Log != want.Log {
		t.Errorf("got %+v, want defaults %+v", cfg, want)
	}
}

func TestMissingRequiredFile(t *testing.T) {
	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "nope.toml"), true)
	if err == nil {
		t.Fatal("expected an error for a missing required config file")
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, `
[turtle]
origin_x = 100
origin_y = 50
color = "red"

[eval]
max_call_depth = 64

[log]
level = "debug"
file = "logs/kidcode.log"

[store]
dsn = "sqlite3:runs.db"

[trace]
out = "out.cbor"
`)

	cfg, err := LoadConfiguration(path, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Turtle.OriginX != 100 || cfg.Turtle.OriginY != 50 || cfg.Turtle.Color != "red" {
		t.Errorf("turtle = %+v", cfg.Turtle)
	}
	if cfg.Eval.MaxCallDepth != 64 {
		t.Errorf("max_call_depth = %d, want 64", cfg.Eval.MaxCallDepth)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != "logs/kidcode.log" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Store.DSN != "sqlite3:runs.db" {
		t.Errorf("store dsn = %q", cfg.Store.DSN)
	}
	if cfg.Trace.Out != "out.cbor" {
		t.Errorf("trace out = %q", cfg.Trace.Out)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "[turtle]\ncolor = \"green\"\n")

	cfg, err := LoadConfiguration(path, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Turtle.Color != "green" {
		t.Errorf("color = %q, want green", cfg.Turtle.Color)
	}
	if cfg.Turtle.OriginX != 250 || cfg.Eval.MaxCallDepth != 1000 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "[eval]\nmax_call_depth = 64\n[store]\ndsn = \"sqlite3:a.db\"\n")
	t.Setenv(EnvMaxCallDepth, "12")
	t.Setenv(EnvStore, "sqlite3:b.db")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := LoadConfiguration(path, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Eval.MaxCallDepth != 12 {
		t.Errorf("max_call_depth = %d, want 12", cfg.Eval.MaxCallDepth)
	}
	if cfg.Store.DSN != "sqlite3:b.db" {
		t.Errorf("store dsn = %q, want sqlite3:b.db", cfg.Store.DSN)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level = %q, want warn", cfg.Log.Level)
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "[turtle\n", "config"},
		{"unknown key", "[turtle]\nsize = 3\n", "unknown keys: turtle.size"},
		{"bad depth", "[eval]\nmax_call_depth = 0\n", "max_call_depth"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "unknown log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfiguration(writeConfig(t, tt.body), true)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
