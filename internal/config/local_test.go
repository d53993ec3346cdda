package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDir(t *testing.T) {
	t.Setenv("PROMPTCRAFT_HOME", "")
	os.Unsetenv("PROMPTCRAFT_HOME")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}
	if filepath.Base(dir) != ".promptcraft" {
		t.Errorf("Dir() = %q, want ending with .promptcraft", dir)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("Dir() = %q, want absolute path", dir)
	}
}

func TestDir_Override(t *testing.T) {
	custom := t.TempDir()
	t.Setenv("PROMPTCRAFT_HOME", custom)

	dir, err := Dir()
	if err != nil || dir != custom {
		t.Errorf("Dir() = %q, %v; want %q", dir, err, custom)
	}
}

func TestEnsureDir(t *testing.T) {
	home := filepath.Join(t.TempDir(), "pc")
	t.Setenv("PROMPTCRAFT_HOME", home)

	dir, err := EnsureDir()
	if err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	for _, subdir := range []string{"logs", "progress"} {
		if _, err := os.Stat(filepath.Join(dir, subdir)); err != nil {
			t.Errorf("EnsureDir() should create %s: %v", subdir, err)
		}
	}
}

func TestDefaultLocalConfig(t *testing.T) {
	cfg := DefaultLocalConfig()

	if cfg.Daemon.Port != 7433 {
		t.Errorf("Daemon.Port = %d, want 7433", cfg.Daemon.Port)
	}
	if cfg.Daemon.Bind != "127.0.0.1" {
		t.Errorf("Daemon.Bind = %q, want 127.0.0.1", cfg.Daemon.Bind)
	}
	if cfg.Storage.Driver != DriverSQLite {
		t.Errorf("Storage.Driver = %q, want sqlite", cfg.Storage.Driver)
	}
	if cfg.Evaluator.MinChars != 50 || cfg.Evaluator.MinWords != 10 || cfg.Evaluator.PartialCreditCap != 50 {
		t.Errorf("Evaluator = %+v, want original thresholds", cfg.Evaluator)
	}
	if cfg.Queue.Enabled {
		t.Error("queue should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file gives defaults", func(t *testing.T) {
		cfg, err := LoadFile(filepath.Join(dir, "absent.yaml"))
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}
		if cfg.Daemon.Port != 7433 {
			t.Errorf("Port = %d", cfg.Daemon.Port)
		}
	})

	t.Run("partial file keeps other defaults", func(t *testing.T) {
		path := filepath.Join(dir, "partial.yaml")
		doc := "daemon:\n  port: 8088\nevaluator:\n  min_words: 5\nstorage:\n  driver: postgres\n  postgres_url: postgres://localhost/pc\n"
		if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}
		if cfg.Daemon.Port != 8088 || cfg.Daemon.Bind != "127.0.0.1" {
			t.Errorf("Daemon = %+v", cfg.Daemon)
		}
		if cfg.Evaluator.MinWords != 5 || cfg.Evaluator.MinChars != 50 {
			t.Errorf("Evaluator = %+v", cfg.Evaluator)
		}
		if cfg.Storage.Driver != DriverPostgres {
			t.Errorf("Storage.Driver = %q", cfg.Storage.Driver)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("daemon: [unclosed"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFile(path); err == nil {
			t.Error("LoadFile() should fail on malformed YAML")
		}
	})
}

func TestSaveLocalConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PROMPTCRAFT_HOME", home)

	cfg := DefaultLocalConfig()
	cfg.Daemon.Port = 9999
	cfg.Catalog.Path = "/srv/catalog"

	if err := SaveLocalConfig(cfg); err != nil {
		t.Fatalf("SaveLocalConfig() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(home, "config.yaml"))
	if err != nil {
		t.Fatalf("config.yaml not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config.yaml mode = %o, want 600", perm)
	}

	loaded, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if loaded.Daemon.Port != 9999 || loaded.Catalog.Path != "/srv/catalog" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestLocalConfig_YAMLKeys(t *testing.T) {
	data, err := yaml.Marshal(DefaultLocalConfig())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"daemon:", "evaluator:", "min_chars:", "partial_credit_cap:", "storage:", "sqlite_path:", "queue:", "logging:"} {
		if !strings.Contains(string(data), key) {
			t.Errorf("marshaled config missing %q", key)
		}
	}
}

func TestLocalConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LocalConfig)
		wantErr string
	}{
		{"defaults", func(*LocalConfig) {}, ""},
		{"port zero", func(c *LocalConfig) { c.Daemon.Port = 0 }, "daemon.port"},
		{"port too large", func(c *LocalConfig) { c.Daemon.Port = 70000 }, "daemon.port"},
		{"bad log level", func(c *LocalConfig) { c.Daemon.LogLevel = "loud" }, "log_level"},
		{"upper-case level ok", func(c *LocalConfig) { c.Daemon.LogLevel = "WARN" }, ""},
		{"negative rate", func(c *LocalConfig) { c.Daemon.RatePerSecond = -1 }, "rate_per_second"},
		{"unknown driver", func(c *LocalConfig) { c.Storage.Driver = "mysql" }, "storage.driver"},
		{"postgres without url", func(c *LocalConfig) { c.Storage.Driver = DriverPostgres }, "postgres_url"},
		{"queue without url", func(c *LocalConfig) { c.Queue.Enabled = true; c.Queue.URL = "" }, "queue.url"},
		{"credit cap too high", func(c *LocalConfig) { c.Evaluator.PartialCreditCap = 150 }, "partial_credit_cap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLocalConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v; want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLocalConfig_Paths(t *testing.T) {
	cfg := DefaultLocalConfig()

	if got := cfg.SQLitePath("/home/x/.promptcraft"); got != filepath.Join("/home/x/.promptcraft", "promptcraft.db") {
		t.Errorf("SQLitePath() = %q", got)
	}
	if got := cfg.LogFile("/home/x/.promptcraft"); got != filepath.Join("/home/x/.promptcraft", "logs", "promptcraftd.log") {
		t.Errorf("LogFile() = %q", got)
	}
	if got := cfg.Addr(); got != "127.0.0.1:7433" {
		t.Errorf("Addr() = %q", got)
	}

	cfg.Storage.SQLitePath = "/tmp/custom.db"
	if got := cfg.SQLitePath("/ignored"); got != "/tmp/custom.db" {
		t.Errorf("SQLitePath() override = %q", got)
	}
}
