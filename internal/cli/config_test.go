package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigSaveAndLoad(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg := CLIConfig{ServerURL: "http://front-desk:9090"}
	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	path := filepath.Join(tmp, ".config", "campbook", "cli.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not found: %v", err)
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ServerURL != cfg.ServerURL {
		t.Errorf("server_url = %q, want %q", loaded.ServerURL, cfg.ServerURL)
	}
}

func TestConfigLoadMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if cfg.ServerURL != "" {
		t.Error("expected zero-value config for missing file")
	}
}

func TestGetServerURL(t *testing.T) {
	tests := []struct {
		name   string
		flag   string
		env    string
		config string
		want   string
	}{
		{"default", "", "", "", defaultServerURL},
		{"config", "", "", "http://saved:1", "http://saved:1"},
		{"env beats config", "", "http://env:2", "http://saved:1", "http://env:2"},
		{"flag beats env", "http://flag:3", "http://env:2", "http://saved:1", "http://flag:3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv("CAMPBOOK_SERVER_URL", tt.env)
			if tt.config != "" {
				if err := saveConfig(CLIConfig{ServerURL: tt.config}); err != nil {
					t.Fatalf("save: %v", err)
				}
			}
			flagServer = tt.flag
			t.Cleanup(func() { flagServer = "" })

			if got := getServerURL(); got != tt.want {
				t.Errorf("url = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConnectSavesURL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := executeCommand("connect", "http://camp.local:8080"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "http://camp.local:8080" {
		t.Errorf("server_url = %q", cfg.ServerURL)
	}

	if _, err := executeCommand("connect", "camp.local"); err == nil {
		t.Error("expected error for URL without scheme")
	}
}
