package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().WithEnvPrefix("IMGTO3D_TEST_DEFAULTS").Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.Timeout != 0 {
		t.Fatalf("expected no timeout by default, got %s", cfg.Timeout)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgto3d.yaml")
	content := `
python: /usr/bin/python3.13
script: /opt/connector/StableDiffusionConnector.py
asset_root: /work/Game/Assets
rescan_cmd: ["unity-refresh", "--project", "/work/Game"]
timeout: 90s
tty: true
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := NewLoader().WithConfigPath(path).WithEnvPrefix("IMGTO3D_TEST_YAML").Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Python != "/usr/bin/python3.13" || cfg.Script != "/opt/connector/StableDiffusionConnector.py" {
		t.Fatalf("unexpected paths %+v", cfg)
	}
	if cfg.Timeout != 90*time.Second || !cfg.TTY {
		t.Fatalf("unexpected timeout/tty %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.RescanCmd, []string{"unity-refresh", "--project", "/work/Game"}) {
		t.Fatalf("unexpected rescan cmd %q", cfg.RescanCmd)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
	if cfg.Output != "." {
		t.Fatalf("expected default output to survive, got %q", cfg.Output)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")).
		WithEnvPrefix("IMGTO3D_TEST_MISSING").
		Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Python != "python3" {
		t.Fatalf("unexpected python %q", cfg.Python)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgto3d.yaml")
	if err := os.WriteFile(path, []byte("python: from-file\ntimeout: 5s\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("IMGTO3D_TEST_ENV_PYTHON", "from-env")
	t.Setenv("IMGTO3D_TEST_ENV_TIMEOUT", "2m")
	t.Setenv("IMGTO3D_TEST_ENV_TTY", "true")
	t.Setenv("IMGTO3D_TEST_ENV_RESCAN_CMD", "touch --no-create")
	t.Setenv("IMGTO3D_TEST_ENV_LOG_LEVEL", "warn")

	cfg, err := NewLoader().WithConfigPath(path).WithEnvPrefix("IMGTO3D_TEST_ENV").Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Python != "from-env" || cfg.Timeout != 2*time.Minute || !cfg.TTY {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.RescanCmd, []string{"touch", "--no-create"}) {
		t.Fatalf("unexpected rescan cmd %q", cfg.RescanCmd)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("unexpected level %q", cfg.Log.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
	}{
		{name: "bad yaml", yaml: "python: [", wantErr: "parse"},
		{name: "bad duration env", env: map[string]string{"TIMEOUT": "soon"}, wantErr: "TIMEOUT"},
		{name: "bad bool env", env: map[string]string{"TTY": "maybe"}, wantErr: "TTY"},
		{name: "negative timeout", yaml: "timeout: -1s", wantErr: "Timeout"},
		{name: "bad level", yaml: "log:\n  level: loud", wantErr: "Level"},
		{name: "bad format", yaml: "log:\n  format: xml", wantErr: "Format"},
		{name: "empty python", yaml: "python: \"\"", wantErr: "Python"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix := "IMGTO3D_TEST_ERR_" + strings.ToUpper(strings.ReplaceAll(tt.name, " ", "_"))
			for k, v := range tt.env {
				t.Setenv(prefix+"_"+k, v)
			}

			loader := NewLoader().WithEnvPrefix(prefix)
			if tt.yaml != "" {
				path := filepath.Join(t.TempDir(), "imgto3d.yaml")
				if err := os.WriteFile(path, []byte(tt.yaml), 0o644); err != nil {
					t.Fatalf("write config: %v", err)
				}
				loader = loader.WithConfigPath(path)
			}

			_, err := loader.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q in error, got %v", tt.wantErr, err)
			}
		})
	}
}
