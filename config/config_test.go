package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credsd.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Pairing.CodeTimeout != 30*time.Second {
		t.Errorf("CodeTimeout: got %v, want 30s", cfg.Pairing.CodeTimeout)
	}
	if cfg.Pairing.MaxAttempts != 3 {
		t.Errorf("MaxAttempts: got %d, want 3", cfg.Pairing.MaxAttempts)
	}
	if cfg.Pairing.CredentialFile != "creds.json" {
		t.Errorf("CredentialFile: got %s", cfg.Pairing.CredentialFile)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeConfigFile(t, `
system:
  workdir: /srv/credsd
web:
  port: 9100
pairing:
  code_timeout: 45s
  backoff_base: 500ms
  backoff_max: 4s
  max_attempts: 5
  download_name: "session-{id}.json"
whatsapp:
  browser: random
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Web.Port != 9100 {
		t.Errorf("Port: got %d, want 9100", cfg.Web.Port)
	}
	if cfg.Pairing.CodeTimeout != 45*time.Second {
		t.Errorf("CodeTimeout: got %v, want 45s", cfg.Pairing.CodeTimeout)
	}
	if cfg.Pairing.BackoffBase != 500*time.Millisecond {
		t.Errorf("BackoffBase: got %v", cfg.Pairing.BackoffBase)
	}
	// untouched keys keep their defaults
	if cfg.Pairing.FinalizeGrace != 3*time.Second {
		t.Errorf("FinalizeGrace: got %v, want default 3s", cfg.Pairing.FinalizeGrace)
	}
	if got := cfg.GetTempDir(); got != "/srv/credsd/temp" {
		t.Errorf("GetTempDir: got %s", got)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, "web:\n  port: 9100\n")
	t.Setenv("PORT", "7000")
	t.Setenv("CREDS_PAIRING_MAX_ATTEMPTS", "2")
	t.Setenv("CREDS_PAIRING_LINK_TIMEOUT", "90s")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Web.Port != 7000 {
		t.Errorf("Port: got %d, want 7000 from PORT", cfg.Web.Port)
	}
	if cfg.Pairing.MaxAttempts != 2 {
		t.Errorf("MaxAttempts: got %d, want 2", cfg.Pairing.MaxAttempts)
	}
	if cfg.Pairing.LinkTimeout != 90*time.Second {
		t.Errorf("LinkTimeout: got %v, want 90s", cfg.Pairing.LinkTimeout)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"zero attempts", "pairing:\n  max_attempts: 0\n", "max_attempts"},
		{"inverted backoff", "pairing:\n  backoff_base: 5s\n  backoff_max: 1s\n", "backoff_max"},
		{"credential path", "pairing:\n  credential_file: ../creds.json\n", "credential_file"},
		{"qr format", "pairing:\n  qr_format: svg\n", "qr_format"},
		{"browser", "whatsapp:\n  browser: lynx\n", "browser"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, tt.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
