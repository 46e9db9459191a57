package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override, e.g. CREDS_PAIRING_MAX_ATTEMPTS.
const EnvPrefix = "CREDS"

type SysConfig struct {
	Appid    string `yaml:"appid" split_words:"true"`
	Location string `yaml:"location" split_words:"true"`
	Workdir  string `yaml:"workdir" split_words:"true"`
	Debug    bool   `yaml:"debug" split_words:"true"`
}

type WebConfig struct {
	Host string `yaml:"host" split_words:"true"`
	// Port falls back to the bare PORT variable that hosting platforms inject.
	Port            int           `yaml:"port" envconfig:"PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" split_words:"true"`
	Level      string `yaml:"level" split_words:"true"`
	FileEnable bool   `yaml:"file_enable" split_words:"true"`
	Filename   string `yaml:"filename" split_words:"true"`
}

// PairingConfig drives the session orchestrator. Every timing value the
// linking flow depends on lives here rather than in package constants.
type PairingConfig struct {
	TempDir          string        `yaml:"temp_dir" split_words:"true"`
	CodeTimeout      time.Duration `yaml:"code_timeout" split_words:"true"`
	LinkTimeout      time.Duration `yaml:"link_timeout" split_words:"true"`
	FinalizeGrace    time.Duration `yaml:"finalize_grace" split_words:"true"`
	PairCodeDelay    time.Duration `yaml:"pair_code_delay" split_words:"true"`
	MaxAttempts      int           `yaml:"max_attempts" split_words:"true"`
	BackoffBase      time.Duration `yaml:"backoff_base" split_words:"true"`
	BackoffMax       time.Duration `yaml:"backoff_max" split_words:"true"`
	MaxSessions      int           `yaml:"max_sessions" split_words:"true"`
	EventQueueSize   int           `yaml:"event_queue_size" split_words:"true"`
	CredentialFile   string        `yaml:"credential_file" split_words:"true"`
	DownloadName     string        `yaml:"download_name" split_words:"true"`
	QRFormat         string        `yaml:"qr_format" split_words:"true"`
	PrintQR          bool          `yaml:"print_qr" split_words:"true"`
	SelfDelivery     bool          `yaml:"self_delivery" split_words:"true"`
	WelcomeMessage   string        `yaml:"welcome_message" split_words:"true"`
	StaleAfter       time.Duration `yaml:"stale_after" split_words:"true"`
	SweepSchedule    string        `yaml:"sweep_schedule" split_words:"true"`
	JournalRetention time.Duration `yaml:"journal_retention" split_words:"true"`
}

type WhatsAppConfig struct {
	// Browser is advertised when requesting pairing codes: Safari, Chrome,
	// Firefox, Edge or random.
	Browser  string `yaml:"browser" split_words:"true"`
	OSName   string `yaml:"os_name" split_words:"true"`
	LogLevel string `yaml:"log_level" split_words:"true"`
}

type AppConfig struct {
	System   SysConfig      `yaml:"system"`
	Web      WebConfig      `yaml:"web"`
	Logger   LogConfig      `yaml:"logger"`
	Pairing  PairingConfig  `yaml:"pairing"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
}

// GetJournalFile returns the bbolt file that keeps finished session records.
func (c *AppConfig) GetJournalFile() string {
	return filepath.Join(c.System.Workdir, "data", "journal.db")
}

// GetMetricsDir returns the tstorage data directory.
func (c *AppConfig) GetMetricsDir() string {
	return filepath.Join(c.System.Workdir, "data", "metrics")
}

// GetTempDir returns the absolute root of the per-session directories.
func (c *AppConfig) GetTempDir() string {
	if filepath.IsAbs(c.Pairing.TempDir) {
		return c.Pairing.TempDir
	}
	return filepath.Join(c.System.Workdir, c.Pairing.TempDir)
}

// DefaultAppConfig returns the configuration used when no file is given.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appid:    "credsd",
			Location: "UTC",
			Workdir:  "./var",
		},
		Web: WebConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ShutdownTimeout: 10 * time.Second,
		},
		Logger: LogConfig{
			Mode:     "development",
			Level:    "info",
			Filename: "./var/logs/credsd.log",
		},
		Pairing: PairingConfig{
			TempDir:          "temp",
			CodeTimeout:      30 * time.Second,
			LinkTimeout:      3 * time.Minute,
			FinalizeGrace:    3 * time.Second,
			PairCodeDelay:    time.Second,
			MaxAttempts:      3,
			BackoffBase:      2 * time.Second,
			BackoffMax:       10 * time.Second,
			MaxSessions:      500,
			EventQueueSize:   32,
			CredentialFile:   "creds.json",
			DownloadName:     "creds.json",
			QRFormat:         "raw",
			StaleAfter:       30 * time.Minute,
			SweepSchedule:    "@every 5m",
			JournalRetention: 72 * time.Hour,
		},
		WhatsApp: WhatsAppConfig{
			Browser:  "Safari",
			OSName:   "Mac OS",
			LogLevel: "warn",
		},
	}
}

// LoadConfig reads the YAML file (if any) over the defaults, then applies
// environment overrides and validates the result.
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if cfile != "" {
		data, err := os.ReadFile(cfile)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfile, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfile, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	p := c.Pairing
	switch {
	case c.Web.Port <= 0 || c.Web.Port > 65535:
		return fmt.Errorf("web.port out of range: %d", c.Web.Port)
	case strings.TrimSpace(p.TempDir) == "":
		return fmt.Errorf("pairing.temp_dir must not be empty")
	case p.CodeTimeout <= 0:
		return fmt.Errorf("pairing.code_timeout must be positive")
	case p.LinkTimeout <= 0:
		return fmt.Errorf("pairing.link_timeout must be positive")
	case p.FinalizeGrace < 0 || p.PairCodeDelay < 0:
		return fmt.Errorf("pairing delays must not be negative")
	case p.MaxAttempts < 1:
		return fmt.Errorf("pairing.max_attempts must be at least 1")
	case p.BackoffBase < 0 || p.BackoffMax < p.BackoffBase:
		return fmt.Errorf("pairing.backoff_max must be >= backoff_base >= 0")
	case p.MaxSessions < 1:
		return fmt.Errorf("pairing.max_sessions must be at least 1")
	case p.EventQueueSize < 1:
		return fmt.Errorf("pairing.event_queue_size must be at least 1")
	case p.CredentialFile == "" || filepath.Base(p.CredentialFile) != p.CredentialFile:
		return fmt.Errorf("pairing.credential_file must be a bare file name")
	case p.DownloadName == "":
		return fmt.Errorf("pairing.download_name must not be empty")
	}
	switch strings.ToLower(p.QRFormat) {
	case "raw", "png":
	default:
		return fmt.Errorf("pairing.qr_format must be raw or png, got %q", p.QRFormat)
	}
	switch strings.ToLower(c.WhatsApp.Browser) {
	case "safari", "chrome", "firefox", "edge", "random":
	default:
		return fmt.Errorf("whatsapp.browser unsupported: %q", c.WhatsApp.Browser)
	}
	return nil
}
