package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	coreconfig "github.com/go-core-fx/config"
)

const credentialFileName = "credentials.json"

type Config struct {
	APIBaseURL     string        `koanf:"api_base_url"`
	Timeout        time.Duration `koanf:"timeout"`
	CredentialFile string        `koanf:"credential_file"`
	ExportDir      string        `koanf:"export_dir"`
	LLMBaseURL     string        `koanf:"llm_base_url"`
	LLMAPIKey      string        `koanf:"llm_api_key"`
	LLMModel       string        `koanf:"llm_model"`
	LogFile        string        `koanf:"log_file"`
	Debug          bool          `koanf:"debug"`
}

func New() (Config, error) {
	cfg := Config{
		APIBaseURL: "http://localhost:8080",
		Timeout:    20 * time.Second,
		ExportDir:  ".",
		LogFile:    "./zlagoda.log",
		Debug:      false,
	}

	if err := coreconfig.Load(&cfg); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}

	if cfg.CredentialFile == "" {
		cfg.CredentialFile = DefaultCredentialFile()
	}

	return cfg, nil
}

// DefaultCredentialFile is <user config dir>/zlagoda/credentials.json, or a
// file in the working directory when the platform has no config dir.
func DefaultCredentialFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".", ".zlagoda-"+credentialFileName)
	}
	return filepath.Join(dir, "zlagoda", credentialFileName)
}
