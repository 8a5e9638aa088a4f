package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/yourusername/ytdlp-api-go/internal/domain"
)

// DefaultConfigPath returns the canonical config file location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ytdlp-api", "config.yaml")
	}
	return filepath.Join(home, ".ytdlp-api", "config.yaml")
}

// DefaultDataDir returns the directory holding mutable server state
// (history database, pid file).
func DefaultDataDir() string {
	return filepath.Dir(DefaultConfigPath())
}

// ConfigStore owns the effective configuration. Reads return copies;
// updates are persisted to disk before they become visible, so a crash
// between the two never leaves the running server ahead of its config file.
type ConfigStore struct {
	mu      sync.RWMutex
	current domain.Config
	v       *viper.Viper
	path    string
}

// LoadConfigStore reads the config file at path, creating it with defaults
// on first run. Environment variables prefixed YTDLPAPI override file
// values (YTDLPAPI_SERVER_PORT, YTDLPAPI_DOWNLOAD_DIRECTORY, ...).
func LoadConfigStore(path string) (*ConfigStore, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("YTDLPAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := domain.DefaultConfig()
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("download_directory", defaults.DownloadDirectory)
	v.SetDefault("tool.binary", defaults.Tool.Binary)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.output_path", defaults.Logging.OutputPath)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config domain.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.DownloadDirectory = expandPath(config.DownloadDirectory)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ConfigStore{current: config, v: v, path: path}, nil
}

// Get returns a copy of the effective configuration.
func (s *ConfigStore) Get() domain.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// DownloadDir returns the effective download directory.
func (s *ConfigStore) DownloadDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.DownloadDirectory
}

// Path returns the config file location.
func (s *ConfigStore) Path() string {
	return s.path
}

// Update validates next, persists it, then swaps it in. Jobs already
// running keep the directory they were resolved against; only future
// submissions see the new value. The bind address takes effect on the next
// server start.
func (s *ConfigStore) Update(next domain.Config) error {
	next.DownloadDirectory = expandPath(next.DownloadDirectory)
	if err := next.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set("server.host", next.Server.Host)
	s.v.Set("server.port", next.Server.Port)
	s.v.Set("download_directory", next.DownloadDirectory)
	s.v.Set("tool.binary", next.Tool.Binary)
	s.v.Set("logging.level", next.Logging.Level)
	s.v.Set("logging.format", next.Logging.Format)
	s.v.Set("logging.output_path", next.Logging.OutputPath)

	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to persist config: %w", err)
	}

	s.current = next
	return nil
}

// expandPath resolves a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
