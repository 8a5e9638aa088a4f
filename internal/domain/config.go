package domain

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the application configuration
type Config struct {
	Server            ServerConfig  `mapstructure:"server" json:"server"`
	DownloadDirectory string        `mapstructure:"download_directory" json:"download_directory"`
	Tool              ToolConfig    `mapstructure:"tool" json:"tool"`
	Logging           LoggingConfig `mapstructure:"logging" json:"logging"`
}

// ServerConfig contains the bind address. Changes take effect on the next
// server start only.
type ServerConfig struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

// ToolConfig names the external downloader binary.
type ToolConfig struct {
	Binary string `mapstructure:"binary" json:"binary"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" json:"level"`             // debug, info, warn, error
	Format     string `mapstructure:"format" json:"format"`           // json, console
	OutputPath string `mapstructure:"output_path" json:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values. The download
// directory defaults to the platform download folder.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		DownloadDirectory: DefaultDownloadDir(),
		Tool: ToolConfig{
			Binary: "yt-dlp",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}

// DefaultDownloadDir returns the user's download directory, falling back to
// a relative "downloads" when no home directory is available.
func DefaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "downloads"
	}
	return filepath.Join(home, "Downloads")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port: %d", ErrValidation, c.Server.Port)
	}
	if c.DownloadDirectory == "" {
		return fmt.Errorf("%w: download directory not configured", ErrValidation)
	}
	if c.Tool.Binary == "" {
		return fmt.Errorf("%w: tool binary not configured", ErrValidation)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	return nil
}
