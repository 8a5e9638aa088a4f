package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "yt-dlp", config.Tool.Binary)
	assert.NotEmpty(t, config.DownloadDirectory)
	assert.NoError(t, config.Validate())
}

func TestConfig_Validate(t *testing.T) {
	config := DefaultConfig()
	config.Server.Port = 0
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.DownloadDirectory = ""
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.Tool.Binary = ""
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.Logging.Level = ""
	assert.NoError(t, config.Validate())
	assert.Equal(t, "info", config.Logging.Level)
}
