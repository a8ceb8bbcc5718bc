package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigText = `
# sample omnifs config
[filesystem]
total_size = 64MB
header_size = 512
block_size = 4096
max_files = 10000
max_filename_length = 127

[security]
max_users = 64
admin_username = admin
admin_password = changeme
require_auth = true

[server]
port = 9876
max_connections = 50
queue_timeout = 30

[logging]
level = DEBUG
format = json
output = stdout

[metrics]
enabled = yes
port = 9877
`

func TestParseValidConfigRoundTrip(t *testing.T) {
	cfg, err := Parse(validConfigText, 1700000000)
	require.NoError(t, err)

	assert.Equal(t, uint64(64*1000*1000), cfg.Filesystem.TotalSize.Uint64())
	assert.Equal(t, uint32(10000), cfg.Filesystem.MaxFiles)
	assert.Equal(t, uint32(64), cfg.Security.MaxUsers)
	assert.True(t, cfg.Security.RequireAuth)
	assert.Equal(t, uint16(9876), cfg.Server.Port)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.NotEmpty(t, cfg.ConfigHash)
	assert.Equal(t, uint64(1700000000), cfg.ConfigTimestamp)
}

func TestParseAppliesLoggingDefaults(t *testing.T) {
	text := strings.Replace(validConfigText, "[logging]\nlevel = DEBUG\nformat = json\noutput = stdout\n", "", 1)
	cfg, err := Parse(text, 0)
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
}

func TestParseMissingRequiredSectionFails(t *testing.T) {
	text := `
[filesystem]
total_size = 64MB
header_size = 512
block_size = 4096
`
	_, err := Parse(text, 0)
	assert.Error(t, err)
}

func TestParseBlockSizeExceedingTotalSizeFails(t *testing.T) {
	text := `
[filesystem]
total_size = 1MB
header_size = 512
block_size = 4096000

[security]
max_users = 1

[server]
port = 1234
`
	_, err := Parse(text, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block_size")
}

func TestParseInvalidLogLevelFails(t *testing.T) {
	text := strings.Replace(validConfigText, "level = DEBUG", "level = VERBOSE", 1)
	_, err := Parse(text, 0)
	assert.Error(t, err)
}
