package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

// TestLoadConfigFromFile verifies a well-formed YAML file is parsed and
// unset fields keep their defaults.
func TestLoadConfigFromFile(t *testing.T) {
	configPath := writeTempConfig(t, `
server:
  address: ":9090"
  max_upload_mb: 5
scoring:
  skill_target_min: 6
  blend_tolerance: 12
matching:
  top_n: 3
corpus:
  source: "csv"
  path: "testdata/jobs.csv"
`)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, ":9090", config.Server.Address)
	assert.Equal(t, 5, config.Server.MaxUploadMB)
	assert.Equal(t, 6, config.Scoring.SkillTargetMin)
	assert.Equal(t, 12, config.Scoring.BlendTolerance)
	assert.Equal(t, 3, config.Matching.TopN)
	assert.Equal(t, "testdata/jobs.csv", config.Corpus.Path)

	// Fields absent from the file keep their defaults.
	assert.Equal(t, 40, config.Scoring.SectionWeight)
	assert.Equal(t, 20, config.Scoring.SkillTargetMax)
	assert.Equal(t, 0.1, config.Matching.TitleBonus)
	assert.Equal(t, 10, config.Extractor.MaxSizeMB)
}

// TestLoadConfigDefaultsInTests verifies the test-environment fallback when
// no config file exists anywhere.
func TestLoadConfigDefaultsInTests(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, ":8080", config.Server.Address)
	assert.Equal(t, 10, config.Matching.TopN)
	assert.Equal(t, 15, config.Scoring.BlendTolerance)
	assert.False(t, config.AI.Enabled)
}

// TestLoadConfigEnvOverride verifies environment variables win over file
// values for secrets.
func TestLoadConfigEnvOverride(t *testing.T) {
	configPath := writeTempConfig(t, `
ai:
  api_key: "from-file"
  model: "file-model"
`)

	t.Setenv("AI_API_KEY", "from-env")
	t.Setenv("AI_MODEL", "env-model")

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "from-env", config.AI.APIKey)
	assert.Equal(t, "env-model", config.AI.Model)
}

// TestLoadConfigMalformedYAML verifies a broken file surfaces a parse error.
func TestLoadConfigMalformedYAML(t *testing.T) {
	configPath := writeTempConfig(t, "server: [this is not\n  a mapping")

	config, err := LoadConfig(configPath)
	assert.Error(t, err)
	assert.Nil(t, config)
}

func TestMaxSizeBytes(t *testing.T) {
	c := ExtractorConfig{MaxSizeMB: 10}
	assert.Equal(t, int64(10<<20), c.MaxSizeBytes())
}

func TestGetDuration(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		fallback time.Duration
		expected time.Duration
	}{
		{name: "valid duration", input: "250ms", fallback: time.Second, expected: 250 * time.Millisecond},
		{name: "empty string falls back", input: "", fallback: 5 * time.Second, expected: 5 * time.Second},
		{name: "garbage falls back", input: "soon", fallback: 2 * time.Second, expected: 2 * time.Second},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, GetDuration(tc.input, tc.fallback))
		})
	}
}

func TestCreateSampleConfigRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, CreateSampleConfig(path))

	// Second call must not clobber the file.
	err := CreateSampleConfig(path)
	assert.Error(t, err)

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", reloaded.Server.Address)
}
