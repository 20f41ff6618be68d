package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory with provider keys cleared.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
		"MCQFLOW_LLM_PROVIDER", "MCQFLOW_GEMINI_API_KEY", "MCQFLOW_OPENAI_API_KEY",
		"MCQFLOW_ANTHROPIC_API_KEY", "MCQFLOW_OPENROUTER_API_KEY", "MCQFLOW_DB",
		"MCQFLOW_REDIS_ADDR",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "", cfg.LLM.Provider)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.Equal(t, 5, cfg.LLM.MaxRetries)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "data/output", cfg.Output.Dir)
	assert.Equal(t, "final_output.json", cfg.Output.File)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "data/logs/stress_test_results.json", cfg.Stress.Report)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadYAMLFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "mcqflow.yaml"), `
llm:
  provider: openai
  temperature: 0.5
  timeout: 15s
  max_retries: 2
  openai:
    api_key: sk-file
    model: gpt-4o
output:
  dir: out
redis:
  addr: localhost:6379
  ttl: 1h
stress:
  topics_file: topics.yaml
`)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 0.5, cfg.LLM.Temperature)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2, cfg.LLM.MaxRetries)
	assert.Equal(t, "sk-file", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.LLM.OpenAI.Model)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "final_output.json", cfg.Output.File)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "topics.yaml", cfg.Stress.TopicsFile)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "llm:\n  provider: gemini\n  gemini:\n    api_key: from-file\n")

	t.Setenv("MCQFLOW_LLM_PROVIDER", "anthropic")
	t.Setenv("MCQFLOW_ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("MCQFLOW_LLM_MAX_RETRIES", "3")
	t.Setenv("MCQFLOW_DB", "/tmp/x.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "sk-ant", cfg.LLM.Anthropic.APIKey)
	assert.Equal(t, "from-file", cfg.LLM.Gemini.APIKey)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, "/tmp/x.db", cfg.Store.Path)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "MCQFLOW_LLM_OPENROUTER_API_KEY=or-key\n")
	t.Cleanup(func() { os.Unsetenv("MCQFLOW_LLM_OPENROUTER_API_KEY") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "or-key", cfg.LLM.OpenRouter.APIKey)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"temperature", "llm:\n  temperature: 3\n", "llm.temperature"},
		{"retries", "llm:\n  max_retries: 0\n", "llm.max_retries"},
		{"output file", "output:\n  file: \"\"\n", "output.file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := filepath.Join(dir, "c.yaml")
			writeFile(t, path, tt.yaml)

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLLMProviderConfig(t *testing.T) {
	t.Run("explicit provider", func(t *testing.T) {
		isolate(t)
		cfg, err := Load("")
		require.NoError(t, err)
		cfg.LLM.Provider = "mock"

		lc, err := cfg.LLMProviderConfig()
		require.NoError(t, err)
		assert.Equal(t, "mock", lc.Provider)
		assert.Equal(t, 5, lc.Retry.MaxAttempts)
		assert.Equal(t, 0.2, lc.Temperature)
	})

	t.Run("first configured key wins", func(t *testing.T) {
		isolate(t)
		cfg, err := Load("")
		require.NoError(t, err)
		cfg.LLM.Anthropic.APIKey = "sk-ant"
		cfg.LLM.OpenRouter.APIKey = "or"

		lc, err := cfg.LLMProviderConfig()
		require.NoError(t, err)
		assert.Equal(t, "anthropic", lc.Provider)
		assert.Equal(t, "sk-ant", lc.Anthropic.APIKey)
	})

	t.Run("discovers standard env key", func(t *testing.T) {
		isolate(t)
		t.Setenv("OPENAI_API_KEY", "sk-std")
		cfg, err := Load("")
		require.NoError(t, err)

		lc, err := cfg.LLMProviderConfig()
		require.NoError(t, err)
		assert.Equal(t, "openai", lc.Provider)
		assert.Equal(t, "sk-std", lc.OpenAI.APIKey)
		assert.Equal(t, "gpt-4o-mini", lc.OpenAI.Model)
	})

	t.Run("nothing configured", func(t *testing.T) {
		isolate(t)
		cfg, err := Load("")
		require.NoError(t, err)

		_, err = cfg.LLMProviderConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no LLM provider configured")
	})

	t.Run("named provider without key", func(t *testing.T) {
		isolate(t)
		cfg, err := Load("")
		require.NoError(t, err)
		cfg.LLM.Provider = "gemini"

		_, err = cfg.LLMProviderConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MCQFLOW_LLM_GEMINI_API_KEY")
		assert.Contains(t, err.Error(), " MCQFLOW_GEMINI_API_KEY")
	})
}
