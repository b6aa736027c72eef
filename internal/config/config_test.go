package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"NANOPATTERNS_DEBUG", "NANOPATTERNS_WORKERS", "NANOPATTERNS_CLASSPATH",
		"NANOPATTERNS_STDLIB_PREFIXES", "NANOPATTERNS_FORMAT", "NANOPATTERNS_CACHE_SIZE",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, []string{"java/", "javax/"}, cfg.StdlibPrefixes)
	assert.Equal(t, runtime.NumCPU(), cfg.EffectiveWorkers())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
debug: true
workers: 3
classpath:
  - lib/a.jar
  - build/classes
stdlibPrefixes: ["java/", "javax/", "jdk/"]
format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 3, cfg.EffectiveWorkers())
	assert.Equal(t, []string{"lib/a.jar", "build/classes"}, cfg.Classpath)
	assert.Equal(t, []string{"java/", "javax/", "jdk/"}, cfg.StdlibPrefixes)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, Default().CacheSize, cfg.CacheSize, "unset keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "workers: 3\nformat: json\n")
	sep := string(os.PathListSeparator)
	t.Setenv("NANOPATTERNS_WORKERS", "7")
	t.Setenv("NANOPATTERNS_FORMAT", "summary")
	t.Setenv("NANOPATTERNS_CLASSPATH", strings.Join([]string{"x.jar", "", "y"}, sep))
	t.Setenv("NANOPATTERNS_STDLIB_PREFIXES", "java/, kotlin/")
	t.Setenv("NANOPATTERNS_DEBUG", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, FormatSummary, cfg.Format)
	assert.Equal(t, []string{"x.jar", "y"}, cfg.Classpath)
	assert.Equal(t, []string{"java/", "kotlin/"}, cfg.StdlibPrefixes)
	assert.True(t, cfg.Debug)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		env     map[string]string
		wantErr string
	}{
		{name: "bad yaml", body: "workers: [", wantErr: "failed to parse config"},
		{name: "negative workers", body: "workers: -1", wantErr: "workers must not be negative"},
		{name: "unknown format", body: "format: xml", wantErr: "unknown format"},
		{name: "zero cache", body: "cacheSize: 0", wantErr: "cacheSize must be positive"},
		{name: "bad env int", env: map[string]string{"NANOPATTERNS_WORKERS": "many"}, wantErr: "invalid integer for Workers"},
		{name: "bad env bool", env: map[string]string{"NANOPATTERNS_DEBUG": "maybe"}, wantErr: "invalid boolean for Debug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeFromEnv_RejectsNonPointer(t *testing.T) {
	assert.Error(t, MergeFromEnv(Config{}))
	var nilCfg *Config
	assert.Error(t, MergeFromEnv(nilCfg))
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("NANOPATTERNS_CONFIG", "/etc/np.yaml")
	assert.Equal(t, "/etc/np.yaml", DefaultPath())
}

func TestSchema(t *testing.T) {
	bts, err := Schema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(bts, &doc))
	assert.Contains(t, string(bts), `"workers"`)
	assert.Contains(t, string(bts), `"stdlibPrefixes"`)
	assert.Contains(t, string(bts), `"summary"`)
}
