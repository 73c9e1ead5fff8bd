package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080, ShutdownTimeout: time.Second, RequestTimeout: time.Second},
		Import:  ImportConfig{MaxFileSize: 1, MaxUploadSize: 1, MaxConcurrent: 1, MaxWaitTime: time.Second, Timeout: time.Minute, Delimiter: ","},
		Rate:    RateLimitConfig{Enabled: true, RequestsPerMinute: 100, ImportLimit: 10},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, time.Duration(0), cfg.Server.WriteTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, int64(10485760), cfg.Import.MaxFileSize)
	assert.Equal(t, int64(1<<30), cfg.Import.MaxUploadSize)
	assert.Equal(t, 5, cfg.Import.MaxConcurrent)
	assert.Equal(t, 30*time.Second, cfg.Import.MaxWaitTime)
	assert.Equal(t, 10*time.Minute, cfg.Import.Timeout)
	assert.Equal(t, ',', cfg.Import.Comma())

	assert.True(t, cfg.Rate.Enabled)
	assert.Equal(t, 100, cfg.Rate.RequestsPerMinute)
	assert.Equal(t, 10, cfg.Rate.ImportLimit)

	assert.True(t, cfg.Security.EnableCSP)
	assert.False(t, cfg.Security.RequireAPIKey)
	assert.Empty(t, cfg.Security.APIKeys)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("IMPORT_MAX_CONCURRENT", "12")
	t.Setenv("IMPORT_MAX_WAIT_TIME", "1m30s")
	t.Setenv("IMPORT_CSV_DELIMITER", ";")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 12, cfg.Import.MaxConcurrent)
	assert.Equal(t, 90*time.Second, cfg.Import.MaxWaitTime)
	assert.Equal(t, ';', cfg.Import.Comma())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Rate.Enabled)
}

func TestLoad_AlternatePortVariable(t *testing.T) {
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)

	t.Setenv("SERVER_PORT", "7070")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , ,192.168.0.0/16")
	t.Setenv("REQUIRE_API_KEY", "true")
	t.Setenv("API_KEYS", "alpha,beta")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}, cfg.Security.TrustedProxies)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Security.APIKeys)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		value   string
		mention string
	}{
		{"bad integer", "IMPORT_MAX_CONCURRENT", "many", "IMPORT_MAX_CONCURRENT"},
		{"bad duration", "IMPORT_TIMEOUT", "soon", "IMPORT_TIMEOUT"},
		{"bad boolean", "RATE_LIMIT_ENABLED", "maybe", "RATE_LIMIT_ENABLED"},
		{"bad delimiter", "IMPORT_CSV_DELIMITER", "::", "IMPORT_CSV_DELIMITER"},
		{"quote delimiter", "IMPORT_CSV_DELIMITER", `"`, "IMPORT_CSV_DELIMITER"},
		{"bad level", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"bad format", "LOG_FORMAT", "xml", "LOG_FORMAT"},
		{"bad port", "SERVER_PORT", "99999", "SERVER_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.mention)
		})
	}
}

func TestLoadStruct_AlternateAndUnsupported(t *testing.T) {
	type section struct {
		Name     string        `env:"FILEIMPORT_TEST_NAME" envAlt:"FILEIMPORT_TEST_ALT"`
		Wait     time.Duration `env:"FILEIMPORT_TEST_WAIT" default:"2s"`
		Untagged int
	}
	type settings struct {
		Section section
	}

	t.Setenv("FILEIMPORT_TEST_ALT", "fallback")
	var cfg settings
	require.NoError(t, loadStruct(reflect.ValueOf(&cfg).Elem()))
	assert.Equal(t, "fallback", cfg.Section.Name)
	assert.Equal(t, 2*time.Second, cfg.Section.Wait)
	assert.Zero(t, cfg.Section.Untagged)

	type unsupported struct {
		Ratio float64 `env:"FILEIMPORT_TEST_RATIO" default:"0.5"`
	}
	var bad unsupported
	err := loadStruct(reflect.ValueOf(&bad).Elem())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FILEIMPORT_TEST_RATIO: unsupported field type float64")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		mention string
	}{
		{"upload smaller than file", func(c *Config) { c.Import.MaxFileSize = 10; c.Import.MaxUploadSize = 5 }, "IMPORT_MAX_UPLOAD_SIZE"},
		{"no concurrency", func(c *Config) { c.Import.MaxConcurrent = 0 }, "IMPORT_MAX_CONCURRENT"},
		{"newline delimiter", func(c *Config) { c.Import.Delimiter = "\n" }, "IMPORT_CSV_DELIMITER"},
		{"rate without budget", func(c *Config) { c.Rate.RequestsPerMinute = 0 }, "RATE_LIMIT_REQUESTS_PER_MINUTE"},
		{"api key required without keys", func(c *Config) { c.Security.RequireAPIKey = true }, "API_KEYS"},
		{"zero shutdown", func(c *Config) { c.Server.ShutdownTimeout = 0 }, "SERVER_SHUTDOWN_TIMEOUT"},
	}

	require.NoError(t, validConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.mention)
		})
	}
}

func TestValidate_TabDelimiter(t *testing.T) {
	cfg := validConfig()
	cfg.Import.Delimiter = "\t"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, '\t', cfg.Import.Comma())
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
		{"::1", 443, "[::1]:443"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		assert.Equal(t, tt.want, cfg.Addr(), "host=%q port=%d", tt.host, tt.port)
	}
}

func TestConfigString_MasksAPIKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Security.APIKeys = []string{"super-secret-key", "another"}

	str := cfg.String()
	assert.NotContains(t, str, "super-secret-key")
	assert.NotContains(t, str, "another")
	assert.Contains(t, str, "2 MASKED")
}
