package config_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/mkrupp/underwritepro/internal/infra/config"
)

type testConfig struct {
	EnvConfig

	APIURL   string        `env:"API_URL" default:"https://backend.example"`
	Retries  int           `env:"RETRIES" default:"0"`
	Verbose  bool          `env:"VERBOSE" default:"false"`
	Timeout  time.Duration `env:"TIMEOUT" default:"30s"`
	MaxRatio float64       `env:"MAX_RATIO" default:"0.8"`
	NoEnvTag string
	Storage  testStorageConfig `envPrefix:"STORAGE_"`
}

type testStorageConfig struct {
	Backend string `env:"BACKEND" default:"filesystem"`
	MaxSize int64  `env:"MAX_SIZE" default:"1048576"`
}

func defaults() testConfig {
	return testConfig{
		APIURL:   "https://backend.example",
		Timeout:  30 * time.Second,
		MaxRatio: 0.8,
		Storage: testStorageConfig{
			Backend: "filesystem",
			MaxSize: 1 << 20,
		},
	}
}

//nolint:paralleltest
func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		envVars map[string]string
		want    func(*testConfig)
		wantErr bool
	}{
		{
			name:   "uses default values when env vars not set",
			prefix: "",
			want:   func(*testConfig) {},
		},
		{
			name:   "reads environment variables",
			prefix: "",
			envVars: map[string]string{
				"API_URL":         "http://localhost:8000",
				"RETRIES":         "3",
				"VERBOSE":         "true",
				"TIMEOUT":         "1m30s",
				"MAX_RATIO":       "0.75",
				"STORAGE_BACKEND": "sqlite",
			},
			want: func(cfg *testConfig) {
				cfg.APIURL = "http://localhost:8000"
				cfg.Retries = 3
				cfg.Verbose = true
				cfg.Timeout = 90 * time.Second
				cfg.MaxRatio = 0.75
				cfg.Storage.Backend = "sqlite"
			},
		},
		{
			name:   "prefers more specific namespace",
			prefix: "UWP_CLI",
			envVars: map[string]string{
				"UWP_API_URL":     "http://less-specific",
				"UWP_CLI_API_URL": "http://more-specific",
			},
			want: func(cfg *testConfig) {
				cfg.APIURL = "http://more-specific"
			},
		},
		{
			name:   "falls back to shorter namespace",
			prefix: "UWP_CLI",
			envVars: map[string]string{
				"UWP_STORAGE_BACKEND": "redis",
			},
			want: func(cfg *testConfig) {
				cfg.Storage.Backend = "redis"
			},
		},
		{
			name:   "handles empty string values",
			prefix: "",
			envVars: map[string]string{
				"API_URL": "",
			},
			want: func(cfg *testConfig) {
				cfg.APIURL = ""
			},
		},
		{
			name:    "fails on invalid duration",
			envVars: map[string]string{"TIMEOUT": "soon"},
			wantErr: true,
		},
		{
			name:    "fails on invalid float",
			envVars: map[string]string{"MAX_RATIO": "most"},
			wantErr: true,
		},
		{
			name:    "fails on invalid bool value",
			envVars: map[string]string{"VERBOSE": "not-a-bool"},
			wantErr: true,
		},
	}

	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := &testConfig{}
			err := Parse(ctx, cfg, tt.prefix)

			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)

			want := defaults()
			tt.want(&want)

			assert.Equal(t, want.APIURL, cfg.APIURL)
			assert.Equal(t, want.Retries, cfg.Retries)
			assert.Equal(t, want.Verbose, cfg.Verbose)
			assert.Equal(t, want.Timeout, cfg.Timeout)
			assert.InDelta(t, want.MaxRatio, cfg.MaxRatio, 1e-9)
			assert.Empty(t, cfg.NoEnvTag)
			assert.Equal(t, want.Storage, cfg.Storage)
		})
	}
}

//nolint:paralleltest
func TestParseRequiredVariable(t *testing.T) {
	cfg := &struct {
		EnvConfig

		Token string `env:"TOKEN"`
	}{}

	err := Parse(context.Background(), cfg, "UWP")
	require.ErrorIs(t, err, ErrVarNotSet)

	t.Setenv("UWP_TOKEN", "abc")
	require.NoError(t, Parse(context.Background(), cfg, "UWP"))
	assert.Equal(t, "abc", cfg.Token)
}

func TestParseInvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  any
	}{
		{name: "non-pointer config", cfg: testConfig{}},
		{name: "non-struct pointer", cfg: new(string)},
		{
			name: "missing EnvConfig embedding",
			cfg: &struct {
				Value string `env:"VALUE"`
			}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Parse(context.Background(), tt.cfg, "")
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

//nolint:paralleltest
func TestParseExtendedTypes(t *testing.T) {
	cfg := &struct {
		EnvConfig

		Level   slog.Level `env:"LEVEL" default:"info"`
		Origins []string   `env:"ORIGINS" default:""`
		MaxSize uint32     `env:"MAX_SIZE" default:"20971520"`
	}{}

	t.Setenv("UWP_LEVEL", "warn")
	t.Setenv("UWP_WEBAPP_ORIGINS", "https://a.example, ,https://b.example")

	require.NoError(t, Parse(context.Background(), cfg, "UWP_WEBAPP"))
	assert.Equal(t, slog.LevelWarn, cfg.Level)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins)
	assert.Equal(t, uint32(20971520), cfg.MaxSize)
	assert.Equal(t, "UWP_WEBAPP", cfg.Namespace())
}

//nolint:paralleltest
func TestParseReportsAllErrors(t *testing.T) {
	cfg := &struct {
		EnvConfig

		Token   string        `env:"TOKEN"`
		Timeout time.Duration `env:"TIMEOUT" default:"1s"`
		Nested  struct {
			Size int `env:"SIZE" default:"1"`
		} `envPrefix:"DOCS_"`
	}{}

	t.Setenv("UWP_CLI_TIMEOUT", "soon")
	t.Setenv("UWP_DOCS_SIZE", "big")

	err := Parse(context.Background(), cfg, "UWP_CLI")
	require.ErrorIs(t, err, ErrVarNotSet)
	assert.Contains(t, err.Error(), "UWP_CLI_TOKEN", "the most specific name is reported")
	assert.Contains(t, err.Error(), "UWP_CLI_TIMEOUT: invalid duration")
	assert.Contains(t, err.Error(), "UWP_DOCS_SIZE: invalid integer")
}
