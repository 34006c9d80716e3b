package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/YaCodeDev/GoYaVarRSA/valueparser"
	"github.com/YaCodeDev/GoYaVarRSA/yablock"
	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/YaCodeDev/GoYaVarRSA/yalogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToScreamingSnakeCase(t *testing.T) {
	cases := map[string]string{
		"KeyBits":         "KEY_BITS",
		"HTTPAddr":        "HTTP_ADDR",
		"KeyTTL":          "KEY_TTL",
		"DB":              "DB",
		"PrimeIterations": "PRIME_ITERATIONS",
		"VerifyBlocks":    "VERIFY_BLOCKS",
	}

	for in, want := range cases {
		assert.Equal(t, want, toScreamingSnakeCase(in), in)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.Nil(t, err)

	assert.Equal(t, 2048, cfg.KeyBits)
	assert.Equal(t, 100, cfg.PrimeIterations)
	assert.Equal(t, 214, cfg.BlockSize)
	assert.Equal(t, yablock.PaddingMarker, cfg.Padding)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 65536, cfg.RetryLimit)
	assert.False(t, cfg.VerifyBlocks)
	assert.Equal(t, yalogger.InfoLevel, cfg.EffectiveLogLevel())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Addr)
	assert.Empty(t, cfg.Store.Redis.Password)
	assert.Zero(t, cfg.KeyTTL())

	codec, err := cfg.Codec()
	require.Nil(t, err)
	assert.Equal(t, 256, codec.CipherSize())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("KEY_BITS", "512")
	t.Setenv("BLOCK_SIZE", "60")
	t.Setenv("PADDING", "zero")
	t.Setenv("VERBOSE", "true")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("STORE_REDIS_ADDR", "redis:6380")
	t.Setenv("STORE_REDIS_DB", "2")
	t.Setenv("STORE_KEY_TTL", "30")

	cfg, err := Load(nil)
	require.Nil(t, err)

	assert.Equal(t, 512, cfg.KeyBits)
	assert.Equal(t, yablock.PaddingZero, cfg.Padding)
	assert.Equal(t, yalogger.WarnLevel, cfg.LogLevel)
	assert.Equal(t, yalogger.DebugLevel, cfg.EffectiveLogLevel())
	assert.Equal(t, "redis:6380", cfg.Store.Redis.Addr)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, 30*time.Second, cfg.KeyTTL())

	codec, err := cfg.Codec()
	require.Nil(t, err)
	assert.Equal(t, 60, codec.PlainSize())
	assert.Equal(t, 64, codec.CipherSize())
}

func TestLoad_VerboseNeverLowersLevel(t *testing.T) {
	t.Setenv("VERBOSE", "true")
	t.Setenv("LOG_LEVEL", "trace")

	cfg, err := Load(nil)
	require.Nil(t, err)

	assert.Equal(t, yalogger.TraceLevel, cfg.EffectiveLogLevel())
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"block size equals modulus bytes", "BLOCK_SIZE", "256"},
		{"block size zero", "BLOCK_SIZE", "0"},
		{"bits not multiple of 8", "KEY_BITS", "2050"},
		{"bits too small", "KEY_BITS", "32"},
		{"no workers", "WORKERS", "0"},
		{"no iterations", "PRIME_ITERATIONS", "-1"},
		{"unknown backend", "STORE_BACKEND", "etcd"},
		{"negative ttl", "STORE_KEY_TTL", "-5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)

			_, err := Load(nil)

			require.NotNil(t, err)
			assert.ErrorIs(t, err, yaerrors.ErrInvalidConfig)
		})
	}
}

func TestLoad_Unparsable(t *testing.T) {
	t.Setenv("PADDING", "pkcs7")

	_, err := Load(nil)

	require.NotNil(t, err)
	assert.ErrorIs(t, err, valueparser.ErrInvalidValue)
}

func TestLoadConfigStruct_RequiredAndEnvTag(t *testing.T) {
	type custom struct {
		Name  string `env:"CUSTOM_NAME_OVERRIDE"`
		Count int
	}

	t.Setenv("CUSTOM_NAME_OVERRIDE", "vlrsa")

	var cfg custom

	err := LoadConfigStructFromEnvHandlingError(&cfg, nil)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrValueIsRequired)

	t.Setenv("COUNT", "3")

	cfg = custom{}
	require.Nil(t, LoadConfigStructFromEnvHandlingError(&cfg, nil))
	assert.Equal(t, custom{Name: "vlrsa", Count: 3}, cfg)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	content := "# comment\n" +
		"export DOTENV_FIRST=one\n" +
		"DOTENV_QUOTED=\"two words\"\n" +
		"DOTENV_KEPT=file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("DOTENV_KEPT", "environment")
	t.Setenv("DOTENV_FIRST", "")
	require.NoError(t, os.Unsetenv("DOTENV_FIRST"))
	t.Setenv("DOTENV_QUOTED", "")
	require.NoError(t, os.Unsetenv("DOTENV_QUOTED"))

	require.NoError(t, loadDotEnv(path))

	assert.Equal(t, "one", os.Getenv("DOTENV_FIRST"))
	assert.Equal(t, "two words", os.Getenv("DOTENV_QUOTED"))
	assert.Equal(t, "environment", os.Getenv("DOTENV_KEPT"))

	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	broken := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(broken, []byte("NO_EQUALS_SIGN\n"), 0o600))
	assert.ErrorIs(t, loadDotEnv(broken), ErrInvalidDotEnvFileFormat)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("GETENV_WORKERS", "8")
	t.Setenv("GETENV_BROKEN", "eight")

	assert.Equal(t, 8, GetEnv("GETENV_WORKERS", 1, false, nil))
	assert.Equal(t, 1, GetEnv("GETENV_BROKEN", 1, false, nil))
	assert.Equal(t, "fallback", GetEnv("GETENV_MISSING", "fallback", false, nil))
}
