package config

import (
	"fmt"
	"net/http"
	"time"

	"github.com/YaCodeDev/GoYaVarRSA/yablock"
	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/YaCodeDev/GoYaVarRSA/yalogger"
)

const (
	minKeyBits = 64
	bitsInByte = 8
)

// Config is the runtime configuration of the yavlrsa binary. Every field is
// read from the environment (or .env) under its SCREAMING_SNAKE_CASE name,
// nested fields prefixed by their parent: Store.Redis.Addr is
// STORE_REDIS_ADDR.
type Config struct {
	KeyBits         int             `default:"2048"`
	MaxKeyBits      int             `default:"4096"`
	PrimeIterations int             `default:"100"`
	BlockSize       int             `default:"214"`
	Padding         yablock.Padding `default:"marker"`
	Workers         int             `default:"4"`
	RetryLimit      int             `default:"65536"`
	VerifyBlocks    bool            `default:"false"`
	Verbose         bool            `default:"false"`
	LogLevel        yalogger.Level  `default:"info"`
	HTTPAddr        string          `default:":8080"`
	KeySeed         string          `default:""`
	Store           StoreConfig
}

// StoreConfig selects the key store backend.
type StoreConfig struct {
	Backend      string `default:"memory"`
	KeyTTL       int    `default:"0"`
	DatabasePath string `default:"vlrsa.db"`
	Redis        RedisConfig
}

type RedisConfig struct {
	Addr     string `default:"localhost:6379"`
	Password string `default:""`
	DB       int    `default:"0"`
}

// Load reads the configuration from the environment and validates it.
//
// Example:
//
//	cfg, err := config.Load(log)
//	if err != nil {
//	    log.Fatalf("config: %v", err)
//	}
func Load(log yalogger.Logger) (*Config, yaerrors.Error) {
	var cfg Config

	if err := LoadConfigStructFromEnvHandlingError(&cfg, log); err != nil {
		return nil, err.Wrap("failed to load config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err.Wrap("invalid config")
	}

	return &cfg, nil
}

// Validate checks the relations between fields. Any failure is
// yaerrors.ErrInvalidConfig.
func (c *Config) Validate() yaerrors.Error {
	switch {
	case c.KeyBits < minKeyBits || c.KeyBits%bitsInByte != 0:
		return invalid("KEY_BITS must be a multiple of 8 and at least %d, got %d", minKeyBits, c.KeyBits)
	case c.MaxKeyBits < c.KeyBits || c.MaxKeyBits%bitsInByte != 0:
		return invalid("MAX_KEY_BITS must be a multiple of 8 not below KEY_BITS, got %d", c.MaxKeyBits)
	case c.BlockSize <= 0 || c.BlockSize >= c.KeyBits/bitsInByte:
		return invalid("BLOCK_SIZE must be in (0, %d), got %d", c.KeyBits/bitsInByte, c.BlockSize)
	case c.PrimeIterations < 1:
		return invalid("PRIME_ITERATIONS must be positive, got %d", c.PrimeIterations)
	case c.Workers < 1:
		return invalid("WORKERS must be positive, got %d", c.Workers)
	case c.RetryLimit < 1:
		return invalid("RETRY_LIMIT must be positive, got %d", c.RetryLimit)
	case c.Store.KeyTTL < 0:
		return invalid("STORE_KEY_TTL must not be negative, got %d", c.Store.KeyTTL)
	}

	switch c.Store.Backend {
	case "memory", "redis", "sqlite":
	default:
		return invalid("STORE_BACKEND must be memory, redis or sqlite, got %q", c.Store.Backend)
	}

	return nil
}

// EffectiveLogLevel is LogLevel, raised to debug when Verbose is set.
func (c *Config) EffectiveLogLevel() yalogger.Level {
	if c.Verbose && c.LogLevel < yalogger.DebugLevel {
		return yalogger.DebugLevel
	}

	return c.LogLevel
}

// Codec builds the block codec for KeyBits keys.
func (c *Config) Codec() (*yablock.Codec, yaerrors.Error) {
	return yablock.NewCodec(c.BlockSize, c.KeyBits/bitsInByte, c.Padding)
}

// KeyTTL returns Store.KeyTTL as a duration; zero means no expiry.
func (c *Config) KeyTTL() time.Duration {
	return time.Duration(c.Store.KeyTTL) * time.Second
}

func invalid(format string, args ...any) yaerrors.Error {
	return yaerrors.FromError(
		http.StatusInternalServerError,
		yaerrors.ErrInvalidConfig,
		fmt.Sprintf(format, args...),
	)
}

// CodecFor builds a codec for keys of cipherSize bytes. BlockSize is capped
// at cipherSize-1 so smaller keys than KeyBits still work.
func (c *Config) CodecFor(cipherSize int) (*yablock.Codec, yaerrors.Error) {
	return yablock.NewCodec(min(c.BlockSize, cipherSize-1), cipherSize, c.Padding)
}
