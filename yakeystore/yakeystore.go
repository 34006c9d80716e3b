// Package yakeystore persists generated keypairs so the HTTP API can refer
// to them by ID.
//
// Three backends implement Store: Memory for a single process and tests,
// Redis (records packed with MessagePack, expiry left to Redis) and Gorm
// (one row per record, SQLite through the pure Go modernc driver).
//
// Example:
//
//	store, err := yakeystore.New(ctx, yakeystore.Options{Backend: yakeystore.BackendMemory}, log)
//	if err != nil {
//	    log.Fatalf("key store: %v", err)
//	}
//
//	record := yakeystore.NewRecord(params)
//	_ = store.Save(ctx, record)
//
//	loaded, _ := store.Load(ctx, record.ID)
package yakeystore

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/YaCodeDev/GoYaVarRSA/yalogger"
	"github.com/YaCodeDev/GoYaVarRSA/yarsa"
	"github.com/google/uuid"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Store keeps KeyRecords by ID. A missing or expired record is
// yaerrors.ErrKeyNotFound.
type Store interface {
	Save(ctx context.Context, record *KeyRecord) yaerrors.Error
	Load(ctx context.Context, id string) (*KeyRecord, yaerrors.Error)
	Delete(ctx context.Context, id string) yaerrors.Error
	Ping(ctx context.Context) yaerrors.Error
}

// KeyRecord is the persisted form of yarsa.KeyParameters. Numbers are
// decimal strings so every backend stores them without size limits.
type KeyRecord struct {
	ID              string    `gorm:"primaryKey" msgpack:"id"`
	Bits            int       `msgpack:"bits"`
	PrimeP          string    `gorm:"type:text" msgpack:"p"`
	PrimeQ          string    `gorm:"type:text" msgpack:"q"`
	Modulus         string    `gorm:"type:text" msgpack:"n"`
	Totient         string    `gorm:"type:text" msgpack:"phi"`
	PublicExponent  string    `gorm:"type:text" msgpack:"e"`
	PrivateExponent string    `gorm:"type:text" msgpack:"d"`
	CreatedAt       time.Time `gorm:"autoCreateTime" msgpack:"created_at"`
	ExpiresAt       time.Time `gorm:"index" msgpack:"expires_at"`
}

// NewRecord wraps params in a record with a fresh random ID.
func NewRecord(params *yarsa.KeyParameters) *KeyRecord {
	return &KeyRecord{
		ID:              uuid.NewString(),
		Bits:            params.Bits(),
		PrimeP:          params.PrimeP.String(),
		PrimeQ:          params.PrimeQ.String(),
		Modulus:         params.Modulus.String(),
		Totient:         params.Totient.String(),
		PublicExponent:  params.PublicExponent.String(),
		PrivateExponent: params.PrivateExponent.String(),
		CreatedAt:       time.Now().UTC(),
	}
}

// KeyParameters parses the record back and checks the key invariants.
func (r *KeyRecord) KeyParameters() (*yarsa.KeyParameters, yaerrors.Error) {
	fields := []struct {
		name  string
		value string
	}{
		{"p", r.PrimeP},
		{"q", r.PrimeQ},
		{"n", r.Modulus},
		{"phi", r.Totient},
		{"e", r.PublicExponent},
		{"d", r.PrivateExponent},
	}

	values := make([]*big.Int, len(fields))

	for i, field := range fields {
		value, ok := new(big.Int).SetString(field.value, 10)
		if !ok {
			return nil, yaerrors.FromError(
				http.StatusInternalServerError,
				yaerrors.ErrMalformedInput,
				fmt.Sprintf("[KEYSTORE] record %s has a malformed %s", r.ID, field.name),
			)
		}

		values[i] = value
	}

	params := &yarsa.KeyParameters{
		PrimeP:          values[0],
		PrimeQ:          values[1],
		Modulus:         values[2],
		Totient:         values[3],
		PublicExponent:  values[4],
		PrivateExponent: values[5],
	}

	if err := params.Validate(); err != nil {
		return nil, err.Wrapf("[KEYSTORE] record %s is inconsistent", r.ID)
	}

	return params, nil
}

func (r *KeyRecord) expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Options selects and configures a backend for New.
type Options struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DatabasePath  string
}

// New builds the backend named by opts.Backend and pings it.
func New(ctx context.Context, opts Options, log yalogger.Logger) (Store, yaerrors.Error) {
	log = yalogger.OrDefault(log).WithField(yalogger.KeyOperation, "keystore")

	var store Store

	switch opts.Backend {
	case BackendMemory, "":
		store = NewMemory(opts.TTL)
	case BackendRedis:
		client, err := NewRedisClient(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, log)
		if err != nil {
			return nil, err.Wrap("[KEYSTORE] failed to connect redis")
		}

		store = NewRedis(client, opts.TTL)
	case BackendSQLite:
		poolDB, err := OpenSQLite(opts.DatabasePath)
		if err != nil {
			return nil, err.Wrap("[KEYSTORE] failed to open sqlite")
		}

		gormStore, err := NewGorm(poolDB, opts.TTL)
		if err != nil {
			return nil, err.Wrap("[KEYSTORE] failed to prepare sqlite")
		}

		store = gormStore
	default:
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			yaerrors.ErrInvalidConfig,
			fmt.Sprintf("[KEYSTORE] unknown backend %q", opts.Backend),
		)
	}

	if err := store.Ping(ctx); err != nil {
		return nil, err.Wrap("[KEYSTORE] backend is not reachable")
	}

	log.Infof("Key store backend %s ready", opts.Backend)

	return store, nil
}

func notFound(id string) yaerrors.Error {
	return yaerrors.FromError(
		http.StatusNotFound,
		yaerrors.ErrKeyNotFound,
		fmt.Sprintf("[KEYSTORE] key %s", id),
	)
}
