package yakeystore_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/YaCodeDev/GoYaVarRSA/yakeystore"
	"github.com/YaCodeDev/GoYaVarRSA/yarsa"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParams(t *testing.T) *yarsa.KeyParameters {
	t.Helper()

	params, err := yarsa.KeypairFromPrimes(
		big.NewInt(2147483647),
		big.NewInt(1000000007),
		yarsa.NewDeterministicReader([]byte("keystore")),
	)
	require.Nil(t, err)

	return params
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		_ = client.Close()
	})

	return mr, client
}

func newGorm(t *testing.T, ttl time.Duration) *yakeystore.Gorm {
	t.Helper()

	poolDB, err := yakeystore.OpenSQLite(":memory:")
	require.Nil(t, err)

	store, err := yakeystore.NewGorm(poolDB, ttl)
	require.Nil(t, err)

	return store
}

func runStoreWorkflow(t *testing.T, store yakeystore.Store) {
	t.Helper()

	ctx := context.Background()
	params := newParams(t)
	record := yakeystore.NewRecord(params)

	require.Nil(t, store.Ping(ctx))

	t.Run("Save and Load works", func(t *testing.T) {
		require.Nil(t, store.Save(ctx, record))

		loaded, err := store.Load(ctx, record.ID)
		require.Nil(t, err)

		assert.Equal(t, record.ID, loaded.ID)
		assert.Equal(t, record.Bits, loaded.Bits)
		assert.Equal(t, record.Modulus, loaded.Modulus)
		assert.Equal(t, record.PrivateExponent, loaded.PrivateExponent)

		restored, err := loaded.KeyParameters()
		require.Nil(t, err)
		assert.Equal(t, 0, restored.PublicExponent.Cmp(params.PublicExponent))
	})

	t.Run("Save overwrites", func(t *testing.T) {
		updated := *record
		updated.Bits = 1

		require.Nil(t, store.Save(ctx, &updated))

		loaded, err := store.Load(ctx, record.ID)
		require.Nil(t, err)
		assert.Equal(t, 1, loaded.Bits)
	})

	t.Run("Unknown ID is not found", func(t *testing.T) {
		_, err := store.Load(ctx, "missing")

		require.NotNil(t, err)
		assert.ErrorIs(t, err, yaerrors.ErrKeyNotFound)
		assert.Equal(t, 404, err.Code())

		_, err = store.Load(ctx, "")
		assert.ErrorIs(t, err, yaerrors.ErrKeyNotFound)
	})

	t.Run("Delete works", func(t *testing.T) {
		require.Nil(t, store.Delete(ctx, record.ID))

		_, err := store.Load(ctx, record.ID)
		assert.ErrorIs(t, err, yaerrors.ErrKeyNotFound)

		assert.ErrorIs(t, store.Delete(ctx, record.ID), yaerrors.ErrKeyNotFound)
	})
}

func TestMemoryStore_Workflow(t *testing.T) {
	runStoreWorkflow(t, yakeystore.NewMemory(0))
}

func TestRedisStore_Workflow(t *testing.T) {
	_, client := setupTestRedis(t)

	runStoreWorkflow(t, yakeystore.NewRedis(client, 0))
}

func TestGormStore_Workflow(t *testing.T) {
	runStoreWorkflow(t, newGorm(t, 0))
}

func TestGormStore_AutoMigrate(t *testing.T) {
	poolDB, err := yakeystore.OpenSQLite(":memory:")
	require.Nil(t, err)

	_, err = yakeystore.NewGorm(poolDB, 0)
	require.Nil(t, err)

	assert.True(t, poolDB.Migrator().HasTable(&yakeystore.KeyRecord{}))
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	store := yakeystore.NewRedis(client, time.Minute)
	record := yakeystore.NewRecord(newParams(t))

	require.Nil(t, store.Save(ctx, record))
	assert.Equal(t, time.Minute, mr.TTL("vlrsa:key:"+record.ID))

	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, record.ID)
	assert.ErrorIs(t, err, yaerrors.ErrKeyNotFound)
}

func TestRedisStore_CorruptedRecord(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	store := yakeystore.NewRedis(client, 0)

	require.NoError(t, mr.Set("vlrsa:key:broken", "not-msgpack-data"))

	_, err := store.Load(ctx, "broken")
	assert.ErrorIs(t, err, yaerrors.ErrMalformedInput)
}

func TestExpiringStores(t *testing.T) {
	const ttl = 20 * time.Millisecond

	stores := map[string]yakeystore.Store{
		"memory": yakeystore.NewMemory(ttl),
		"gorm":   newGorm(t, ttl),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			record := yakeystore.NewRecord(newParams(t))

			require.Nil(t, store.Save(ctx, record))

			_, err := store.Load(ctx, record.ID)
			require.Nil(t, err)

			time.Sleep(2 * ttl)

			_, err = store.Load(ctx, record.ID)
			assert.ErrorIs(t, err, yaerrors.ErrKeyNotFound)
		})
	}
}

func TestKeyRecord_KeyParametersRejectsBadRecords(t *testing.T) {
	record := yakeystore.NewRecord(newParams(t))

	broken := *record
	broken.Modulus = "12x"

	_, err := broken.KeyParameters()
	assert.ErrorIs(t, err, yaerrors.ErrMalformedInput)

	broken = *record
	broken.PrivateExponent = "7"

	_, err = broken.KeyParameters()
	assert.ErrorIs(t, err, yaerrors.ErrInvariantViolation)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("Memory", func(t *testing.T) {
		store, err := yakeystore.New(ctx, yakeystore.Options{Backend: yakeystore.BackendMemory}, nil)
		require.Nil(t, err)
		assert.IsType(t, &yakeystore.Memory{}, store)
	})

	t.Run("Redis", func(t *testing.T) {
		mr := miniredis.RunT(t)

		store, err := yakeystore.New(ctx, yakeystore.Options{
			Backend:   yakeystore.BackendRedis,
			RedisAddr: mr.Addr(),
		}, nil)
		require.Nil(t, err)
		assert.IsType(t, &yakeystore.Redis{}, store)
	})

	t.Run("SQLite", func(t *testing.T) {
		store, err := yakeystore.New(ctx, yakeystore.Options{
			Backend:      yakeystore.BackendSQLite,
			DatabasePath: ":memory:",
		}, nil)
		require.Nil(t, err)
		assert.IsType(t, &yakeystore.Gorm{}, store)
	})

	t.Run("Unknown backend", func(t *testing.T) {
		_, err := yakeystore.New(ctx, yakeystore.Options{Backend: "etcd"}, nil)
		assert.ErrorIs(t, err, yaerrors.ErrInvalidConfig)
	})
}

func TestNewRedisClient_Retries(t *testing.T) {
	ctx := context.Background()

	t.Run("Recovers once Redis is back", func(t *testing.T) {
		mr := miniredis.RunT(t)
		mr.Close()

		go func() {
			time.Sleep(30 * time.Millisecond)
			_ = mr.Restart()
		}()

		client, err := yakeystore.NewRedisClient(ctx, mr.Addr(), "", 0, nil)
		require.Nil(t, err)

		_ = client.Close()
	})

	t.Run("Gives up when Redis stays down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := yakeystore.NewRedisClient(ctx, addr, "", 0, nil)
		require.Error(t, err)
	})
}
