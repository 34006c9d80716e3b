package yakeystore

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/YaCodeDev/GoYaVarRSA/yabackoff"
	"github.com/YaCodeDev/GoYaVarRSA/yaencoding"
	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/YaCodeDev/GoYaVarRSA/yalogger"
	"github.com/redis/go-redis/v9"
)

const (
	// redisKeyPrefix namespaces records as vlrsa:key:<id>.
	redisKeyPrefix = "vlrsa:key:"

	redisConnectAttempts  = 3
	redisRetryInterval    = 100 * time.Millisecond
	redisRetryMaxInterval = time.Second
)

// Redis stores MessagePack-encoded records under vlrsa:key:<id>. Expiry is
// delegated to Redis.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps an already configured client. A ttl of zero keeps records
// forever.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := yakeystore.NewRedis(client, time.Hour)
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// NewRedisClient dials addr and PINGs it, retrying with exponential
// back-off up to redisConnectAttempts times.
func NewRedisClient(
	ctx context.Context,
	addr string,
	password string,
	db int,
	log yalogger.Logger,
) (*redis.Client, yaerrors.Error) {
	log = yalogger.OrDefault(log)

	log.Infof("Redis connecting to addr %s", addr)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	backoff := yabackoff.NewExponential(redisRetryInterval, 2, redisRetryMaxInterval)

	err := yabackoff.Retry(ctx, redisConnectAttempts, &backoff, func(ctx context.Context) error {
		err := client.Ping(ctx).Err()
		if err != nil {
			log.Warnf("Redis ping to %s failed: %v", addr, err)
		}

		return err
	})
	if err != nil {
		_ = client.Close()

		return nil, yaerrors.FromErrorWithLog(
			http.StatusInternalServerError,
			err,
			"[REDIS] failed to ping",
			log,
		)
	}

	log.Infof("Redis connected to addr %s", addr)

	return client, nil
}

// Raw exposes the underlying client.
func (r *Redis) Raw() *redis.Client {
	return r.client
}

func (r *Redis) Save(ctx context.Context, record *KeyRecord) yaerrors.Error {
	packed, err := yaencoding.EncodeMessagePack(record)
	if err != nil {
		return err.Wrap("[REDIS] failed to encode key record")
	}

	if err := r.client.Set(ctx, redisKeyPrefix+record.ID, packed, r.ttl).Err(); err != nil {
		return yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			"[REDIS] failed `SET` key record",
		)
	}

	return nil
}

func (r *Redis) Load(ctx context.Context, id string) (*KeyRecord, yaerrors.Error) {
	packed, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(id)
	}

	if err != nil {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			"[REDIS] failed `GET` key record",
		)
	}

	record, yaerr := yaencoding.DecodeMessagePack[KeyRecord](packed)
	if yaerr != nil {
		return nil, yaerr.Wrapf("[REDIS] failed to decode key record %s", id)
	}

	return record, nil
}

func (r *Redis) Delete(ctx context.Context, id string) yaerrors.Error {
	removed, err := r.client.Del(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			"[REDIS] failed `DEL` key record",
		)
	}

	if removed == 0 {
		return notFound(id)
	}

	return nil
}

func (r *Redis) Ping(ctx context.Context) yaerrors.Error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			"[REDIS] failed `PING`",
		)
	}

	return nil
}
