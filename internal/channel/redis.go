package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"melina-board/internal/metrics"
)

const keyPrefix = "board:"

func boardKey(key string) string       { return keyPrefix + key }
func updatesChannel(key string) string { return keyPrefix + key + ":updates" }

// envelope is what travels on the updates channel. Origin names the handle
// that wrote, so it can skip its own publications.
type envelope struct {
	Origin string `json:"origin"`
	Value  []byte `json:"value"`
}

// RedisChannel keeps each board in a string key and announces writes on a
// pub/sub channel next to it.
type RedisChannel struct {
	client *redis.Client
	origin string
	logger zerolog.Logger
}

// NewRedisClient parses url and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

func NewRedisChannel(client *redis.Client, logger zerolog.Logger) *RedisChannel {
	return &RedisChannel{
		client: client,
		origin: uuid.NewString(),
		logger: logger,
	}
}

// Origin identifies this handle in published envelopes.
func (c *RedisChannel) Origin() string {
	return c.origin
}

func (c *RedisChannel) Read(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	v, err := c.client.Get(ctx, boardKey(key)).Bytes()
	metrics.RedisLatency.Observe(time.Since(start).Seconds())
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return v, true, nil
}

// Write stores value and publishes it in one transaction.
func (c *RedisChannel) Write(ctx context.Context, key string, value []byte) error {
	msg, err := json.Marshal(envelope{Origin: c.origin, Value: value})
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, boardKey(key), value, 0)
		pipe.Publish(ctx, updatesChannel(key), msg)
		return nil
	})
	metrics.RedisLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (c *RedisChannel) Subscribe(key string, fn func([]byte)) (func(), error) {
	ctx := context.Background()
	pubsub := c.client.Subscribe(ctx, updatesChannel(key))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", key, err)
	}

	go func() {
		for msg := range pubsub.Channel() {
			value, own, err := c.unwrap([]byte(msg.Payload))
			if err != nil {
				c.logger.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed update")
				continue
			}
			if !own {
				fn(value)
			}
		}
	}()

	return func() { pubsub.Close() }, nil
}

// SubscribeAll follows writes from other handles to every board. Board
// servers use it to relay updates between instances.
func (c *RedisChannel) SubscribeAll(fn func(key string, value []byte)) (func(), error) {
	ctx := context.Background()
	pubsub := c.client.PSubscribe(ctx, updatesChannel("*"))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe all boards: %w", err)
	}

	go func() {
		for msg := range pubsub.Channel() {
			key, ok := keyFromChannel(msg.Channel)
			if !ok {
				continue
			}
			value, own, err := c.unwrap([]byte(msg.Payload))
			if err != nil {
				c.logger.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed update")
				continue
			}
			if !own {
				fn(key, value)
			}
		}
	}()

	return func() { pubsub.Close() }, nil
}

func keyFromChannel(name string) (string, bool) {
	if !strings.HasPrefix(name, keyPrefix) || !strings.HasSuffix(name, ":updates") {
		return "", false
	}
	key := strings.TrimSuffix(strings.TrimPrefix(name, keyPrefix), ":updates")
	return key, key != ""
}

func (c *RedisChannel) unwrap(payload []byte) ([]byte, bool, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, false, err
	}
	return env.Value, env.Origin == c.origin, nil
}
