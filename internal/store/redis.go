package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisPrefix = "cbot:"

	// llmEventCap bounds the Redis event list; older events are trimmed.
	llmEventCap = 1000
)

// Redis is a Backing on a Redis server. Every key is namespaced under
// "cbot:".
type Redis struct {
	client *redis.Client
}

// OpenRedis connects to the server at url (redis://[user:pass@]host:port/db)
// and checks it is reachable.
func OpenRedis(ctx context.Context, url string) (*Redis, error) {
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(client), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.client.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, redisPrefix+key, value, 0).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, redisPrefix+key).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

const (
	llmEventsKey = redisPrefix + "llm_requests"
	llmSeqKey    = redisPrefix + "llm_requests:seq"
)

func (r *Redis) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	id, err := r.client.Incr(ctx, llmSeqKey).Result()
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	raw, err := json.Marshal(LLMEvent{ID: id, Sequence: id, Timestamp: time.Now().UTC(), LLMRequestEventData: data})
	if err != nil {
		return fmt.Errorf("marshal LLM event: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, llmEventsKey, raw)
		p.LTrim(ctx, llmEventsKey, 0, llmEventCap-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *Redis) QueryLLMEvents(ctx context.Context, limit int) ([]LLMEvent, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	vals, err := r.client.LRange(ctx, llmEventsKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	out := make([]LLMEvent, 0, len(vals))
	for _, v := range vals {
		var e LLMEvent
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("decode LLM event: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *Redis) GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error) {
	events, err := r.QueryLLMEvents(ctx, 0)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, nil
}
