package cartstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/storefront-cart/internal/lineitem"
	"github.com/angelmondragon/storefront-cart/pkg/redis"
)

// HashClient is the subset of the redis client used by RedisStore.
type HashClient interface {
	HGet(ctx context.Context, key, field string) (string, error)
	HSet(ctx context.Context, key, field string, value any) error
	HDel(ctx context.Context, key string, fields ...string) error
	CartKey(namespace string) string
}

// RedisStore keeps one hash per namespace; fields are tenant ids and values
// are the JSON-encoded line sequence.
type RedisStore struct {
	client HashClient
	key    string
}

func NewRedisStore(client HashClient, namespace string) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStore{client: client, key: client.CartKey(namespaceOrDefault(namespace))}, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, tenantID string) ([]lineitem.LineIntent, error) {
	raw, err := s.client.HGet(ctx, s.key, tenantID)
	if err != nil {
		if redis.IsNil(err) {
			return []lineitem.LineIntent{}, nil
		}
		return nil, err
	}

	var lines []lineitem.LineIntent
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("decode cart for %s: %w", tenantID, err)
	}
	if lines == nil {
		lines = []lineitem.LineIntent{}
	}
	return lines, nil
}

// Put implements Store. An empty sequence removes the tenant's field.
func (s *RedisStore) Put(ctx context.Context, tenantID string, lines []lineitem.LineIntent) error {
	if len(lines) == 0 {
		return s.client.HDel(ctx, s.key, tenantID)
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart for %s: %w", tenantID, err)
	}
	return s.client.HSet(ctx, s.key, tenantID, string(payload))
}
