package source

import (
	"context"
	"iter"

	"github.com/KOMKZ/go-yogan-confres/property"
	"github.com/KOMKZ/go-yogan-confres/retry"
	"github.com/redis/go-redis/v9"
)

// RedisParser reads a redis hash: "redis:myapp:config" loads HGETALL
// myapp:config, each field is a dotted key.
type RedisParser struct {
	client redis.Cmdable
	retry  []retry.Option
}

// NewRedisParser creates a redis parser. Fetches retry with opts.
func NewRedisParser(client redis.Cmdable, opts ...retry.Option) *RedisParser {
	return &RedisParser{client: client, retry: opts}
}

// Parse implements Parser. A missing hash is an empty source.
func (p *RedisParser) Parse(ctx context.Context, id SourceID) iter.Seq2[property.RawProperty, error] {
	key := id.Location()

	return func(yield func(property.RawProperty, error) bool) {
		fields, err := retry.DoWithData(ctx, func(ctx context.Context) (map[string]string, error) {
			return p.client.HGetAll(ctx, key).Result()
		}, p.retry...)
		if err != nil {
			yield(property.RawProperty{}, parseErr(id, "redis HGETALL failed", err))
			return
		}

		values := make(map[string]any, len(fields))
		for k, v := range fields {
			values[k] = v
		}
		for raw, err := range emit(id, values) {
			if !yield(raw, err) {
				return
			}
		}
	}
}
