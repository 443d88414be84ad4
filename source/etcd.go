package source

import (
	"context"
	"iter"
	"strings"

	"github.com/KOMKZ/go-yogan-confres/property"
	"github.com/KOMKZ/go-yogan-confres/retry"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdGetter the part of clientv3.KV the etcd parser uses
type EtcdGetter interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
}

// EtcdParser reads every key under a prefix: for "etcd:/myapp/config",
// /myapp/config/app/port becomes app.port.
type EtcdParser struct {
	kv    EtcdGetter
	retry []retry.Option
}

// NewEtcdParser creates an etcd parser. Fetches retry with opts.
func NewEtcdParser(kv EtcdGetter, opts ...retry.Option) *EtcdParser {
	return &EtcdParser{kv: kv, retry: opts}
}

// Parse implements Parser
func (p *EtcdParser) Parse(ctx context.Context, id SourceID) iter.Seq2[property.RawProperty, error] {
	prefix := id.Location()

	return func(yield func(property.RawProperty, error) bool) {
		resp, err := retry.DoWithData(ctx, func(ctx context.Context) (*clientv3.GetResponse, error) {
			return p.kv.Get(ctx, prefix,
				clientv3.WithPrefix(),
				clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend),
			)
		}, p.retry...)
		if err != nil {
			yield(property.RawProperty{}, parseErr(id, "etcd get failed", err))
			return
		}

		values := make(map[string]any, len(resp.Kvs))
		for _, kv := range resp.Kvs {
			key := etcdKeyToConfigKey(prefix, string(kv.Key))
			if key == "" {
				continue
			}
			values[key] = string(kv.Value)
		}
		for raw, err := range emit(id, values) {
			if !yield(raw, err) {
				return
			}
		}
	}
}

// etcdKeyToConfigKey converts /myapp/config/app/port under /myapp/config to app.port
func etcdKeyToConfigKey(prefix, key string) string {
	key = strings.TrimPrefix(key, prefix)
	if !strings.HasSuffix(prefix, "/") && !strings.HasPrefix(key, "/") {
		// sibling key sharing the prefix text, e.g. /myapplication under /myapp
		return ""
	}
	key = strings.Trim(key, "/")
	return strings.ReplaceAll(key, "/", ".")
}
