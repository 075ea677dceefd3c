package httpserver

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/301digital/afftrack/internal/metrics"
)

// reportCache keeps serialized dashboard responses in Redis for a short
// TTL. Reports are recomputed from raw records on every miss, so serving
// a slightly stale copy is safe and a cache outage only costs latency.
type reportCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

func newReportCache(client *redis.Client, ttl time.Duration, m *metrics.Metrics) *reportCache {
	return &reportCache{client: client, ttl: ttl, metrics: m}
}

// Key derives a deterministic cache key from the request parameters.
// Parameters are sorted so equivalent query strings share an entry.
func (c *reportCache) Key(prefix string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s;", k, strings.Join(params[k], ","))
	}
	return "afftrack:report:" + prefix + ":" + b.String()
}

func (c *reportCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		c.metrics.RecordCacheHit(false)
		return nil, false
	}
	c.metrics.RecordCacheHit(true)
	return data, true
}

func (c *reportCache) Set(ctx context.Context, key string, data []byte) {
	c.client.Set(ctx, key, data, c.ttl)
}
