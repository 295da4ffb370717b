// Package cache keeps raw provider response bodies in Redis so repeated lookups for the same
// registration skip the network. Computed profiles are never stored.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"time"

	"vehicle-techdata-workers/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "techdata:resp:"

// Transport is the form-POST call being cached.
type Transport interface {
	PostForm(ctx context.Context, endpoint string, form url.Values) (string, error)
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

// ResponseCache decorates a Transport. Redis failures are logged and fall through to the provider.
type ResponseCache struct {
	rdb    *redis.Client
	next   Transport
	ttl    time.Duration
	prefix string
	logger Logger
}

func NewResponseCache(rdb *redis.Client, next Transport, ttl time.Duration, log Logger) *ResponseCache {
	return &ResponseCache{
		rdb:    rdb,
		next:   next,
		ttl:    ttl,
		prefix: DefaultKeyPrefix,
		logger: log,
	}
}

func (c *ResponseCache) PostForm(ctx context.Context, endpoint string, form url.Values) (string, error) {
	key := c.Key(endpoint, form)

	body, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		metrics.ResponseCacheLookups.WithLabelValues("hit").Inc()
		return body, nil
	case errors.Is(err, redis.Nil):
		metrics.ResponseCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.ResponseCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("response cache read failed", map[string]interface{}{
			"action": form.Get("ACTION"),
			"error":  err.Error(),
		})
	}

	body, err = c.next.PostForm(ctx, endpoint, form)
	if err != nil {
		return "", err
	}

	if cacheable(body) {
		if err := c.rdb.Set(ctx, key, body, c.ttl).Err(); err != nil {
			c.logger.Warn("response cache write failed", map[string]interface{}{
				"action": form.Get("ACTION"),
				"error":  err.Error(),
			})
		}
	}

	return body, nil
}

// Key hashes the endpoint and encoded form. url.Values.Encode sorts keys, so the key is stable,
// and credentials in the form never reach Redis in clear text.
func (c *ResponseCache) Key(endpoint string, form url.Values) string {
	sum := sha256.Sum256([]byte(endpoint + "\n" + form.Encode()))
	return c.prefix + hex.EncodeToString(sum[:])
}

// cacheable skips bodies that mean "no data"; the provider may have data on the next call.
func cacheable(body string) bool {
	trimmed := strings.TrimSpace(body)
	return trimmed != "" && trimmed != "[]"
}
