// Package health probes the feed server's external dependencies for the
// readiness endpoint. A failed probe degrades readiness, never liveness;
// the feed core itself fails open on both dependencies.
package health

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// RedisChecker probes the cache backend.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker wraps the shared Redis client for readiness probes.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// HealthCheck pings Redis over the probe's context.
func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// NatsChecker probes the mutation event subscription.
type NatsChecker struct {
	conn *nats.Conn
}

// NewNatsChecker wraps the shared NATS connection for readiness probes.
func NewNatsChecker(conn *nats.Conn) *NatsChecker {
	return &NatsChecker{conn: conn}
}

// HealthCheck treats anything but an established connection as unhealthy.
// A reconnecting subscriber is not receiving invalidation events, so stale
// pages would outlive their mutations.
func (c *NatsChecker) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if status := c.conn.Status(); status != nats.CONNECTED {
		return fmt.Errorf("nats connection %s", status)
	}
	return nil
}
