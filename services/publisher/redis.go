package publisher

import (
	"context"
	"fmt"

	"sjsage522/shiftcodeworker/logger"
	perrors "sjsage522/shiftcodeworker/pkg/errors"
	"sjsage522/shiftcodeworker/services/store"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher implements Publisher using a Redis stream
type RedisPublisher struct {
	client          *redis.Client
	stream          string
	streamMaxLength int
	source          string
	log             *logger.Logger
}

// NewRedisPublisher creates a new Redis publisher. source is the page the
// codes were found on and is attached to every entry.
func NewRedisPublisher(addr string, db int, stream string, streamMaxLength int, source string) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		stream:          stream,
		streamMaxLength: streamMaxLength,
		source:          source,
		log:             logger.ForPublisher("redis"),
	}
}

// Name returns the publisher name
func (p *RedisPublisher) Name() string {
	return "redis"
}

// Publish adds one stream entry per record and trims the stream afterwards
func (p *RedisPublisher) Publish(ctx context.Context, records []store.CodeRecord) error {
	for _, record := range records {
		values := map[string]interface{}{
			"code":       record.Code,
			"date_added": record.DateAdded.Format(store.DateLayout),
			"source":     p.source,
		}
		if record.Expiration != "" {
			values["expiration"] = record.Expiration
		}

		err := p.client.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			Values: values,
		}).Err()
		if err != nil {
			return perrors.NewPublisher(p.Name(), fmt.Sprintf("failed to add %s to stream %s", record.Code, p.stream), err)
		}
	}

	if err := p.TrimStream(ctx); err != nil {
		return err
	}

	p.log.Info().Str("stream", p.stream).Int("count", len(records)).Msg("Published codes")
	return nil
}

// TrimStream trims the stream to the configured maximum length
func (p *RedisPublisher) TrimStream(ctx context.Context) error {
	if p.streamMaxLength <= 0 {
		return nil
	}
	if err := p.client.XTrimMaxLen(ctx, p.stream, int64(p.streamMaxLength)).Err(); err != nil {
		return perrors.NewPublisher(p.Name(), "failed to trim stream "+p.stream, err)
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
