// internal/pkg/notify/sinks.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// LogSink writes notifications to the application log
type LogSink struct {
	log logrus.FieldLogger
}

func NewLogSink(log logrus.FieldLogger) *LogSink {
	return &LogSink{log: log}
}

func (l *LogSink) Deliver(_ context.Context, recipient uint, n Notification) error {
	entry := l.log.WithFields(logrus.Fields{
		"user_id":         recipient,
		"notification_id": n.ID,
		"title":           n.Title,
	})
	switch n.Level {
	case LevelError:
		entry.Error(n.Message)
	case LevelWarning:
		entry.Warn(n.Message)
	default:
		entry.Info(n.Message)
	}
	return nil
}

func (l *LogSink) Clear(context.Context, uint) error {
	return nil
}

const (
	feedSize = 50
	feedTTL  = 7 * 24 * time.Hour
)

// RedisFeed keeps the latest notifications of each user in a Redis list,
// newest first
type RedisFeed struct {
	client *redis.Client
}

func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

func (r *RedisFeed) Deliver(ctx context.Context, recipient uint, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification failed: %w", err)
	}

	key := feedKey(recipient)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, feedSize-1)
		pipe.Expire(ctx, key, feedTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis push failed: %w", err)
	}
	return nil
}

func (r *RedisFeed) Clear(ctx context.Context, recipient uint) error {
	if err := r.client.Del(ctx, feedKey(recipient)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// List returns the stored notifications of recipient, newest first
func (r *RedisFeed) List(ctx context.Context, recipient uint) ([]Notification, error) {
	raw, err := r.client.LRange(ctx, feedKey(recipient), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis range failed: %w", err)
	}

	out := make([]Notification, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func feedKey(recipient uint) string {
	return fmt.Sprintf("notifications:%d", recipient)
}
