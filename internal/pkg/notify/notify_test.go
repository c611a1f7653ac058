package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSink struct{}

func (failingSink) Deliver(context.Context, uint, Notification) error { return errors.New("down") }
func (failingSink) Clear(context.Context, uint) error                 { return errors.New("down") }

func setupFeed(t *testing.T) (*RedisFeed, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisFeed(client), mr
}

func TestChannel_DeliversToFeed(t *testing.T) {
	feed, mr := setupFeed(t)
	svc := NewService(logrus.New(), feed)
	ctx := context.Background()

	ch := For(svc, 7)
	ch.Info(ctx, "Item added to cart", "Cart")
	ch.Success(ctx, "Order ORD-1 placed", "Order placed")

	items, err := feed.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, LevelSuccess, items[0].Level)
	assert.Equal(t, "Order placed", items[0].Title)
	assert.Equal(t, LevelInfo, items[1].Level)
	assert.NotEmpty(t, items[0].ID)

	ttl := mr.TTL("notifications:7")
	assert.Equal(t, 7*24*time.Hour, ttl)

	ch.Clear(ctx)
	items, err = feed.List(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRedisFeed_Capped(t *testing.T) {
	feed, _ := setupFeed(t)
	svc := NewService(logrus.New(), feed)
	ctx := context.Background()

	for i := range 60 {
		svc.Notify(ctx, 3, LevelInfo, fmt.Sprintf("message %d", i), "")
	}

	items, err := feed.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, items, 50)
	assert.Equal(t, "message 59", items[0].Message)
}

func TestService_SinkFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	svc := NewService(log, failingSink{}, NewLogSink(log))

	ch := For(svc, 1)
	ch.Error(context.Background(), "Could not update cart", "Cart")
	ch.Warning(context.Background(), "Cart was not cleared", "Checkout")
	ch.Clear(context.Background())

	out := buf.String()
	assert.Contains(t, out, "notification delivery failed")
	assert.Contains(t, out, "Could not update cart")
	assert.Contains(t, out, "level=warning msg=\"Cart was not cleared\"")
	assert.Contains(t, out, "notification clear failed")
}
