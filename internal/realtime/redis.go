package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus 经 Redis pub/sub 转发事件，每个实例再推给自己的 websocket 连接
type RedisBus struct {
	RDB     *redis.Client
	channel string
	hub     *Hub
	log     *zap.Logger
}

func NewRedisBus(addr, pass string, db int, channel string, hub *Hub, l *zap.Logger) *RedisBus {
	return &RedisBus{
		RDB:     redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		channel: channel,
		hub:     hub,
		log:     l,
	}
}

func (b *RedisBus) Ping(ctx context.Context) error {
	return b.RDB.Ping(ctx).Err()
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.RDB.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Run 把频道消息转给本地 Hub，直到 ctx 结束
func (b *RedisBus) Run(ctx context.Context) error {
	sub := b.RDB.Subscribe(ctx, b.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.hub.broadcast([]byte(msg.Payload))
		}
	}
}

func (b *RedisBus) Close() error { return b.RDB.Close() }
