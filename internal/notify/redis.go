package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/githubb-dot/gamified-app/internal/engine"
	"github.com/githubb-dot/gamified-app/internal/platform/logger"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// RedisSink publishes events as JSON on a pub/sub channel.
type RedisSink struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewRedisSink(ctx context.Context, cfg RedisConfig, log *logger.Logger) (*RedisSink, error) {
	if log == nil {
		log = logger.Nop()
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = "levelup:events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisSink{
		log:     log.With("service", "RedisSink"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (s *RedisSink) Notify(ctx context.Context, ev engine.Event) error {
	raw, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	if err := s.rdb.Publish(ctx, s.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Listen blocks, handing every event on the channel to onEvent until ctx ends.
// Undecodable payloads are logged and skipped.
func (s *RedisSink) Listen(ctx context.Context, onEvent func(engine.Event)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	sub := s.rdb.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok || m == nil {
				return nil
			}
			ev, err := decodeEvent([]byte(m.Payload))
			if err != nil {
				s.log.Warn("bad event payload", "error", err)
				continue
			}
			onEvent(ev)
		}
	}
}

func (s *RedisSink) Close() error {
	return s.rdb.Close()
}

func encodeEvent(ev engine.Event) ([]byte, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return raw, nil
}

func decodeEvent(raw []byte) (engine.Event, error) {
	var ev engine.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return engine.Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.UserID == "" || ev.Kind == "" {
		return engine.Event{}, fmt.Errorf("decode event: missing user or kind")
	}
	return ev, nil
}
