package markers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisSink publishes samples as JSON to a redis pub/sub channel from a
// background goroutine so the caller never waits on the network.
type RedisSink struct {
	log     *zap.Logger
	rdb     *goredis.Client
	channel string

	mu     sync.Mutex
	closed bool
	queue  chan []byte
	wg     sync.WaitGroup
}

func NewRedisSink(ctx context.Context, log *zap.Logger, addr, channel string, buffer int) (*RedisSink, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if strings.TrimSpace(channel) == "" {
		channel = "markers"
	}
	if buffer <= 0 {
		buffer = 256
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	s := &RedisSink{
		log:     log.Named("redis_sink"),
		rdb:     rdb,
		channel: channel,
		queue:   make(chan []byte, buffer),
	}
	s.wg.Add(1)
	go s.run()
	return s, nil
}

func (s *RedisSink) Publish(_ context.Context, sample Sample) error {
	raw, err := json.Marshal(sample)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.queue <- raw:
		return nil
	default:
		return ErrDropped
	}
}

func (s *RedisSink) run() {
	defer s.wg.Done()
	for raw := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.rdb.Publish(ctx, s.channel, raw).Err(); err != nil {
			s.log.Warn("redis publish failed", zap.String("channel", s.channel), zap.Error(err))
		}
		cancel()
	}
}

// Close drains queued samples and closes the client.
func (s *RedisSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
	return s.rdb.Close()
}
