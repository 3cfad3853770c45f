package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/minaechess/minae/pkg/boarddto"
)

// Publisher mirrors board events onto a Redis pub/sub channel so additional
// displays can follow the same feed. Pub/sub is delivery only; nothing is
// stored and nothing survives a restart.
type Publisher struct {
	rdb     *redis.Client
	channel string
}

func NewPublisher(redisURL, channel string) (*Publisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Publisher{rdb: redis.NewClient(opt), channel: channel}, nil
}

func (p *Publisher) MoveCommitted(ctx context.Context, mv boarddto.Move) error {
	return p.publish(ctx, boarddto.Event{Type: boarddto.EventMoveCommitted, Move: &mv, At: time.Now().UTC()})
}

func (p *Publisher) Shutdown(ctx context.Context) error {
	return p.publish(ctx, boarddto.Event{Type: boarddto.EventShutdown, At: time.Now().UTC()})
}

func (p *Publisher) publish(ctx context.Context, ev boarddto.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.rdb.Publish(ctx, p.channel, payload).Err()
}

func (p *Publisher) Close() error {
	return p.rdb.Close()
}
