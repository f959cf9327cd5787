package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// LogListener writes one line per event.
type LogListener struct {
	logger *log.Logger
}

func NewLogListener(logger *log.Logger) *LogListener {
	return &LogListener{logger: logger}
}

func (l *LogListener) Handle(_ context.Context, ev Event) {
	switch ev.Type {
	case RecordAdded:
		l.logger.Printf("record added: %s (%s)", ev.Record.ID, ev.Record.Name)
	case RecordUpdated:
		l.logger.Printf("record updated: %s -> %s", ev.Record.ID, ev.Record.Name)
	case RecordDeleted:
		l.logger.Printf("record deleted: %s (%s)", ev.Record.ID, ev.Record.Name)
	default:
		l.logger.Printf("%s: %s", ev.Type, ev.Record.ID)
	}
}

// RedisPublisher forwards events as JSON to a Redis pub/sub channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	logger  *log.Logger
}

func NewRedisPublisher(rdb *redis.Client, channel string, logger *log.Logger) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel, logger: logger}
}

func (p *RedisPublisher) Handle(ctx context.Context, ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		p.logger.Printf("events: encode %s: %v", ev.Type, err)
		return
	}
	if err := p.rdb.Publish(ctx, p.channel, b).Err(); err != nil {
		p.logger.Printf("events: publish %s to %s: %v", ev.Type, p.channel, err)
	}
}
