package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/nbaquant/internal/export"
)

// ExportStream receives one entry per finished export.
const ExportStream = "exports.rebounds.basketball_nba"

// ExportEvent is the payload published after a pipeline run.
type ExportEvent struct {
	SourceURL string       `json:"source_url,omitempty"`
	RawPath   string       `json:"raw_path,omitempty"`
	Sinks     []string     `json:"sinks"`
	Rows      []export.Row `json:"rows"`
	Finished  time.Time    `json:"finished_at"`
}

// RedisStreamPublisher publishes events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		now:    time.Now,
	}
}

// NewRedisPublisher parses redisURL, connects and pings.
func NewRedisPublisher(redisURL string) (*RedisStreamPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return NewRedisStreamPublisher(client), nil
}

// Close closes the Redis connection
func (p *RedisStreamPublisher) Close() error {
	return p.client.Close()
}

// PublishExport appends event to ExportStream.
func (p *RedisStreamPublisher) PublishExport(ctx context.Context, event ExportEvent) error {
	args, err := exportArgs(event, p.now())
	if err != nil {
		return err
	}
	return p.client.XAdd(ctx, args).Err()
}

func exportArgs(event ExportEvent, now time.Time) (*redis.XAddArgs, error) {
	if event.Rows == nil {
		event.Rows = []export.Row{}
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &redis.XAddArgs{
		Stream: ExportStream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": now.Unix(),
		},
	}, nil
}
