package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Dosada05/pong-tournament/models"
	"github.com/redis/go-redis/v9"
)

// EventPublisher pushes match events to downstream consumers.
type EventPublisher interface {
	PublishMatchEvents(ctx context.Context, events []models.MatchEvent) error
	Close() error
}

// StreamPublisher publishes match events to one Redis stream per tournament.
type StreamPublisher struct {
	client *redis.Client
	prefix string
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client *redis.Client, prefix string) *StreamPublisher {
	return &StreamPublisher{
		client: client,
		prefix: prefix,
	}
}

// StreamKey returns the stream that receives events of the given tournament.
func StreamKey(prefix string, tournamentID int) string {
	return fmt.Sprintf("%s.%d", prefix, tournamentID)
}

func (p *StreamPublisher) PublishMatchEvents(ctx context.Context, events []models.MatchEvent) error {
	if len(events) == 0 {
		return nil
	}

	pipe := p.client.Pipeline()
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshaling match event: %w", err)
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: StreamKey(p.prefix, e.TournamentID),
			Values: map[string]interface{}{
				"data":       string(data),
				"match_id":   e.MatchID,
				"event_type": e.EventType,
				"hit_number": strconv.Itoa(e.HitNumber),
			},
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publishing %d match events: %w", len(events), err)
	}
	return nil
}

func (p *StreamPublisher) Close() error {
	return p.client.Close()
}

// Noop discards every event. It is used when no Redis URL is configured.
type Noop struct{}

func (Noop) PublishMatchEvents(context.Context, []models.MatchEvent) error { return nil }
func (Noop) Close() error                                                  { return nil }
