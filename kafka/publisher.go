package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dailyyoga/seatsync/cache"
	"github.com/dailyyoga/seatsync/seat"
)

// Availability is the message published after each successful fetch
type Availability struct {
	EventID   string              `json:"event_id"`
	FetchedAt time.Time           `json:"fetched_at"`
	Total     int                 `json:"total"`
	Available int                 `json:"available"`
	ByStatus  map[seat.Status]int `json:"by_status"`
	Tiers     []seat.TierSummary  `json:"tiers"`
}

// NewAvailability summarizes seats of eventID
func NewAvailability(eventID string, seats []seat.Record, fetchedAt time.Time) Availability {
	s := seat.Summarize(seats)
	return Availability{
		EventID:   eventID,
		FetchedAt: fetchedAt.UTC(),
		Total:     s.Total,
		Available: s.Available(),
		ByStatus:  s.ByStatus,
		Tiers:     s.Tiers,
	}
}

// Publisher is a cache.Sink publishing an Availability message keyed by
// event id for every successful fetch.
type Publisher struct {
	producer Producer
	topic    string
}

var _ cache.Sink = (*Publisher)(nil)

// NewPublisher creates a publisher writing to topic
func NewPublisher(producer Producer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

// Name implements cache.Sink
func (p *Publisher) Name() string { return "kafka-availability" }

// Record implements cache.Sink
func (p *Publisher) Record(ctx context.Context, o cache.Outcome) error {
	if !o.Succeeded() {
		return nil
	}
	value, err := json.Marshal(NewAvailability(o.Key, o.Seats, o.FinishedAt))
	if err != nil {
		return ErrEncode(o.Key, err)
	}
	topic := p.topic
	return p.producer.Produce(ctx, &Message{
		Key:            []byte(o.Key),
		Value:          value,
		Timestamp:      o.FinishedAt,
		TopicPartition: TopicPartition{Topic: &topic, Partition: PartitionAny},
		Headers:        []Header{{Key: "content-type", Value: []byte("application/json")}},
	})
}
