package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/dailyyoga/seatsync/cache"
	"github.com/dailyyoga/seatsync/seat"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type refreshCall struct {
	key    string
	ignore bool
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls []refreshCall
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context, key string, opts ...cache.RefreshOption) ([]seat.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// IgnoreRateLimit is the only option; its presence is enough here
	f.calls = append(f.calls, refreshCall{key: key, ignore: len(opts) > 0})
	return nil, f.err
}

func TestInvalidationHandler(t *testing.T) {
	tests := []struct {
		name       string
		msg        *Message
		refreshErr error
		wantCalls  []refreshCall
		wantLog    string
	}{
		{
			name:      "event id in body",
			msg:       &Message{Value: []byte(`{"event_id":"evt-1","reason":"seat-sold"}`)},
			wantCalls: []refreshCall{{key: "evt-1"}},
		},
		{
			name:      "event id from key",
			msg:       &Message{Key: []byte("evt-2"), Value: []byte(`{"reason":"layout"}`)},
			wantCalls: []refreshCall{{key: "evt-2"}},
		},
		{
			name:      "forced",
			msg:       &Message{Value: []byte(`{"event_id":"evt-3","force":true}`)},
			wantCalls: []refreshCall{{key: "evt-3", ignore: true}},
		},
		{
			name:    "undecodable",
			msg:     &Message{Value: []byte(`not json`)},
			wantLog: "dropping undecodable invalidation",
		},
		{
			name:    "missing event id",
			msg:     &Message{Value: []byte(`{"reason":"x"}`)},
			wantLog: "dropping invalidation without event id",
		},
		{
			name:       "rate limited is acknowledged",
			msg:        &Message{Value: []byte(`{"event_id":"evt-4"}`)},
			refreshErr: &seat.RateLimitedError{Local: true, Until: time.Now().Add(time.Minute)},
			wantCalls:  []refreshCall{{key: "evt-4"}},
			wantLog:    "invalidation deferred by rate limit",
		},
		{
			name:       "server error is acknowledged",
			msg:        &Message{Value: []byte(`{"event_id":"evt-5"}`)},
			refreshErr: &seat.ServerError{Status: 502},
			wantCalls:  []refreshCall{{key: "evt-5"}},
			wantLog:    "invalidation refresh failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			r := &fakeRefresher{err: tt.refreshErr}
			handler := InvalidationHandler(zap.New(core), r)

			if err := handler(context.Background(), tt.msg); err != nil {
				t.Fatalf("handler() error = %v, want nil", err)
			}
			if len(r.calls) != len(tt.wantCalls) {
				t.Fatalf("calls = %+v, want %+v", r.calls, tt.wantCalls)
			}
			for i := range r.calls {
				if r.calls[i] != tt.wantCalls[i] {
					t.Errorf("call %d = %+v, want %+v", i, r.calls[i], tt.wantCalls[i])
				}
			}
			if tt.wantLog != "" && logs.FilterMessage(tt.wantLog).Len() != 1 {
				t.Errorf("expected log %q, got %v", tt.wantLog, logs.All())
			}
		})
	}
}

func TestInvalidationHandlerCancelled(t *testing.T) {
	r := &fakeRefresher{err: context.Canceled}
	handler := InvalidationHandler(zap.NewNop(), r)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := handler(ctx, &Message{Value: []byte(`{"event_id":"evt-1"}`)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("handler() error = %v, want context.Canceled", err)
	}
}

type fakeProducer struct {
	mu   sync.Mutex
	msgs []*Message
	err  error
}

func (f *fakeProducer) Produce(ctx context.Context, msg *Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func TestPublisher(t *testing.T) {
	p := &fakeProducer{}
	pub := NewPublisher(p, "seat-availability")
	fetchedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seats := []seat.Record{
		{SeatID: "s-1", Status: seat.StatusAvailable, TierCode: "VIP", Price: decimal.NewFromInt(100)},
		{SeatID: "s-2", Status: seat.StatusAvailable, TierCode: "VIP", Price: decimal.NewFromInt(100)},
		{SeatID: "s-3", Status: seat.StatusSold, TierCode: "STD", Price: decimal.NewFromInt(40)},
	}
	if err := pub.Record(context.Background(), cache.Outcome{Key: "evt-1", Err: &seat.ServerError{Status: 500}}); err != nil {
		t.Fatalf("Record(failure) error = %v", err)
	}
	if len(p.msgs) != 0 {
		t.Fatalf("failed outcome was published")
	}

	if err := pub.Record(context.Background(), cache.Outcome{Key: "evt-1", Seats: seats, FinishedAt: fetchedAt}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(p.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(p.msgs))
	}
	msg := p.msgs[0]
	if string(msg.Key) != "evt-1" || *msg.TopicPartition.Topic != "seat-availability" {
		t.Errorf("key = %q topic = %q", msg.Key, *msg.TopicPartition.Topic)
	}
	if string(msg.GetHeader("content-type")) != "application/json" {
		t.Errorf("content-type header = %q", msg.GetHeader("content-type"))
	}

	var got Availability
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.EventID != "evt-1" || got.Total != 3 || got.Available != 2 {
		t.Errorf("availability = %+v", got)
	}
	if got.ByStatus[seat.StatusSold] != 1 || !got.FetchedAt.Equal(fetchedAt) {
		t.Errorf("availability = %+v", got)
	}
	if len(got.Tiers) != 2 || got.Tiers[1].TierCode != "VIP" || !got.Tiers[1].AvailableValue.Equal(decimal.NewFromInt(200)) {
		t.Errorf("tiers = %+v", got.Tiers)
	}
}

func TestPublisherProduceError(t *testing.T) {
	boom := errors.New("queue full")
	pub := NewPublisher(&fakeProducer{err: boom}, "t")
	err := pub.Record(context.Background(), cache.Outcome{Key: "evt-1"})
	if !errors.Is(err, boom) {
		t.Errorf("Record() error = %v, want %v", err, boom)
	}
}

func TestRunHandlerRetries(t *testing.T) {
	attempts := 0
	handler := func(ctx context.Context, msg *Message) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}
	if err := runHandler(context.Background(), &Message{}, handler, 3, time.Second); err != nil {
		t.Errorf("runHandler() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRunHandlerPanic(t *testing.T) {
	attempts := 0
	handler := func(ctx context.Context, msg *Message) error {
		attempts++
		panic("bad message")
	}
	if err := runHandler(context.Background(), &Message{}, handler, 2, time.Second); err == nil {
		t.Error("runHandler() error = nil, want recovered panic")
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestRunHandlerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	handler := func(ctx context.Context, msg *Message) error {
		attempts++
		cancel()
		return ctx.Err()
	}
	_ = runHandler(ctx, &Message{}, handler, 5, time.Second)
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestToMessage(t *testing.T) {
	topic := "seat-invalidations"
	km := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: 2, Offset: 41},
		Key:            []byte("evt-1"),
		Value:          []byte(`{}`),
		Headers:        []kafka.Header{{Key: "source", Value: []byte("admin")}},
	}
	m := toMessage(km)
	if *m.TopicPartition.Topic != topic || m.TopicPartition.Partition != 2 || m.TopicPartition.Offset != 41 {
		t.Errorf("topic partition = %+v", m.TopicPartition)
	}
	if string(m.GetHeader("source")) != "admin" || m.GetHeader("missing") != nil {
		t.Errorf("headers = %+v", m.Headers)
	}
}

func TestConsumerConfig(t *testing.T) {
	cfg := (&ConsumerConfig{Brokers: []string{"localhost:9092"}}).MergeDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	cm := cfg.BuildConfigMap()
	if v, _ := cm.Get("group.id", nil); v != "seatsync" {
		t.Errorf("group.id = %v", v)
	}
	if v, _ := cm.Get("auto.commit.interval.ms", nil); v != nil {
		t.Errorf("auto.commit.interval.ms = %v, want unset", v)
	}

	tests := []struct {
		name string
		cfg  ConsumerConfig
	}{
		{"no brokers", ConsumerConfig{}},
		{"bad offset reset", ConsumerConfig{Brokers: []string{"b"}, AutoOffsetReset: "middle"}},
		{"auto commit without interval", ConsumerConfig{Brokers: []string{"b"}, EnableAutoCommit: true, AutoCommitInterval: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.cfg
			if err := c.MergeDefaults().Validate(); err == nil {
				t.Error("Validate() error = nil, want error")
			}
		})
	}
}

func TestProducerConfig(t *testing.T) {
	cfg := (&ProducerConfig{Brokers: []string{"localhost:9092"}}).MergeDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Topic != "seat-availability" {
		t.Errorf("Topic = %q", cfg.Topic)
	}
	cm := cfg.BuildConfigMap()
	if v, _ := cm.Get("client.id", nil); v != "seatsync" {
		t.Errorf("client.id = %v", v)
	}

	bad := (&ProducerConfig{Brokers: []string{"b"}, Acks: "some"}).MergeDefaults()
	if err := bad.Validate(); err == nil {
		t.Error("Validate() accepted invalid acks")
	}
	if err := (&ProducerConfig{}).Validate(); err == nil {
		t.Error("Validate() accepted empty brokers")
	}
}
