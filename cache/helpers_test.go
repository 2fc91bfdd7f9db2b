package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dailyyoga/seatsync/clock"
	"github.com/dailyyoga/seatsync/seat"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fetchResult struct {
	seats []seat.Record
	err   error
}

// gatedFetcher blocks every fetch until the test releases a result
type gatedFetcher struct {
	calls   atomic.Int32
	started chan string
	release chan fetchResult
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		started: make(chan string, 64),
		release: make(chan fetchResult),
	}
}

func (f *gatedFetcher) FetchSeats(ctx context.Context, eventID string) ([]seat.Record, error) {
	f.calls.Add(1)
	f.started <- eventID
	select {
	case r := <-f.release:
		return r.seats, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *gatedFetcher) waitStarted(t *testing.T) string {
	t.Helper()
	select {
	case id := <-f.started:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not start")
		return ""
	}
}

func (f *gatedFetcher) respond(t *testing.T, r fetchResult) {
	t.Helper()
	select {
	case f.release <- r:
	case <-time.After(2 * time.Second):
		t.Fatal("no fetch waiting for a result")
	}
}

// scriptedFetcher returns queued results immediately, seats when the queue is empty
type scriptedFetcher struct {
	mu    sync.Mutex
	calls atomic.Int32
	queue []fetchResult
	seats []seat.Record
}

func (f *scriptedFetcher) push(r fetchResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, r)
}

func (f *scriptedFetcher) FetchSeats(ctx context.Context, eventID string) ([]seat.Record, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) > 0 {
		r := f.queue[0]
		f.queue = f.queue[1:]
		return r.seats, r.err
	}
	return f.seats, nil
}

func makeSeats(n int) []seat.Record {
	seats := make([]seat.Record, n)
	for i := range seats {
		seats[i] = seat.Record{
			EventSeatID: fmt.Sprintf("es-%d", i),
			SeatID:      fmt.Sprintf("s-%d", i),
			Label:       fmt.Sprintf("A%d", i+1),
			Row:         "A",
			Number:      i + 1,
			Status:      seat.StatusAvailable,
			TierCode:    "STD",
			Price:       decimal.NewFromInt(50),
		}
	}
	return seats
}

func rateLimited(retryAfter time.Duration) error {
	return &seat.RateLimitedError{RetryAfter: retryAfter}
}

// recorder collects the snapshots delivered to a listener
type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) listen(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func (r *recorder) last() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return Snapshot{}
	}
	return r.snaps[len(r.snaps)-1]
}

func newTestCache(t *testing.T, cfg *Config, f Fetcher, opts ...Option) (*seatCache, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(t0)
	opts = append([]Option{WithClock(clk)}, opts...)
	sc, err := New(zap.NewNop(), cfg, f, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(sc.Close)
	return sc.(*seatCache), clk
}
