package db

import (
	"context"
	"time"

	"github.com/dailyyoga/seatsync/clock"
	"github.com/dailyyoga/seatsync/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Event is a row of the event catalogue
type Event struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name"`
	EventStart   time.Time `gorm:"column:event_start"`
	EventEnd     time.Time `gorm:"column:event_end"`
	SeatLayoutID *string   `gorm:"column:seat_layout_id"`
}

type gormEventSource struct {
	logger logger.Logger
	db     *gorm.DB
	table  string
	clock  clock.Clock
}

// NewEventSource returns an EventSource reading table through db
func NewEventSource(log logger.Logger, db *gorm.DB, table string, clk clock.Clock) EventSource {
	if table == "" {
		table = DefaultConfig().EventTable
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &gormEventSource{logger: log, db: db, table: table, clock: clk}
}

func (s *gormEventSource) ActiveEventIDs(ctx context.Context, horizon time.Duration) ([]string, error) {
	var ids []string
	now := s.clock.Now()
	if err := activeEvents(s.db.WithContext(ctx), s.table, now, horizon).Pluck("id", &ids).Error; err != nil {
		return nil, ErrQuery(err)
	}
	s.logger.Debug("active events listed",
		zap.Int("count", len(ids)),
		zap.Duration("horizon", horizon),
	)
	return ids, nil
}

// activeEvents selects events that have a seat layout, have not ended and
// start before now+horizon. A non-positive horizon drops the start bound.
func activeEvents(tx *gorm.DB, table string, now time.Time, horizon time.Duration) *gorm.DB {
	q := tx.Table(table).
		Where("seat_layout_id IS NOT NULL").
		Where("event_end > ?", now)
	if horizon > 0 {
		q = q.Where("event_start <= ?", now.Add(horizon))
	}
	return q.Order("event_start ASC")
}
