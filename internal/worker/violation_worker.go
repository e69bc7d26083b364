package worker

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/config"
	"github.com/stemsi/exstem-proctor/internal/session"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	QueueSize    = 256
	// MaxPending caps how many unsent records are kept across failed flushes.
	MaxPending = 500

	violationCountTTL = 24 * time.Hour
	shutdownTimeout   = 5 * time.Second
)

// Record keeps the shape of the backend's persist_cheats_queue entries.
// Payload is the JSON-encoded session event.
type Record struct {
	AttemptID int64  `json:"attempt_id"`
	ExamID    string `json:"exam_id"`
	Email     string `json:"email"`
	Timestamp int64  `json:"timestamp"`
	Payload   string `json:"payload"`
	// Count is the strike count after a violation, zero otherwise.
	Count int `json:"-"`
}

// Sink writes a batch of journal records somewhere durable.
type Sink interface {
	Write(ctx context.Context, batch []*Record) error
}

// ViolationWorker journals violation and end-of-session events. OnEvent
// never blocks the session: when the queue is full the record is dropped.
type ViolationWorker struct {
	sink      Sink
	testID    int64
	attemptID int64
	email     string
	queue     chan *Record
	log       zerolog.Logger
}

func NewViolationWorker(sink Sink, email string, testID, attemptID int64, log zerolog.Logger) *ViolationWorker {
	return &ViolationWorker{
		sink:      sink,
		testID:    testID,
		attemptID: attemptID,
		email:     email,
		queue:     make(chan *Record, QueueSize),
		log: log.With().
			Str("component", "violation_worker").
			Int64("attempt_id", attemptID).
			Logger(),
	}
}

// OnEvent implements session.Observer.
func (w *ViolationWorker) OnEvent(ev session.Event) {
	if ev.Type != session.EventViolation && ev.Type != session.EventEnded {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		w.log.Error().Err(err).Msg("Failed to encode event")
		return
	}

	p := &Record{
		AttemptID: w.attemptID,
		ExamID:    strconv.FormatInt(w.testID, 10),
		Email:     w.email,
		Timestamp: ev.At.Unix(),
		Payload:   string(data),
	}
	if ev.Violation != nil {
		p.Count = ev.Violation.Count
	}

	select {
	case w.queue <- p:
	default:
		w.log.Warn().Str("type", string(ev.Type)).Msg("Journal queue full, dropping event")
	}
}

// Start runs until ctx is cancelled, then flushes what is left.
func (w *ViolationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ViolationWorker started")

	ticker := time.NewTicker(BatchTimeout)
	defer ticker.Stop()

	buffer := make([]*Record, 0, BatchSize)
	for {
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		case p := <-w.queue:
			buffer = append(buffer, p)
			if len(buffer) >= BatchSize {
				buffer = w.flush(ctx, buffer)
			}
		case <-ticker.C:
			if len(buffer) > 0 {
				buffer = w.flush(ctx, buffer)
			}
		}
	}
}

// flush writes the batch and returns what must be retried.
func (w *ViolationWorker) flush(ctx context.Context, batch []*Record) []*Record {
	if err := w.sink.Write(ctx, batch); err != nil {
		if len(batch) > MaxPending {
			dropped := len(batch) - MaxPending
			w.log.Error().Err(err).Int("dropped", dropped).Msg("Journal write failed, dropping oldest records")
			return append(batch[:0], batch[dropped:]...)
		}
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Journal write failed, keeping batch for retry")
		return batch
	}
	w.log.Debug().Int("count", len(batch)).Msg("Journal flushed")
	return batch[:0]
}

func (w *ViolationWorker) shutdown(buffer []*Record) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

drain:
	for {
		select {
		case p := <-w.queue:
			buffer = append(buffer, p)
		default:
			break drain
		}
	}

	if len(buffer) == 0 {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := w.sink.Write(shutdownCtx, buffer); err != nil {
		w.log.Error().Err(err).Int("count", len(buffer)).Msg("CRITICAL: Failed to flush journal on shutdown. Data loss occurred.")
	}
}

// RedisSink pushes records onto the backend's cheat queue and publishes
// them on the exam monitor channel in one pipeline.
type RedisSink struct {
	rdb *redis.Client
}

func NewRedisSink(rdb *redis.Client) *RedisSink {
	return &RedisSink{rdb: rdb}
}

func (s *RedisSink) Write(ctx context.Context, batch []*Record) error {
	pipe := s.rdb.Pipeline()
	for _, p := range batch {
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		pipe.RPush(ctx, config.WorkerKey.PersistCheatsQueue, data)
		pipe.Publish(ctx, config.CacheKey.ExamMonitorChannel(p.ExamID), data)
		if p.Count > 0 {
			pipe.Set(ctx, config.CacheKey.AttemptViolationCountKey(p.AttemptID), p.Count, violationCountTTL)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}
