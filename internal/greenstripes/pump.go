package greenstripes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// completion is finished background work waiting to be applied by the pump.
type completion struct {
	id    string
	op    string
	gen   uint64
	apply func()
}

// submit runs call on a worker goroutine and queues complete to run inside
// the next ProcessEvents. complete is skipped if the login it belongs to has
// ended by then.
func submit[T any](s *Session, op string, call func(ctx context.Context) (T, error), complete func(T, error)) {
	id := uuid.NewString()
	gen := s.gen
	ctx := s.ctx

	s.inflight.Add(1)
	s.metrics.RequestStarted(op)
	s.logger.WithFields(logrus.Fields{
		"component":  "session",
		"operation":  op,
		"request_id": id,
	}).Trace("Submitted request")

	go func() {
		start := time.Now()
		var (
			v   T
			err error
		)
		if err = s.sem.Acquire(ctx, 1); err == nil {
			reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
			v, err = call(reqCtx)
			cancel()
			s.sem.Release(1)
		}
		s.metrics.RequestFinished(op, codeFor(err).String(), time.Since(start))

		s.post(completion{
			id:  id,
			op:  op,
			gen: gen,
			apply: func() {
				s.observe(err)
				complete(v, err)
			},
		})
	}()
}

func (s *Session) post(c completion) {
	s.mu.Lock()
	s.queue = append(s.queue, c)
	s.inflight.Add(-1)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// ProcessEvents applies all background work that has completed, in the
// order it completed, and returns how long the caller may wait before
// pumping again. A zero duration means more work is already queued.
func (s *Session) ProcessEvents() time.Duration {
	if s.released {
		return s.cfg.IdleInterval
	}

	s.flushTrackLoads()

	s.mu.Lock()
	batch := s.queue
	s.queue = nil
	s.mu.Unlock()

	s.updated = false
	applied := 0
	for _, c := range batch {
		if c.gen != s.gen {
			s.logger.WithFields(logrus.Fields{
				"component":  "session",
				"operation":  c.op,
				"request_id": c.id,
			}).Debug("Dropping completion from an ended login")
			continue
		}
		c.apply()
		applied++
	}

	s.flushTrackLoads()

	if applied > 0 {
		s.metrics.EventsProcessed(applied)
	}
	if s.updated && s.cfg.Callbacks.MetadataUpdated != nil {
		s.cfg.Callbacks.MetadataUpdated()
	}

	s.mu.Lock()
	queued := len(s.queue)
	inflight := s.inflight.Load()
	s.mu.Unlock()

	switch {
	case queued > 0:
		return 0
	case inflight > 0:
		return s.cfg.PollInterval
	}
	return s.cfg.IdleInterval
}

// PumpUntil calls ProcessEvents until cond returns true, waiting between
// calls for new completions or the pump's timeout hint. It returns the
// context's error if ctx ends first.
func (s *Session) PumpUntil(ctx context.Context, cond func() bool) error {
	for {
		next := s.ProcessEvents()
		if cond() {
			return nil
		}
		if s.released {
			return ErrSessionReleased
		}
		if next == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}

		timer := time.NewTimer(next)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-s.notify:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Pending returns the number of background requests not yet applied.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) + int(s.inflight.Load())
}

// markUpdated records that the current pump changed object metadata.
func (s *Session) markUpdated() {
	s.updated = true
}
