package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/kdduha/proposal-relay/internal/errs"
	"github.com/kdduha/proposal-relay/internal/metrics"
	"github.com/kdduha/proposal-relay/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	resultCompleted = "completed"
	resultFailed    = "failed"
	resultRejected  = "rejected"
)

// Relay forwards upstream deltas to a single consumer as they arrive.
type Relay struct {
	upstream Upstream
	logger   logrus.FieldLogger
}

func NewRelay(upstream Upstream, logger logrus.FieldLogger) *Relay {
	return &Relay{
		upstream: upstream,
		logger:   logger,
	}
}

// Stream opens the call and waits for the first upstream event. A failure up
// to that point is returned as an error and no channel is created.
//
// Afterwards every delta is sent on the channel in order. The last value is
// either {Done: true} or {Err: ...}; the channel is then closed. The call is
// detached from ctx cancellation and bounded only by req.MaxDuration. Sends
// block, so the consumer must drain the channel.
func (r *Relay) Stream(ctx context.Context, req Request) (<-chan models.StreamChunk, error) {
	logger := r.logger.WithFields(logrus.Fields{
		"endpoint":   req.Endpoint,
		"request_id": req.RequestID,
		"model":      req.Model,
	})

	ctx = context.WithoutCancel(ctx)
	cancel := context.CancelFunc(func() {})
	if req.MaxDuration > 0 {
		ctx, cancel = context.WithTimeout(ctx, req.MaxDuration)
	}

	start := time.Now()
	it, err := r.upstream.Open(ctx, req)
	if err != nil {
		cancel()
		metrics.StreamResult(req.Endpoint, resultRejected)
		return nil, fmt.Errorf("%w: %w", errs.ErrUpstream, err)
	}

	first := it.Next()
	metrics.StreamFirstEvent(req.Endpoint, time.Since(start))
	if !first {
		if err := it.Err(); err != nil {
			_ = it.Close()
			cancel()
			metrics.StreamResult(req.Endpoint, resultRejected)
			logger.WithError(err).Error("upstream failed before streaming")
			return nil, fmt.Errorf("%w: %w", errs.ErrUpstream, err)
		}
	}
	logger.Info("streaming")

	ch := make(chan models.StreamChunk, 1)
	go func() {
		defer close(ch)
		defer cancel()
		defer it.Close()

		var chunks, size int
		for ok := first; ok; ok = it.Next() {
			delta := it.Delta()
			chunks++
			size += len(delta)
			metrics.StreamChunk(req.Endpoint)
			ch <- models.StreamChunk{Delta: delta}
		}

		fields := logrus.Fields{
			"chunks":   chunks,
			"bytes":    size,
			"duration": time.Since(start).String(),
		}
		if err := it.Err(); err != nil {
			metrics.StreamResult(req.Endpoint, resultFailed)
			logger.WithFields(fields).WithError(err).Error("upstream failed mid-stream")
			ch <- models.StreamChunk{Err: fmt.Errorf("%w: %w", errs.ErrUpstream, err)}
			return
		}

		metrics.StreamResult(req.Endpoint, resultCompleted)
		logger.WithFields(fields).Info("completed")
		ch <- models.StreamChunk{Done: true}
	}()

	return ch, nil
}
