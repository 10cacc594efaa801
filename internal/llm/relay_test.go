package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/kdduha/proposal-relay/internal/errs"
	"github.com/kdduha/proposal-relay/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// scriptedUpstream replays deltas and fails after failAfter of them when
// failAfter >= 0. With block set it then hangs until its context ends.
type scriptedUpstream struct {
	deltas    []string
	failAfter int
	openErr   error
	block     bool

	mu     sync.Mutex
	ctx    context.Context
	opened int
	iters  []*scriptedIterator
}

func (s *scriptedUpstream) Open(ctx context.Context, _ Request) (Iterator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened++
	s.ctx = ctx
	if s.openErr != nil {
		return nil, s.openErr
	}
	it := &scriptedIterator{ctx: ctx, src: s}
	s.iters = append(s.iters, it)
	return it, nil
}

type scriptedIterator struct {
	ctx    context.Context
	src    *scriptedUpstream
	pos    int
	delta  string
	err    error
	closed bool
}

func (it *scriptedIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if it.src.failAfter >= 0 && it.pos == it.src.failAfter {
		it.err = errors.New("connection reset by peer")
		return false
	}
	if it.pos >= len(it.src.deltas) {
		if it.src.block {
			<-it.ctx.Done()
			it.err = it.ctx.Err()
		}
		return false
	}
	it.delta = it.src.deltas[it.pos]
	it.pos++
	return true
}

func (it *scriptedIterator) Delta() string { return it.delta }
func (it *scriptedIterator) Err() error    { return it.err }
func (it *scriptedIterator) Close() error {
	it.closed = true
	return nil
}

func deltas(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("chunk-%02d ", i)
	}
	return out
}

func collect(t *testing.T, ch <-chan models.StreamChunk) []models.StreamChunk {
	t.Helper()
	var out []models.StreamChunk
	timeout := time.After(5 * time.Second)
	for {
		select {
		case c, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, c)
		case <-timeout:
			t.Fatal("stream did not finish")
			return out
		}
	}
}

func testRequest() Request {
	return Request{
		Endpoint:    "generate",
		Model:       "test-model",
		MaxTokens:   100,
		MaxDuration: time.Minute,
		Payload:     models.PromptPayload{Parts: []models.Part{models.TextPart("hi")}},
	}
}

func TestRelayForwardsEveryChunkInOrder(t *testing.T) {
	up := &scriptedUpstream{deltas: deltas(10), failAfter: -1}
	r := NewRelay(up, discardLogger())

	ch, err := r.Stream(context.Background(), testRequest())
	require.NoError(t, err)

	got := collect(t, ch)
	require.Len(t, got, 11)
	for i := 0; i < 10; i++ {
		assert.Equal(t, up.deltas[i], got[i].Delta)
		assert.NoError(t, got[i].Err)
		assert.False(t, got[i].Done)
	}
	assert.True(t, got[10].Done)
	assert.NoError(t, got[10].Err)
	assert.True(t, up.iters[0].closed)
}

func TestRelayFailureAfterThreeChunks(t *testing.T) {
	up := &scriptedUpstream{deltas: deltas(10), failAfter: 3}
	r := NewRelay(up, discardLogger())

	ch, err := r.Stream(context.Background(), testRequest())
	require.NoError(t, err)

	got := collect(t, ch)
	require.Len(t, got, 4)
	for i := 0; i < 3; i++ {
		assert.Equal(t, up.deltas[i], got[i].Delta)
		assert.NoError(t, got[i].Err)
	}
	assert.ErrorIs(t, got[3].Err, errs.ErrUpstream)
	assert.ErrorContains(t, got[3].Err, "connection reset")
	assert.False(t, got[3].Done)
	assert.Empty(t, got[3].Delta)
}

func TestRelayFailureBeforeFirstChunk(t *testing.T) {
	up := &scriptedUpstream{deltas: deltas(10), failAfter: 0}
	r := NewRelay(up, discardLogger())

	ch, err := r.Stream(context.Background(), testRequest())
	assert.Nil(t, ch)
	assert.ErrorIs(t, err, errs.ErrUpstream)
	assert.True(t, up.iters[0].closed)
}

func TestRelayOpenFailure(t *testing.T) {
	up := &scriptedUpstream{openErr: errors.New("401 invalid api key")}
	r := NewRelay(up, discardLogger())

	ch, err := r.Stream(context.Background(), testRequest())
	assert.Nil(t, ch)
	assert.ErrorIs(t, err, errs.ErrUpstream)
	assert.ErrorContains(t, err, "401")
	assert.Equal(t, 1, up.opened)
}

func TestRelayEmptyCompletion(t *testing.T) {
	up := &scriptedUpstream{failAfter: -1}
	r := NewRelay(up, discardLogger())

	ch, err := r.Stream(context.Background(), testRequest())
	require.NoError(t, err)

	got := collect(t, ch)
	require.Len(t, got, 1)
	assert.True(t, got[0].Done)
}

func TestRelayIsDetachedFromCallerCancellation(t *testing.T) {
	up := &scriptedUpstream{deltas: deltas(5), failAfter: -1}
	r := NewRelay(up, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := r.Stream(ctx, testRequest())
	require.NoError(t, err)
	cancel()

	got := collect(t, ch)
	require.Len(t, got, 6)
	assert.True(t, got[5].Done)
}

func TestRelayMaxDurationEndsStream(t *testing.T) {
	up := &scriptedUpstream{block: true, failAfter: -1}
	r := NewRelay(up, discardLogger())

	req := testRequest()
	req.MaxDuration = 50 * time.Millisecond

	_, err := r.Stream(context.Background(), req)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, errs.ErrUpstream)
}

func TestRelayMaxDurationMidStreamEndsWithError(t *testing.T) {
	for i := 0; i < 100; i++ {
		up := &scriptedUpstream{deltas: []string{"x"}, block: true, failAfter: -1}
		r := NewRelay(up, discardLogger())

		req := testRequest()
		req.MaxDuration = 5 * time.Millisecond

		ch, err := r.Stream(context.Background(), req)
		require.NoError(t, err)

		got := collect(t, ch)
		require.Len(t, got, 2, "run %d", i)
		assert.Equal(t, "x", got[0].Delta)
		assert.ErrorIs(t, got[1].Err, context.DeadlineExceeded, "run %d", i)
		assert.ErrorIs(t, got[1].Err, errs.ErrUpstream)
	}
}

func TestRelayWaitsForSlowConsumer(t *testing.T) {
	up := &scriptedUpstream{deltas: deltas(5), failAfter: -1}
	r := NewRelay(up, discardLogger())

	req := testRequest()
	req.MaxDuration = 20 * time.Millisecond

	ch, err := r.Stream(context.Background(), req)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	got := collect(t, ch)
	require.Len(t, got, 6)
	assert.True(t, got[5].Done)
}
