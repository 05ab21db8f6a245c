package kafka

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func claimOf(offsets ...int64) fakeClaim {
	ch := make(chan *sarama.ConsumerMessage, len(offsets))
	for _, off := range offsets {
		ch <- &sarama.ConsumerMessage{Topic: "booking.events.v1", Offset: off}
	}
	close(ch)
	return fakeClaim{messages: ch}
}

type scriptedHandler struct {
	failures map[int64]int
	calls    map[int64]int
}

func (h *scriptedHandler) Handle(_ context.Context, msg *sarama.ConsumerMessage) error {
	if h.calls == nil {
		h.calls = map[int64]int{}
	}
	h.calls[msg.Offset]++
	if h.failures[msg.Offset] > 0 {
		h.failures[msg.Offset]--
		return errors.New("push gateway down")
	}
	return nil
}

func TestConsumeClaimNeverMarksPastAFailure(t *testing.T) {
	handler := &scriptedHandler{failures: map[int64]int{10: 100}}
	h := groupHandler{handler: handler, logger: slog.Default(), backoff: []time.Duration{time.Millisecond, time.Millisecond}}
	sess := &fakeSession{ctx: context.Background()}

	err := h.ConsumeClaim(sess, claimOf(9, 10, 11))

	require.Error(t, err)
	assert.Equal(t, []int64{9}, sess.marked)
	assert.Equal(t, 3, handler.calls[10], "first attempt plus one per backoff step")
	assert.Zero(t, handler.calls[11])
}

func TestConsumeClaimRetriesThenMarks(t *testing.T) {
	handler := &scriptedHandler{failures: map[int64]int{10: 1}}
	h := groupHandler{handler: handler, logger: slog.Default(), backoff: []time.Duration{time.Millisecond}}
	sess := &fakeSession{ctx: context.Background()}

	require.NoError(t, h.ConsumeClaim(sess, claimOf(10, 11)))
	assert.Equal(t, []int64{10, 11}, sess.marked)
	assert.Equal(t, 2, handler.calls[10])
}

func TestConsumeClaimStopsRetryingWhenSessionEnds(t *testing.T) {
	handler := &scriptedHandler{failures: map[int64]int{10: 100}}
	h := groupHandler{handler: handler, logger: slog.Default(), backoff: []time.Duration{time.Hour}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sess := &fakeSession{ctx: ctx}

	require.Error(t, h.ConsumeClaim(sess, claimOf(10)))
	assert.Empty(t, sess.marked)
	assert.Equal(t, 1, handler.calls[10])
}
