package queue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notetree/worker/internal/observability"
)

type testEnvelope struct {
	Value string
}

func parseTestEnvelope(fields map[string]string) (testEnvelope, error) {
	value, ok := fields["value"]
	if !ok {
		return testEnvelope{}, errors.New("missing required field \"value\"")
	}
	return testEnvelope{Value: value}, nil
}

type mockHandler struct {
	fn    func(ctx context.Context, envelope testEnvelope) error
	calls atomic.Int32
}

func (h *mockHandler) Process(ctx context.Context, envelope testEnvelope) error {
	h.calls.Add(1)
	if h.fn != nil {
		return h.fn(ctx, envelope)
	}
	return nil
}

func newTestConsumer(client *mockStreamClient, handler *mockHandler) (*Consumer[testEnvelope], *observability.Metrics) {
	metrics := observability.NewMetrics()
	consumer := NewConsumer(
		client,
		ConsumerConfig{
			Stream: "job:test",
			Group:  "test_group",
			Name:   "worker-test",
			Retry:  Policy{MaxAttempts: 3, Backoff: time.Millisecond},
		},
		parseTestEnvelope,
		handler,
		NewRouter(client, "stream:dead_letter"),
		metrics,
	)
	return consumer, metrics
}

func TestPipelineSuccess(t *testing.T) {
	client := newMockStreamClient()
	handler := &mockHandler{}
	consumer, metrics := newTestConsumer(client, handler)

	consumer.processMessage(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: map[string]interface{}{"value": "hello"},
	})

	assert.Equal(t, int32(1), handler.calls.Load())
	assert.Equal(t, []string{"1-0"}, client.ackedIDs())
	assert.Empty(t, client.addedEntries(), "no dead-letter entry expected")
	assert.Equal(t, int64(1), metrics.GetProcessedTotal())
}

func TestPipelineValidationFailure(t *testing.T) {
	client := newMockStreamClient()
	handler := &mockHandler{}
	consumer, metrics := newTestConsumer(client, handler)

	consumer.processMessage(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: map[string]interface{}{"other": "field"},
	})

	assert.Zero(t, handler.calls.Load(), "invalid message must never reach the handler")
	assert.Equal(t, []string{"1-0"}, client.ackedIDs())

	entries := client.addedEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "stream:dead_letter", entries[0].Stream)
	values := entries[0].Values.(map[string]any)
	assert.Equal(t, "job:test", values["original_stream"])
	assert.Contains(t, values["error"], "value")
	assert.Contains(t, values["payload"], "field")
	assert.Equal(t, int64(1), metrics.GetFailedTotal())
	assert.Equal(t, int64(1), metrics.GetDeadLetteredTotal())
}

func TestPipelineRetryExhaustion(t *testing.T) {
	client := newMockStreamClient()
	handler := &mockHandler{fn: func(context.Context, testEnvelope) error {
		return errors.New("downstream unavailable")
	}}
	consumer, metrics := newTestConsumer(client, handler)

	consumer.processMessage(context.Background(), redis.XMessage{
		ID:     "2-0",
		Values: map[string]interface{}{"value": "doomed"},
	})

	assert.Equal(t, int32(3), handler.calls.Load(), "full attempt budget expected")
	assert.Equal(t, []string{"2-0"}, client.ackedIDs(), "exhausted message is still acked")

	entries := client.addedEntries()
	require.Len(t, entries, 1)
	values := entries[0].Values.(map[string]any)
	assert.Contains(t, values["error"], "max retries reached")
	assert.Equal(t, int64(1), metrics.GetFailedTotal())
	assert.Equal(t, int64(2), metrics.GetRetryTotal())
}

func TestPipelineFailOnceThenSucceed(t *testing.T) {
	client := newMockStreamClient()
	var attempts atomic.Int32
	handler := &mockHandler{fn: func(context.Context, testEnvelope) error {
		if attempts.Add(1) == 1 {
			return errors.New("transient")
		}
		return nil
	}}
	consumer, metrics := newTestConsumer(client, handler)

	consumer.processMessage(context.Background(), redis.XMessage{
		ID:     "3-0",
		Values: map[string]interface{}{"value": "flaky"},
	})

	assert.Equal(t, int32(2), handler.calls.Load())
	assert.Equal(t, []string{"3-0"}, client.ackedIDs())
	assert.Empty(t, client.addedEntries())
	assert.Equal(t, int64(1), metrics.GetProcessedTotal())
	assert.Equal(t, int64(1), metrics.GetRetryTotal())
}

func TestRunConsumesPendingMessagesAndStopsOnCancel(t *testing.T) {
	client := newMockStreamClient()
	client.pending = []redis.XMessage{
		{ID: "1-0", Values: map[string]interface{}{"value": "a"}},
		{ID: "2-0", Values: map[string]interface{}{"value": "b"}},
	}
	handler := &mockHandler{}
	consumer, _ := newTestConsumer(client, handler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(client.ackedIDs()) == 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop on cancellation")
	}

	assert.Equal(t, int32(2), handler.calls.Load())
}

func TestRunFatalOnGroupCreateError(t *testing.T) {
	client := newMockStreamClient()
	client.groupCreateErr = errors.New("NOPERM cannot create group")
	consumer, _ := newTestConsumer(client, &mockHandler{})

	err := consumer.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consumer group")
}

func TestRunToleratesExistingGroup(t *testing.T) {
	client := newMockStreamClient()
	client.groupCreateErr = errors.New("BUSYGROUP Consumer Group name already exists")
	consumer, _ := newTestConsumer(client, &mockHandler{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, consumer.Run(ctx))
}

func TestRunSurvivesTransportError(t *testing.T) {
	client := newMockStreamClient()
	client.readErr = errors.New("connection reset")
	client.pending = []redis.XMessage{
		{ID: "1-0", Values: map[string]interface{}{"value": "after-recovery"}},
	}
	handler := &mockHandler{}
	consumer := NewConsumer(
		client,
		ConsumerConfig{
			Stream:     "job:test",
			Group:      "test_group",
			Name:       "worker-test",
			Retry:      Policy{MaxAttempts: 3, Backoff: time.Millisecond},
			ErrorPause: time.Millisecond,
		},
		parseTestEnvelope,
		handler,
		NewRouter(client, "stream:dead_letter"),
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	require.Eventually(t, func() bool {
		return handler.calls.Load() == 1
	}, 2*time.Second, 5*time.Millisecond, "loop must resume after a transport error")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop on cancellation")
	}
}
