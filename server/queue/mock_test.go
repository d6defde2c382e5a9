package queue

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// mockStreamClient is an in-memory StreamClient for testing. It delivers
// pending messages one at a time and records every ack, append, and publish.
type mockStreamClient struct {
	mu sync.Mutex

	groupCreateErr error
	readErr        error

	pending      []redis.XMessage
	groupCreates int
	acked        []string
	added        []*redis.XAddArgs
	published    map[string][]string
}

func newMockStreamClient() *mockStreamClient {
	return &mockStreamClient{published: make(map[string][]string)}
}

func (m *mockStreamClient) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groupCreates++
	if m.groupCreateErr != nil {
		return redis.NewStatusResult("", m.groupCreateErr)
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *mockStreamClient) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		err := m.readErr
		m.readErr = nil
		return redis.NewXStreamSliceCmdResult(nil, err)
	}
	if len(m.pending) == 0 {
		return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
	}
	message := m.pending[0]
	m.pending = m.pending[1:]
	return redis.NewXStreamSliceCmdResult([]redis.XStream{
		{Stream: a.Streams[0], Messages: []redis.XMessage{message}},
	}, nil)
}

func (m *mockStreamClient) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func (m *mockStreamClient) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, a)
	return redis.NewStringResult("0-1", nil)
}

func (m *mockStreamClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := message.([]byte)
	if !ok {
		payload = []byte("?")
	}
	m.published[channel] = append(m.published[channel], string(payload))
	return redis.NewIntResult(1, nil)
}

func (m *mockStreamClient) ackedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...)
}

func (m *mockStreamClient) addedEntries() []*redis.XAddArgs {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*redis.XAddArgs(nil), m.added...)
}
