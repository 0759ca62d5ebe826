// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/tidalx/internal/models"
)

// MemoryKV is an in-memory key-value store that counts batch writes.
type MemoryKV struct {
	mu     sync.Mutex
	data   map[string]string
	Writes []map[string]string
	Err    error
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: map[string]string{}}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", false, m.Err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Put(values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	batch := make(map[string]string, len(values))
	for k, v := range values {
		m.data[k] = v
		batch[k] = v
	}
	m.Writes = append(m.Writes, batch)
	return nil
}

func (m *MemoryKV) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *MemoryKV) Close() error { return nil }

// WriteCount returns the number of Put batches.
func (m *MemoryKV) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Writes)
}

// Len returns the number of stored keys.
func (m *MemoryKV) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// PollResponse is one scripted answer of [FakeAuthorizer.PollToken].
type PollResponse struct {
	Record models.TokenRecord
	Err    error
}

// FakeAuthorizer is a scripted device authorization capability.
//
// Once the script runs out the last response repeats.
type FakeAuthorizer struct {
	mu       sync.Mutex
	Grant    models.DeviceGrant
	IssueErr error
	Script   []PollResponse
	polls    int
	// Polled, when set, receives the attempt number after each poll.
	Polled chan int
}

func (f *FakeAuthorizer) IssueDeviceCode(ctx context.Context) (models.DeviceGrant, error) {
	if f.IssueErr != nil {
		return models.DeviceGrant{}, f.IssueErr
	}
	return f.Grant, nil
}

func (f *FakeAuthorizer) PollToken(ctx context.Context, deviceCode string) (models.TokenRecord, error) {
	f.mu.Lock()
	idx := f.polls
	f.polls++
	var resp PollResponse
	if n := len(f.Script); n > 0 {
		resp = f.Script[min(idx, n-1)]
	}
	f.mu.Unlock()

	if f.Polled != nil {
		f.Polled <- idx + 1
	}
	return resp.Record, resp.Err
}

// Polls returns the number of PollToken calls.
func (f *FakeAuthorizer) Polls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

// ManualTicker delivers ticks only when Tick is called and records requested intervals.
type ManualTicker struct {
	mu        sync.Mutex
	C         chan time.Time
	Intervals []time.Duration
	stopped   bool
}

func NewManualTicker() *ManualTicker {
	return &ManualTicker{C: make(chan time.Time)}
}

// New matches the ticker factory signature used by the device flow.
func (m *ManualTicker) New(d time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	m.Intervals = append(m.Intervals, d)
	m.stopped = false
	m.mu.Unlock()
	return m.C, func() {
		m.mu.Lock()
		m.stopped = true
		m.mu.Unlock()
	}
}

// Tick blocks until the flow receives a tick.
func (m *ManualTicker) Tick() {
	m.C <- time.Now()
}

// TryTick delivers a tick if the flow is waiting within d and reports whether it was received.
func (m *ManualTicker) TryTick(d time.Duration) bool {
	select {
	case m.C <- time.Now():
		return true
	case <-time.After(d):
		return false
	}
}

func (m *ManualTicker) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)
