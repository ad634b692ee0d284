package rendezvous

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is a concurrency-safe username -> token map.
type fakeStore struct {
	mu      sync.Mutex
	tokens  map[string]string
	lookups int
}

func newFakeStore() *fakeStore {
	return &fakeStore{tokens: make(map[string]string)}
}

func (s *fakeStore) put(username, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[username] = token
}

func (s *fakeStore) lookup(_ context.Context, username string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	token, ok := s.tokens[username]
	return token, ok && token != "", nil
}

func (s *fakeStore) lookupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups
}

// instantSleep skips the wait entirely so tests never burn real time.
func instantSleep(ctx context.Context, _ time.Duration, _ <-chan struct{}) error {
	return ctx.Err()
}

func newTestWaiter(store *fakeStore, attempts int) *Waiter {
	w := NewWaiter(store.lookup, time.Second, attempts)
	w.sleep = instantSleep
	return w
}

func TestAwaitTimeoutConsumesFullBudget(t *testing.T) {
	store := newFakeStore()
	w := newTestWaiter(store, 100)

	_, err := w.Await(context.Background(), "ghost")

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "ghost", timeoutErr.Username)
	assert.Equal(t, 100, timeoutErr.Attempts)
	assert.Equal(t, 100, store.lookupCount())
}

func TestAwaitFindsTokenWrittenBeforeAttempt(t *testing.T) {
	store := newFakeStore()
	store.put("alice", "abc123")
	w := newTestWaiter(store, 100)

	token, err := w.Await(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
	// Token was present before the first poll, so exactly one lookup.
	assert.Equal(t, 1, store.lookupCount())
}

func TestAwaitFindsTokenAppearingMidway(t *testing.T) {
	store := newFakeStore()
	w := NewWaiter(store.lookup, time.Second, 10)

	var sleeps int
	w.sleep = func(ctx context.Context, _ time.Duration, _ <-chan struct{}) error {
		sleeps++
		if sleeps == 3 {
			// Written strictly before the third poll attempt.
			store.put("bob", "tok-3")
		}
		return ctx.Err()
	}

	token, err := w.Await(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "tok-3", token)
	assert.LessOrEqual(t, store.lookupCount(), 3)
}

func TestAwaitIsReadOnlyAndRepeatable(t *testing.T) {
	store := newFakeStore()
	store.put("carol", "tok")
	w := newTestWaiter(store, 5)

	first, err := w.Await(context.Background(), "carol")
	require.NoError(t, err)
	second, err := w.Await(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "tok", store.tokens["carol"])
}

func TestAwaitStopsOnCancellation(t *testing.T) {
	store := newFakeStore()
	w := NewWaiter(store.lookup, time.Minute, 100)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := w.Await(ctx, "dave")
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
		var timeoutErr *TimeoutError
		assert.False(t, errors.As(err, &timeoutErr), "cancellation must not look like a rendezvous timeout")
	case <-time.After(2 * time.Second):
		t.Fatal("Await did not stop promptly after cancellation")
	}
}

func TestNotifyWakesWaiterEarly(t *testing.T) {
	store := newFakeStore()
	// Real sleep with an hour-long interval: only Notify can wake it.
	w := NewWaiter(store.lookup, time.Hour, 100)

	done := make(chan string, 1)
	go func() {
		token, err := w.Await(context.Background(), "erin")
		if err != nil {
			done <- "error: " + err.Error()
			return
		}
		done <- token
	}()

	// Give the waiter a moment to register and park.
	time.Sleep(50 * time.Millisecond)
	store.put("erin", "fresh-token")
	w.Notify("erin")

	select {
	case got := <-done:
		assert.Equal(t, "fresh-token", got)
	case <-time.After(2 * time.Second):
		t.Fatal("Notify did not wake the waiter")
	}
}

func TestAwaitsForDifferentUsernamesAreIndependent(t *testing.T) {
	store := newFakeStore()
	store.put("fast", "fast-token")
	w := NewWaiter(store.lookup, time.Hour, 100)

	slowDone := make(chan struct{})
	go func() {
		defer close(slowDone)
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(200 * time.Millisecond)
			cancel()
		}()
		_, _ = w.Await(ctx, "slow")
	}()

	fastCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// Wake immediately so the hour interval does not apply.
	go func() {
		time.Sleep(10 * time.Millisecond)
		w.Notify("fast")
	}()
	token, err := w.Await(fastCtx, "fast")
	require.NoError(t, err, "a parked wait for another username must not block this one")
	assert.Equal(t, "fast-token", token)

	<-slowDone
}

func TestLookupErrorsKeepPolling(t *testing.T) {
	calls := 0
	lookup := func(_ context.Context, _ string) (string, bool, error) {
		calls++
		if calls < 3 {
			return "", false, errors.New("transient store error")
		}
		return "recovered", true, nil
	}
	w := NewWaiter(lookup, time.Second, 10)
	w.sleep = instantSleep

	token, err := w.Await(context.Background(), "grace")
	require.NoError(t, err)
	assert.Equal(t, "recovered", token)
	assert.Equal(t, 3, calls)
}
