// Package rendezvous bridges the gap between an OAuth redirect completing
// on one connection and a separate client polling for the minted bearer
// token on another. The only key shared between the two requests is the
// username, so the waiter watches the user store for the token to appear,
// bounded by a fixed attempt budget.
package rendezvous

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultInterval and DefaultAttempts reproduce the historical
	// budget: 2 seconds times 100 attempts, a ~200s worst-case ceiling.
	DefaultInterval = 2 * time.Second
	DefaultAttempts = 100
)

// TimeoutError is returned when the attempt budget is exhausted without
// the token appearing.
type TimeoutError struct {
	Username string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no access token appeared for user %q after %d attempts", e.Username, e.Attempts)
}

// LookupFunc checks the store for the internal token of a username.
// It returns the token and true when one is present. A store error is
// reported so the waiter can log it, but polling continues: the loop
// exists to wait out eventual consistency, not to fail fast.
type LookupFunc func(ctx context.Context, username string) (token string, found bool, err error)

// Waiter implements the bounded token rendezvous. Waits for different
// usernames are fully independent; waits for the same username each poll
// read-only state and need no mutual exclusion between them.
//
// Besides polling, the waiter keeps a wake registry keyed by username so
// the login flow can cut a wait short the moment it persists a token.
// The poll fallback stays in place for tokens written by other processes.
type Waiter struct {
	lookup   LookupFunc
	interval time.Duration
	attempts int

	// sleep waits for d or until wake fires, honoring ctx. Replaced in
	// tests to avoid real multi-second waits.
	sleep func(ctx context.Context, d time.Duration, wake <-chan struct{}) error

	mu    sync.Mutex
	wakes map[string][]chan struct{}
}

// NewWaiter creates a Waiter polling through lookup. Non-positive
// interval or attempts fall back to the defaults.
func NewWaiter(lookup LookupFunc, interval time.Duration, attempts int) *Waiter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	return &Waiter{
		lookup:   lookup,
		interval: interval,
		attempts: attempts,
		sleep:    sleepWait,
		wakes:    make(map[string][]chan struct{}),
	}
}

func sleepWait(ctx context.Context, d time.Duration, wake <-chan struct{}) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	case <-wake:
		return nil
	}
}

// Notify wakes all pending waits for the username. Called by the login
// flow right after it persists a fresh internal token.
func (w *Waiter) Notify(username string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.wakes[username] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (w *Waiter) register(username string) chan struct{} {
	ch := make(chan struct{}, 1)
	w.mu.Lock()
	w.wakes[username] = append(w.wakes[username], ch)
	w.mu.Unlock()
	return ch
}

func (w *Waiter) unregister(username string, ch chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	chans := w.wakes[username]
	for i, c := range chans {
		if c == ch {
			w.wakes[username] = append(chans[:i], chans[i+1:]...)
			break
		}
	}
	if len(w.wakes[username]) == 0 {
		delete(w.wakes, username)
	}
}

// Await blocks until the username's internal token appears in the store,
// the attempt budget runs out, or ctx is cancelled. It holds the calling
// connection for up to interval*attempts; callers must treat it as a
// long-lived synchronous call. Await never mutates the store.
func (w *Waiter) Await(ctx context.Context, username string) (string, error) {
	wake := w.register(username)
	defer w.unregister(username, wake)

	for cycle := 1; cycle <= w.attempts; cycle++ {
		log.Debug().Str("username", username).Int("cycle", cycle).
			Msg("token synchronization cycle in process")

		if err := w.sleep(ctx, w.interval, wake); err != nil {
			// Client disconnected or request timed out. Not a success
			// and not a rendezvous timeout either.
			return "", err
		}

		token, found, err := w.lookup(ctx, username)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.Warn().Err(err).Str("username", username).
				Msg("token lookup failed, retrying next cycle")
			continue
		}
		if found {
			log.Info().Str("username", username).Int("cycle", cycle).
				Msg("found access token, synchronization success")
			return token, nil
		}
	}

	log.Info().Str("username", username).Int("attempts", w.attempts).
		Msg("could not find access token, synchronization failed")

	return "", &TimeoutError{Username: username, Attempts: w.attempts}
}
