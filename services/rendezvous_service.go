package services

import (
	"context"
	"errors"
	"time"

	"github.com/cloudteams/developer-services/internal/metrics"
	"github.com/cloudteams/developer-services/internal/rendezvous"
)

// RendezvousService exposes the bounded token rendezvous to the HTTP
// layer and records its outcome metrics.
type RendezvousService struct {
	waiter *rendezvous.Waiter
}

// NewRendezvousService creates a new RendezvousService.
func NewRendezvousService(waiter *rendezvous.Waiter) *RendezvousService {
	return &RendezvousService{waiter: waiter}
}

// AwaitToken blocks until the internal token for the username appears,
// the attempt budget runs out, or ctx is cancelled. It is a pure read on
// the store and can be called again after a prior success.
func (s *RendezvousService) AwaitToken(ctx context.Context, username string) (string, error) {
	start := time.Now()
	token, err := s.waiter.Await(ctx, username)
	if metrics.RendezvousWaitSeconds != nil {
		metrics.RendezvousWaitSeconds.Observe(time.Since(start).Seconds())
	}

	var timeoutErr *rendezvous.TimeoutError
	switch {
	case err == nil:
		if metrics.RendezvousSuccessTotal != nil {
			metrics.RendezvousSuccessTotal.Inc()
		}
	case errors.As(err, &timeoutErr):
		if metrics.RendezvousTimeoutTotal != nil {
			metrics.RendezvousTimeoutTotal.Inc()
		}
	}
	return token, err
}
