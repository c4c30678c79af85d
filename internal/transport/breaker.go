package transport

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/smorady/msg-orchestrator/internal/apperr"
)

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// Breaker guards a Doer with a small circuit breaker. After failThreshold
// consecutive provider-side failures it opens and fails fast; after openFor
// it lets one probe through. Caller errors (4xx) never trip it.
type Breaker struct {
	next Doer

	mu               sync.Mutex
	st               breakerState
	consecutiveFails int
	failThreshold    int
	openFor          time.Duration
	nextTryAt        time.Time
	probeInFlight    bool
}

func NewBreaker(next Doer, failThreshold int, openFor time.Duration) *Breaker {
	if failThreshold <= 0 {
		failThreshold = 5
	}
	if openFor <= 0 {
		openFor = 10 * time.Second
	}
	return &Breaker{next: next, failThreshold: failThreshold, openFor: openFor}
}

func (b *Breaker) Do(ctx context.Context, req Request) (*Response, error) {
	if !b.tryAcquire() {
		return nil, apperr.Retryable("provider_unavailable", "provider circuit open, retry later", nil)
	}

	resp, err := b.next.Do(ctx, req)
	if isProviderFailure(err) {
		b.onFailure()
	} else {
		b.onSuccess()
	}
	return resp, err
}

// isProviderFailure is true for transport-level failures and provider-side
// statuses (5xx, 429). Other rejections are the request's fault and leave
// the breaker alone.
func isProviderFailure(err error) bool {
	if err == nil {
		return false
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return false
	}
	return reqErr.Status == 0 || reqErr.Status >= 500 || reqErr.Status == http.StatusTooManyRequests
}

func (b *Breaker) tryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	switch b.st {
	case stateClosed:
		return true
	case stateOpen:
		if now.After(b.nextTryAt) && !b.probeInFlight {
			b.st = stateHalfOpen
			b.probeInFlight = true
			return true
		}
		return false
	case stateHalfOpen:
		if !b.probeInFlight {
			b.probeInFlight = true
			return true
		}
		return false
	default:
		return true
	}
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	b.consecutiveFails = 0
	b.st = stateClosed
	b.probeInFlight = false
	b.mu.Unlock()
}

func (b *Breaker) onFailure() {
	b.mu.Lock()
	if b.st == stateHalfOpen {
		b.st = stateOpen
		b.nextTryAt = time.Now().Add(b.openFor)
		b.probeInFlight = false
		b.mu.Unlock()
		return
	}

	b.consecutiveFails++
	if b.consecutiveFails >= b.failThreshold {
		b.st = stateOpen
		b.nextTryAt = time.Now().Add(b.openFor)
	}

	b.mu.Unlock()
}
