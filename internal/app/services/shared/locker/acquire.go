package locker

import (
	"context"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/exceptions"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options bounds how long AcquireAll keeps polling a busy key.
type Options struct {
	TTL           time.Duration
	Wait          time.Duration
	RetryInterval time.Duration
}

// Held is a set of locks taken by AcquireAll. Their TTL is refreshed at half
// its length until Release.
type Held struct {
	locker contracts.LockerService
	log    *zap.Logger
	ttl    time.Duration
	keys   []string
	values []string

	stopRefresh context.CancelFunc
	refreshDone chan struct{}
}

// AcquireAll takes every key in the given order, polling each busy key until
// opts.Wait has elapsed. On failure the keys already taken are released and a
// ConcurrencyConflict error naming the busy key is returned.
func AcquireAll(ctx context.Context, locker contracts.LockerService, logger *zap.Logger, opts Options, keys ...string) (*Held, error) {
	held := &Held{locker: locker, log: logger, ttl: opts.TTL}
	for _, key := range keys {
		value, err := acquireOne(ctx, locker, opts, key)
		if err != nil {
			held.Release(ctx)
			return nil, err
		}
		held.keys = append(held.keys, key)
		held.values = append(held.values, value)
	}
	held.startRefresh(ctx)
	return held, nil
}

func (h *Held) startRefresh(ctx context.Context) {
	if h.ttl <= 0 || len(h.keys) == 0 {
		return
	}
	refreshCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h.stopRefresh = cancel
	h.refreshDone = make(chan struct{})
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	go func() {
		defer close(h.refreshDone)
		tick := time.NewTicker(h.ttl / 2)
		defer tick.Stop()
		for {
			select {
			case <-refreshCtx.Done():
				return
			case <-tick.C:
				for i, key := range h.keys {
					if err := h.locker.Refresh(refreshCtx, key, h.values[i], h.ttl); err != nil && h.log != nil {
						h.log.Warn("locker.Held failed to refresh lock TTL",
							zap.String(constvars.LoggingRequestIDKey, requestID),
							zap.String(constvars.LoggingRedisKey, key),
							zap.Error(err),
						)
					}
				}
			}
		}
	}()
}

func acquireOne(ctx context.Context, locker contracts.LockerService, opts Options, key string) (string, error) {
	interval := opts.RetryInterval
	if interval <= 0 {
		interval = 25 * time.Millisecond
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	waitCtx, cancel := context.WithTimeout(ctx, opts.Wait)
	defer cancel()

	for {
		acquired, value, err := locker.TryLock(ctx, key, opts.TTL)
		if err != nil {
			return "", err
		}
		if acquired {
			return value, nil
		}
		if err := limiter.Wait(waitCtx); err != nil {
			return "", exceptions.ErrConcurrencyConflict(err, key)
		}
	}
}

// Release unlocks the held keys in reverse order. It runs even when ctx is
// already cancelled.
func (h *Held) Release(ctx context.Context) {
	if h == nil {
		return
	}
	if h.stopRefresh != nil {
		h.stopRefresh()
		<-h.refreshDone
		h.stopRefresh = nil
	}
	releaseCtx := context.WithoutCancel(ctx)
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	for i := len(h.keys) - 1; i >= 0; i-- {
		if err := h.locker.Unlock(releaseCtx, h.keys[i], h.values[i]); err != nil && h.log != nil {
			h.log.Warn("locker.Held.Release error unlocking key",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingRedisKey, h.keys[i]),
				zap.Error(err),
			)
		}
	}
	h.keys = nil
	h.values = nil
}
