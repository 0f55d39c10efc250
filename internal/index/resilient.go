package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/resilience"
)

// ResilientStore guards another Store with a per-lookup timeout, bounded
// retries and a circuit breaker. Transport failures surface as
// ErrStoreUnavailable; malformed records and not-found results pass through
// untouched and never trip the breaker. Lookups cut short by the caller's
// own context are not held against the store: they come back as ErrTimeout
// (deadline) or the context error (cancellation).
type ResilientStore struct {
	next    Store
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
	timeout time.Duration
	logger  *slog.Logger
}

// ResilientOption customises a ResilientStore.
type ResilientOption func(*resilience.CircuitBreakerConfig)

// WithStateChange registers a callback for breaker transitions.
func WithStateChange(fn func(name string, from, to resilience.State)) ResilientOption {
	return func(c *resilience.CircuitBreakerConfig) {
		c.OnStateChange = fn
	}
}

func NewResilientStore(next Store, rcfg config.ResilienceConfig, lookupTimeout time.Duration, opts ...ResilientOption) *ResilientStore {
	cbCfg := resilience.CircuitBreakerConfig{
		FailureThreshold: rcfg.FailureThreshold,
		ResetTimeout:     rcfg.ResetTimeout,
		IsFailure:        isTransportFailure,
		IsIgnored:        isAbandoned,
	}
	for _, opt := range opts {
		opt(&cbCfg)
	}
	return &ResilientStore{
		next:    next,
		breaker: resilience.NewCircuitBreaker("index-store", cbCfg),
		retry: resilience.RetryConfig{
			MaxAttempts:  rcfg.MaxAttempts,
			InitialDelay: rcfg.InitialDelay,
			MaxDelay:     rcfg.MaxDelay,
			Retryable:    isTransportFailure,
		},
		timeout: lookupTimeout,
		logger:  slog.Default().With("component", "index-store"),
	}
}

// BreakerState reports the breaker state for health checks.
func (s *ResilientStore) BreakerState() resilience.State {
	return s.breaker.GetState()
}

// errAbandoned marks attempts that failed because the caller's context was
// done. The breaker ignores them.
var errAbandoned = errors.New("lookup abandoned by caller")

func isAbandoned(err error) bool {
	return errors.Is(err, errAbandoned)
}

func isTransportFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, apperrors.ErrMalformedPosting) || errors.Is(err, errAbandoned) || errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

func (s *ResilientStore) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return callerDone(op, err)
	}
	err := resilience.Retry(ctx, op, s.retry, func() error {
		return s.breaker.Execute(func() error {
			return s.attempt(ctx, op, fn)
		})
	})
	if err == nil {
		return nil
	}
	if cerr := ctx.Err(); cerr != nil {
		return callerDone(op, cerr)
	}
	if !isTransportFailure(err) {
		return err
	}
	s.logger.Error("index lookup failed", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %w", apperrors.ErrStoreUnavailable, op, err)
}

func callerDone(op string, cause error) error {
	if errors.Is(cause, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", apperrors.ErrTimeout, op, cause)
	}
	return fmt.Errorf("%s: %w", op, cause)
}

// attempt runs fn synchronously under the lookup deadline so the closures
// below never write their results after the caller has returned. Only the
// lookup deadline counts as a store timeout.
func (s *ResilientStore) attempt(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attemptCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, s.timeout)
	}
	defer cancel()

	err := fn(attemptCtx)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %s: %w", errAbandoned, op, err)
	case s.timeout > 0 && errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %s exceeded %v", apperrors.ErrTimeout, op, s.timeout)
	}
	return err
}

func (s *ResilientStore) WordID(ctx context.Context, word string) (wid WordID, ok bool, err error) {
	err = s.call(ctx, OpWordID, func(ctx context.Context) error {
		var e error
		wid, ok, e = s.next.WordID(ctx, word)
		return e
	})
	return wid, ok, err
}

func (s *ResilientStore) Positions(ctx context.Context, wid WordID, variant Variant) (out PositionPostings, err error) {
	err = s.call(ctx, OpPositions, func(ctx context.Context) error {
		var e error
		out, e = s.next.Positions(ctx, wid, variant)
		return e
	})
	return out, err
}

func (s *ResilientStore) FullPostings(ctx context.Context, wid WordID, field Field) (out FullPostings, err error) {
	err = s.call(ctx, OpFullPostings, func(ctx context.Context) error {
		var e error
		out, e = s.next.FullPostings(ctx, wid, field)
		return e
	})
	return out, err
}

func (s *ResilientStore) DocumentMeta(ctx context.Context, did DocID) (meta DocumentMeta, ok bool, err error) {
	err = s.call(ctx, OpDocumentMeta, func(ctx context.Context) error {
		var e error
		meta, ok, e = s.next.DocumentMeta(ctx, did)
		return e
	})
	return meta, ok, err
}

func (s *ResilientStore) DocIDOfURL(ctx context.Context, url string) (did DocID, ok bool, err error) {
	err = s.call(ctx, OpDocIDOfURL, func(ctx context.Context) error {
		var e error
		did, ok, e = s.next.DocIDOfURL(ctx, url)
		return e
	})
	return did, ok, err
}

func (s *ResilientStore) URLOfDocID(ctx context.Context, did DocID) (url string, ok bool, err error) {
	err = s.call(ctx, OpURLOfDocID, func(ctx context.Context) error {
		var e error
		url, ok, e = s.next.URLOfDocID(ctx, did)
		return e
	})
	return url, ok, err
}

func (s *ResilientStore) ParentIDs(ctx context.Context, did DocID) (ids []DocID, err error) {
	err = s.call(ctx, OpParentIDs, func(ctx context.Context) error {
		var e error
		ids, e = s.next.ParentIDs(ctx, did)
		return e
	})
	return ids, err
}

func (s *ResilientStore) ChildIDs(ctx context.Context, did DocID) (ids []DocID, err error) {
	err = s.call(ctx, OpChildIDs, func(ctx context.Context) error {
		var e error
		ids, e = s.next.ChildIDs(ctx, did)
		return e
	})
	return ids, err
}

func (s *ResilientStore) ForwardKeywords(ctx context.Context, did DocID) (kw map[string]int, err error) {
	err = s.call(ctx, OpForwardKeywords, func(ctx context.Context) error {
		var e error
		kw, e = s.next.ForwardKeywords(ctx, did)
		return e
	})
	return kw, err
}

func (s *ResilientStore) RawBody(ctx context.Context, did DocID) (body string, ok bool, err error) {
	err = s.call(ctx, OpRawBody, func(ctx context.Context) error {
		var e error
		body, ok, e = s.next.RawBody(ctx, did)
		return e
	})
	return body, ok, err
}

func (s *ResilientStore) WordCount(ctx context.Context) (n int64, err error) {
	err = s.call(ctx, OpWordCount, func(ctx context.Context) error {
		var e error
		n, e = s.next.WordCount(ctx)
		return e
	})
	return n, err
}

// Ping bypasses retries so readiness reflects the current state.
func (s *ResilientStore) Ping(ctx context.Context) error {
	return s.breaker.Execute(func() error {
		err := resilience.WithTimeout(ctx, s.timeout, OpPing, s.next.Ping)
		if err != nil && ctx.Err() != nil {
			return fmt.Errorf("%w: %w", errAbandoned, err)
		}
		return err
	})
}
