// Package retry wraps flaky operations with bounded retries and
// exponential backoff. Failures are reported as structured results, never
// panics; the final failure of an exhausted operation is persisted to a
// capped error log for later inspection.
package retry

import (
	"context"
	"net/http"
	"time"

	"github.com/quotegate/quotegate/pkg/errlog"
	"go.uber.org/zap"
)

// Policy describes the retry schedule for an operation.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt, so
	// an operation runs at most MaxRetries+1 times.
	MaxRetries int

	// BaseDelay is the delay before the first retry; retry k waits
	// BaseDelay * 2^(k-1).
	BaseDelay time.Duration
}

// Delay returns the exponential backoff delay before retry k (1-based).
func (p Policy) Delay(k int) time.Duration {
	return p.BaseDelay << (k - 1)
}

// Result is the structured outcome of an executed operation. It is
// created once per call and never mutated after return.
type Result[T any] struct {
	Success        bool
	Data           T
	Err            error
	Source         string
	HTTPStatus     int
	ResponseTimeMs int64
	// RetryCount is the number of retries performed, 0 when the first
	// attempt succeeded.
	RetryCount int
}

// Config holds executor configuration.
type Config struct {
	Policy Policy
	Logger *zap.Logger

	// Sink receives the final failure of exhausted operations. Optional.
	Sink errlog.Sink

	// Retryable classifies errors; a false return aborts the retry loop
	// immediately. Defaults to retrying everything.
	Retryable func(error) bool

	// Sleep and Clock are injectable for deterministic tests.
	Sleep func(context.Context, time.Duration) error
	Clock func() time.Time
}

// Executor runs operations under a retry policy.
type Executor struct {
	policy    Policy
	logger    *zap.Logger
	sink      errlog.Sink
	retryable func(error) bool
	sleep     func(context.Context, time.Duration) error
	clock     func() time.Time
}

// New creates an executor. Zero-value policy fields get sane defaults.
func New(cfg Config) *Executor {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Policy.MaxRetries < 0 {
		cfg.Policy.MaxRetries = 0
	}
	if cfg.Policy.BaseDelay <= 0 {
		cfg.Policy.BaseDelay = time.Second
	}
	if cfg.Retryable == nil {
		cfg.Retryable = func(error) bool { return true }
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Executor{
		policy:    cfg.Policy,
		logger:    cfg.Logger,
		sink:      cfg.Sink,
		retryable: cfg.Retryable,
		sleep:     cfg.Sleep,
		clock:     cfg.Clock,
	}
}

// retryAfterer is implemented by errors carrying a provider-suggested
// delay (HTTP 429 Retry-After and friends).
type retryAfterer interface {
	RetryAfter() time.Duration
}

// Do runs op under the executor's policy and returns a structured result.
//
// Attempt k>1 is preceded by an exponential backoff delay; when the
// previous failure suggested a rate-limit delay, the executor waits at
// least that long instead. Non-retryable errors abort immediately. Every
// attempt failure is logged; the final failure of an exhausted operation
// is appended to the error log.
func Do[T any](ctx context.Context, e *Executor, name string, op func(context.Context) (T, error)) Result[T] {
	start := e.clock()
	AttemptsTotal.Inc()

	var lastErr error
	retries := e.policy.MaxRetries
	for attempt := 0; attempt <= e.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := e.policy.Delay(attempt)
			var ra retryAfterer
			if asRetryAfter(lastErr, &ra) && ra.RetryAfter() > delay {
				delay = ra.RetryAfter()
			}

			RetriesTotal.Inc()
			e.logger.Debug("retry-backoff",
				zap.String("operation", name),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay))

			if err := e.sleep(ctx, delay); err != nil {
				lastErr = err
				retries = attempt - 1
				break
			}
		}

		data, err := op(ctx)
		if err == nil {
			elapsed := e.clock().Sub(start)
			DurationSeconds.Observe(elapsed.Seconds())
			return Result[T]{
				Success:        true,
				Data:           data,
				HTTPStatus:     http.StatusOK,
				ResponseTimeMs: elapsed.Milliseconds(),
				RetryCount:     attempt,
			}
		}

		lastErr = err
		e.logger.Warn("attempt-failed",
			zap.String("operation", name),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", e.policy.MaxRetries+1),
			zap.Error(err))

		if !e.retryable(err) {
			e.logger.Debug("error-not-retryable",
				zap.String("operation", name),
				zap.Error(err))
			retries = attempt
			break
		}
	}

	elapsed := e.clock().Sub(start)
	ExhaustedTotal.Inc()
	e.logger.Error("operation-exhausted",
		zap.String("operation", name),
		zap.Int("retries", retries),
		zap.Duration("elapsed", elapsed),
		zap.Error(lastErr))

	e.persistFailure(name, retries+1, lastErr)

	return Result[T]{
		Success:        false,
		Err:            lastErr,
		HTTPStatus:     http.StatusInternalServerError,
		ResponseTimeMs: elapsed.Milliseconds(),
		RetryCount:     retries,
	}
}

func (e *Executor) persistFailure(name string, attempts int, err error) {
	if e.sink == nil {
		return
	}

	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	entry := errlog.NewEntry(name, attempts, msg)
	if sinkErr := e.sink.Append(entry); sinkErr != nil {
		// The error log is best effort; losing an entry must not fail
		// the operation's reported result.
		e.logger.Warn("errlog-append-failed", zap.Error(sinkErr))
	}
}

// asRetryAfter extracts a rate-limit delay hint from an error chain.
func asRetryAfter(err error, target *retryAfterer) bool {
	for err != nil {
		if ra, ok := err.(retryAfterer); ok {
			*target = ra
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// sleepContext waits for d or until ctx is cancelled, whichever is first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
