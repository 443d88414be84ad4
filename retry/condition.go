package retry

import (
	"context"
	"errors"
)

// RetryCondition retry condition interface
type RetryCondition interface {
	// ShouldRetry reports whether attempt (starting from 1) failing with err is retried
	ShouldRetry(err error, attempt int) bool
}

// ConditionFunc adapts a function to RetryCondition
type ConditionFunc func(err error, attempt int) bool

// ShouldRetry implements RetryCondition
func (f ConditionFunc) ShouldRetry(err error, attempt int) bool {
	return f(err, attempt)
}

// AlwaysRetry retries every error
func AlwaysRetry() RetryCondition {
	return ConditionFunc(func(err error, _ int) bool { return err != nil })
}

// NeverRetry never retries
func NeverRetry() RetryCondition {
	return ConditionFunc(func(error, int) bool { return false })
}

// RetryOnError retries when errors.Is(err, target)
func RetryOnError(target error) RetryCondition {
	return ConditionFunc(func(err error, _ int) bool { return errors.Is(err, target) })
}

// RetryOnContextError matches context cancellation and deadline errors
func RetryOnContextError() RetryCondition {
	return ConditionFunc(func(err error, _ int) bool {
		return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	})
}

// Not negates a condition (for a nil error it never retries)
func Not(condition RetryCondition) RetryCondition {
	return ConditionFunc(func(err error, attempt int) bool {
		return err != nil && !condition.ShouldRetry(err, attempt)
	})
}
