package retry

import (
	"time"
)

// Config retry configuration
type Config struct {
	maxAttempts int                          // default 3
	backoff     BackoffStrategy              // default exponential from 100ms
	condition   RetryCondition               // default: retry everything except ctx errors
	onRetry     func(attempt int, err error) // retry callback
	timeout     time.Duration                // per attempt (0 = unlimited)
}

func defaultConfig() *Config {
	return &Config{
		maxAttempts: 3,
		backoff:     ExponentialBackoff(100 * time.Millisecond),
		condition:   Not(RetryOnContextError()),
	}
}

// Option configuration option function
type Option func(*Config)

// MaxAttempts sets the maximum number of attempts
func MaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// Backoff sets the backoff strategy
func Backoff(b BackoffStrategy) Option {
	return func(c *Config) {
		if b != nil {
			c.backoff = b
		}
	}
}

// Condition sets the retry condition
func Condition(cond RetryCondition) Option {
	return func(c *Config) {
		if cond != nil {
			c.condition = cond
		}
	}
}

// OnRetry sets the retry callback
func OnRetry(f func(attempt int, err error)) Option {
	return func(c *Config) {
		c.onRetry = f
	}
}

// Timeout sets the per-attempt timeout
func Timeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.timeout = d
		}
	}
}
