package repository

import "time"

const defaultFetchTimeout = 2 * time.Second

type options struct {
	fetchTimeout time.Duration
	now          func() time.Time
}

func defaultOptions() options {
	return options{fetchTimeout: defaultFetchTimeout, now: time.Now}
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithFetchTimeout bounds every fetch and write.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.fetchTimeout = d
		}
	}
}

// WithClock overrides the clock used for created_at defaults.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
