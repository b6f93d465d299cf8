package redis

import "time"

const defaultPrefix = "fieldwork:"

type options struct {
	prefix string
	ttl    time.Duration
}

// Option configures the Redis adapters.
type Option func(*options)

// WithTTL sets the expiration for stored drafts. Records never expire.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

func newOptions(opts []Option) options {
	o := options{prefix: defaultPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
