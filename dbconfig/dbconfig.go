// Package dbconfig defines the configuration surface for opening a
// database (spec §6 "Configuration"): functional options layered over a
// Config struct with sane defaults, in the style of ignite's pkg/options.
package dbconfig

import "go.uber.org/zap"

const (
	DefaultBloomBits   = 30000
	DefaultBloomHashes = 13
	DefaultFileMode    = 0644
)

// Config holds every recognized option for Open.
type Config struct {
	// HintMode selects the recovery strategy: true parses .hnt files,
	// false rescans .data files directly.
	HintMode bool

	// BloomBits and BloomHashes size every per-file bloom filter.
	BloomBits   uint
	BloomHashes uint

	// FileMode is the permission bits used when creating data and hint
	// files.
	FileMode uint32

	// Logger receives structured diagnostics. Defaults to a no-op logger
	// if never set.
	Logger *zap.SugaredLogger
}

// Default returns a Config populated with the spec's documented defaults.
func Default() *Config {
	return &Config{
		HintMode:    false,
		BloomBits:   DefaultBloomBits,
		BloomHashes: DefaultBloomHashes,
		FileMode:    DefaultFileMode,
		Logger:      zap.NewNop().Sugar(),
	}
}

// Option mutates a Config during Open.
type Option func(*Config)

// WithHintMode selects whether startup recovery parses hint files
// instead of rescanning data files.
func WithHintMode(enabled bool) Option {
	return func(c *Config) { c.HintMode = enabled }
}

// WithBloomBits overrides the per-file bloom filter bit-array size.
func WithBloomBits(bits uint) Option {
	return func(c *Config) {
		if bits > 0 {
			c.BloomBits = bits
		}
	}
}

// WithBloomHashes overrides the per-file bloom filter hash count.
func WithBloomHashes(hashes uint) Option {
	return func(c *Config) {
		if hashes > 0 {
			c.BloomHashes = hashes
		}
	}
}

// WithFileMode overrides the permission bits used for new data/hint files.
func WithFileMode(mode uint32) Option {
	return func(c *Config) { c.FileMode = mode }
}

// WithLogger overrides the default no-op logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// Apply builds a Config from the documented defaults plus opts, in order.
func Apply(opts ...Option) *Config {
	c := Default()
	for _, opt := range opts {
		opt(c)
	}
	return c
}
