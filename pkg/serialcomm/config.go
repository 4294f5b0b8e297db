package serialcomm

import (
	"time"

	"github.com/NCSUhardware/high-level/pkg/options"
)

// Config carries the process-wide constants the original source kept as
// module-level globals (port name, baud rate, timeout, queue capacity,
// execution mode, id-prefixing, servo delay) as an explicit value passed
// at construction instead.
type Config struct {
	Port    string
	Baud    int
	Timeout time.Duration

	QueueCapacity int

	// Sequential forces one exec loop that sends then blocks for a
	// response, instead of the default pipelined send/receive pair.
	Sequential bool

	// PrefixID, when true, prepends "<id> " to every outgoing payload so
	// the firmware can echo the id back.
	PrefixID bool

	ServoDelay time.Duration
	FakeDelay  time.Duration
}

// Option configures a Config at construction time.
type Option = options.Option

const (
	DefaultPort          = "/dev/ttyO3"
	DefaultBaud          = 19200
	DefaultTimeout       = 10 * time.Second
	DefaultQueueCapacity = 10
	DefaultServoDelay    = 1 * time.Second
	DefaultFakeDelay     = time.Millisecond
)

// NewConfig returns a Config matching the original source's module-level
// defaults, overridden by opts.
func NewConfig(opts ...Option) Config {
	cfg := &Config{
		Port:          DefaultPort,
		Baud:          DefaultBaud,
		Timeout:       DefaultTimeout,
		QueueCapacity: DefaultQueueCapacity,
		Sequential:    false,
		PrefixID:      true,
		ServoDelay:    DefaultServoDelay,
		FakeDelay:     DefaultFakeDelay,
	}
	options.Apply(cfg, opts...)
	return *cfg
}

func WithPort(port string) Option {
	return func(cfg interface{}) {
		if c, ok := cfg.(*Config); ok {
			c.Port = port
		}
	}
}

func WithBaud(baud int) Option {
	return func(cfg interface{}) {
		if c, ok := cfg.(*Config); ok {
			c.Baud = baud
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(cfg interface{}) {
		if c, ok := cfg.(*Config); ok {
			c.Timeout = timeout
		}
	}
}

func WithSequential(sequential bool) Option {
	return func(cfg interface{}) {
		if c, ok := cfg.(*Config); ok {
			c.Sequential = sequential
		}
	}
}

func WithQueueCapacity(n int) Option {
	return func(cfg interface{}) {
		if c, ok := cfg.(*Config); ok {
			c.QueueCapacity = n
		}
	}
}

func WithServoDelay(d time.Duration) Option {
	return func(cfg interface{}) {
		if c, ok := cfg.(*Config); ok {
			c.ServoDelay = d
		}
	}
}
