// Package logger holds the process-wide zerolog logger.
//
// Binaries call Init once, early in main. Everything else receives a
// zerolog.Logger value at construction; Get exists for the few places that
// cannot be handed one, and Named derives a per-component child.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configures Init.
type Options struct {
	// Level is one of trace, debug, info, warn (or warning), error, fatal.
	// Anything else falls back to info.
	Level string
	// Pretty switches to zerolog's console writer. Leave it off in
	// production so lines stay machine readable JSON.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service is stamped on every line as the "service" field.
	Service string
}

var (
	mu   sync.Mutex
	root *zerolog.Logger
)

// Init builds the process logger on the first call and returns it. Later
// calls return the existing logger and ignore opts.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if root != nil {
		return *root
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	lvl := levelOf(opts.Level)
	zerolog.SetGlobalLevel(lvl)

	w := opts.Output
	if w == nil {
		w = os.Stdout
	}
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	c := zerolog.New(w).Level(lvl).With().Timestamp().Caller()
	if opts.Service != "" {
		c = c.Str("service", opts.Service)
	}
	l := c.Logger()
	root = &l
	return l
}

// Get returns the logger built by Init. It panics before Init.
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		panic("logger: Get called before Init")
	}
	return *root
}

// Named returns a child of the process logger tagged with component.
func Named(component string) zerolog.Logger {
	return Get().With().Str("component", component).Logger()
}

// Reset drops the process logger so the next Init starts over. Tests only.
func Reset() {
	mu.Lock()
	root = nil
	mu.Unlock()
}

func levelOf(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" || lvl == zerolog.NoLevel || lvl == zerolog.Disabled {
		return zerolog.InfoLevel
	}
	return lvl
}
