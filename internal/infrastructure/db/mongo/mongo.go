package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/saudijob/jobboard/internal/core/domain"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultRetryDelay   = 5 * time.Second
	defaultOpRetries    = 2
	defaultOpRetryDelay = 500 * time.Millisecond
)

// Config captures the settings required to establish and keep a MongoDB
// connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
	// RetryDelay is the fixed wait between connection attempts in Open.
	RetryDelay time.Duration
	// MaxAttempts bounds Open; zero retries until the context is done.
	MaxAttempts int
	// OpRetries is how many times a single operation is retried on a
	// transient driver error before ErrStorageUnavailable is returned.
	OpRetries    int
	OpRetryDelay time.Duration
}

// State is the connection lifecycle of a Handle.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Handle owns the MongoDB client. It is created idle, moves to connecting
// on Open, to connected after a successful ping and to closed on Close.
// Repositories never touch the client directly; they run through Do.
type Handle struct {
	cfg Config
	log zerolog.Logger

	mu     sync.RWMutex
	state  State
	client *mongo.Client
	db     *mongo.Database

	// OnRetry, when set, is called before every retry of an operation.
	OnRetry func(op string, err error)
}

// NewHandle applies defaults to cfg and returns an idle handle.
func NewHandle(cfg Config, log zerolog.Logger) *Handle {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.OpRetries < 0 {
		cfg.OpRetries = 0
	} else if cfg.OpRetries == 0 {
		cfg.OpRetries = defaultOpRetries
	}
	if cfg.OpRetryDelay <= 0 {
		cfg.OpRetryDelay = defaultOpRetryDelay
	}
	return &Handle{cfg: cfg, log: log}
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Open connects and pings, retrying with a fixed delay until it succeeds,
// MaxAttempts is reached or ctx is done. Calling Open on a connected handle
// is a no-op.
func (h *Handle) Open(ctx context.Context) error {
	h.mu.Lock()
	switch h.state {
	case StateConnected:
		h.mu.Unlock()
		return nil
	case StateClosed:
		h.mu.Unlock()
		return errors.New("mongo: handle is closed")
	case StateConnecting:
		h.mu.Unlock()
		return errors.New("mongo: open already in progress")
	}
	h.state = StateConnecting
	h.mu.Unlock()

	for attempt := 1; ; attempt++ {
		client, db, err := connect(ctx, h.cfg)
		if err == nil {
			h.mu.Lock()
			if h.state == StateClosed {
				h.mu.Unlock()
				_ = client.Disconnect(context.Background())
				return errors.New("mongo: handle closed while connecting")
			}
			h.client, h.db, h.state = client, db, StateConnected
			h.mu.Unlock()
			h.log.Info().Str("database", h.cfg.Database).Int("attempt", attempt).Msg("mongodb connected")
			return nil
		}

		h.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", h.cfg.RetryDelay).Msg("mongodb connection failed")
		if h.cfg.MaxAttempts > 0 && attempt >= h.cfg.MaxAttempts {
			h.setState(StateIdle)
			return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}

		select {
		case <-ctx.Done():
			h.setState(StateIdle)
			return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, ctx.Err())
		case <-time.After(h.cfg.RetryDelay):
		}
	}
}

func (h *Handle) setState(s State) {
	h.mu.Lock()
	if h.state != StateClosed {
		h.state = s
	}
	h.mu.Unlock()
}

// Close disconnects the client. The handle cannot be reopened.
func (h *Handle) Close(ctx context.Context) error {
	h.mu.Lock()
	client := h.client
	h.client, h.db, h.state = nil, nil, StateClosed
	h.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// Database returns the selected database or ErrStorageUnavailable when the
// handle is not connected.
func (h *Handle) Database() (*mongo.Database, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.state != StateConnected {
		return nil, fmt.Errorf("%w: mongodb %s", domain.ErrStorageUnavailable, h.state)
	}
	return h.db, nil
}

// Ping checks connectivity for readiness probes.
func (h *Handle) Ping(ctx context.Context) error {
	db, err := h.Database()
	if err != nil {
		return err
	}
	return db.Client().Ping(ctx, nil)
}

// Do runs op against the database, retrying transient failures with a
// fixed delay. Once retries are exhausted the error is wrapped in
// domain.ErrStorageUnavailable. Non-transient errors are returned as is.
func (h *Handle) Do(ctx context.Context, name string, op func(ctx context.Context, db *mongo.Database) error) error {
	var lastErr error
	for attempt := 0; attempt <= h.cfg.OpRetries; attempt++ {
		if attempt > 0 {
			if h.OnRetry != nil {
				h.OnRetry(name, lastErr)
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %s: %v", domain.ErrStorageUnavailable, name, ctx.Err())
			case <-time.After(h.cfg.OpRetryDelay):
			}
		}

		db, err := h.Database()
		if err != nil {
			lastErr = err
			continue
		}

		opCtx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
		err = op(opCtx, db)
		cancel()
		if err == nil || !transient(err) {
			return err
		}
		lastErr = err
		h.log.Warn().Err(err).Str("op", name).Int("attempt", attempt+1).Msg("mongodb operation failed")
	}
	if errors.Is(lastErr, domain.ErrStorageUnavailable) {
		return lastErr
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStorageUnavailable, name, lastErr)
}

// transient reports whether err is worth retrying.
func transient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var sse mongo.ServerError
	if errors.As(err, &sse) && sse.HasErrorLabel("RetryableWriteError") {
		return true
	}
	return errors.Is(err, mongo.ErrClientDisconnected)
}

// connect establishes a MongoDB client, verifies connectivity with a ping,
// and returns both the client and the selected database.
func connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.Timeout).
		SetMaxPoolSize(10)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}
