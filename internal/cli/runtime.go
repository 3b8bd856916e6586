package cli

import (
	"context"
	"fmt"
	"time"

	"finledger/internal/auth"
	"finledger/internal/backend"
	"finledger/internal/config"
	"finledger/internal/events"
	"finledger/internal/ledger"
	"finledger/internal/log"
)

// Opener provides the store and event stream commands run against.
type Opener interface {
	Open(ctx context.Context) (*backend.Result, error)
	Subscribe(ctx context.Context) (events.Subscriber, error)
}

// ConfigOpener builds backends from the application config.
type ConfigOpener struct {
	Config  backend.Config
	Factory backend.Factory
}

func NewConfigOpener(cfg *config.Config, logger *log.Logger) (*ConfigOpener, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	return &ConfigOpener{Config: bc, Factory: backend.NewFactory(logger)}, nil
}

func (o *ConfigOpener) Open(ctx context.Context) (*backend.Result, error) {
	return o.Factory.CreateBackend(ctx, o.Config)
}

func (o *ConfigOpener) Subscribe(ctx context.Context) (events.Subscriber, error) {
	return o.Factory.CreateSubscriber(ctx, o.Config)
}

// Runtime is bound into every command.
type Runtime struct {
	Opener  Opener
	Logger  *log.Logger
	Timeout time.Duration
	Now     func() time.Time
}

func (r *Runtime) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// withEngine signs userID in, opens a session over a fresh backend and runs
// fn against the loaded engine.
func (r *Runtime) withEngine(userID string, fn func(ctx context.Context, e *ledger.Engine) error) error {
	ctx := context.Background()
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	logger := r.Logger
	if logger == nil {
		logger = log.Nop()
	}

	res, err := r.Opener.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if res.Cleanup == nil {
			return
		}
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	notifier := auth.NewLocal()
	notifier.SignIn(auth.User{ID: userID})
	sess := ledger.OpenSession(ctx, notifier, res.Store, logger, ledger.WithClock(r.now))
	defer sess.Close()

	if err := sess.Err(); err != nil {
		return err
	}
	e, err := sess.Engine()
	if err != nil {
		return err
	}
	return fn(ctx, e)
}
