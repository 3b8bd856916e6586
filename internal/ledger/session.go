package ledger

import (
	"context"
	"sync"

	"finledger/internal/auth"
	"finledger/internal/log"
	"finledger/internal/store"
)

// Session binds ledger engines to the auth collaborator: every sign-in gets
// a fresh Engine loaded for that user, sign-out drops it. A Session holds at
// most one auth subscription, released by Close.
type Session struct {
	ctx    context.Context
	store  store.Store
	opts   []Option
	logger *log.Logger

	mu          sync.Mutex
	engine      *Engine
	user        auth.User
	lastErr     error
	unsubscribe func()
	closed      bool
}

// OpenSession subscribes to n. The subscription fires immediately with the
// current auth state, so a signed-in user is loaded before OpenSession
// returns. ctx bounds every load the session starts.
func OpenSession(ctx context.Context, n auth.Notifier, s store.Store, logger *log.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = log.Nop()
	}
	sess := &Session{
		ctx:    ctx,
		store:  s,
		opts:   append([]Option{WithLogger(logger)}, opts...),
		logger: logger.WithComponent(log.ComponentSession),
	}
	unsubscribe := n.OnAuthChange(sess.onAuthChange)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		unsubscribe()
		return sess
	}
	sess.unsubscribe = unsubscribe
	return sess
}

// Engine returns the signed-in user's engine.
func (s *Session) Engine() (*Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return nil, ErrNotSignedIn
	}
	return s.engine, nil
}

// User returns the signed-in user, or the zero User.
func (s *Session) User() auth.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Err returns the error of the most recent load started by an auth change.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close releases the auth subscription and drops the engine. It is safe to
// call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.closed = true
	engine := s.engine
	s.engine = nil
	s.user = auth.User{}
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if engine != nil {
		engine.Reset()
	}
}

func (s *Session) onAuthChange(u auth.User) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	prev := s.engine
	if !u.SignedIn() {
		s.engine = nil
		s.user = auth.User{}
		s.lastErr = nil
		s.mu.Unlock()
		if prev != nil {
			prev.Reset()
			s.logger.Info("Signed out, ledger cleared")
		}
		return
	}

	engine := prev
	if prev == nil || s.user.ID != u.ID {
		engine = NewEngine(s.store, s.opts...)
		s.engine = engine
	}
	s.user = u
	s.mu.Unlock()

	if prev != nil && prev != engine {
		prev.Reset()
	}

	err := engine.Load(s.ctx, u.ID)
	if err != nil {
		s.logger.Error("Failed to load ledger after sign-in", log.FieldUserID, u.ID, log.FieldError, err)
	} else {
		s.logger.Info("Ledger loaded", log.FieldUserID, u.ID)
	}

	s.mu.Lock()
	if s.engine == engine {
		s.lastErr = err
	}
	s.mu.Unlock()
}
