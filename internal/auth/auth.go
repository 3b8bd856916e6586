// Package auth models the authentication collaborator as a subscription
// source of the current user.
package auth

import (
	"sync"
)

// User identifies the signed-in account. The zero User means signed out.
type User struct {
	ID    string
	Email string
}

// SignedIn reports whether u represents an authenticated user.
func (u User) SignedIn() bool {
	return u.ID != ""
}

// Notifier delivers auth state changes. The callback fires once on
// subscription with the current state and again on every sign-in or
// sign-out. Calling unsubscribe more than once is safe.
type Notifier interface {
	OnAuthChange(fn func(User)) (unsubscribe func())
}

// Local is an in-process Notifier whose state is driven by SignIn/SignOut.
// Callbacks run synchronously on the caller's goroutine, one state change at
// a time, so every subscriber sees changes in the order they were made.
// A callback must not call SignIn, SignOut or OnAuthChange.
type Local struct {
	deliver sync.Mutex // held while callbacks run
	mu      sync.Mutex
	current User
	nextID  int
	subs    map[int]func(User)
}

var _ Notifier = (*Local)(nil)

func NewLocal() *Local {
	return &Local{subs: map[int]func(User){}}
}

func (l *Local) OnAuthChange(fn func(User)) func() {
	l.deliver.Lock()
	defer l.deliver.Unlock()

	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = fn
	current := l.current
	l.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
		})
	}
}

// SignIn makes u the current user and notifies subscribers.
func (l *Local) SignIn(u User) {
	l.set(u)
}

// SignOut clears the current user and notifies subscribers.
func (l *Local) SignOut() {
	l.set(User{})
}

// Current returns the signed-in user, or the zero User.
func (l *Local) Current() User {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Subscribers returns the number of active subscriptions.
func (l *Local) Subscribers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

func (l *Local) set(u User) {
	l.deliver.Lock()
	defer l.deliver.Unlock()

	l.mu.Lock()
	l.current = u
	fns := make([]func(User), 0, len(l.subs))
	for _, fn := range l.subs {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
}
