package auth

import (
	"fmt"
	"sync"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestLocalNotifiesCurrentStateOnSubscribe(t *testing.T) {
	l := NewLocal()
	l.SignIn(User{ID: "u1"})

	var seen []User
	unsubscribe := l.OnAuthChange(func(u User) { seen = append(seen, u) })
	defer unsubscribe()

	assert.Equal(t, []User{{ID: "u1"}}, seen)
}

func TestLocalSignInSignOut(t *testing.T) {
	l := NewLocal()

	var seen []User
	unsubscribe := l.OnAuthChange(func(u User) { seen = append(seen, u) })

	l.SignIn(User{ID: "u1", Email: "a@example.com"})
	l.SignOut()

	assert.Equal(t, 3, len(seen))
	assert.False(t, seen[0].SignedIn())
	assert.Equal(t, "u1", seen[1].ID)
	assert.False(t, seen[2].SignedIn())
	assert.Equal(t, User{}, l.Current())

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, l.Subscribers())

	l.SignIn(User{ID: "u2"})
	assert.Equal(t, 3, len(seen))
}

func TestLocalDeliversChangesInOrder(t *testing.T) {
	l := NewLocal()

	var (
		mu   sync.Mutex
		last User
	)
	unsubscribe := l.OnAuthChange(func(u User) {
		mu.Lock()
		last = u
		mu.Unlock()
	})
	defer unsubscribe()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			l.SignIn(User{ID: fmt.Sprintf("u%d", i)})
		}(i)
		go func() {
			defer wg.Done()
			l.SignOut()
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, l.Current(), last)
}
