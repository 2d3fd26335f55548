package relay

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserLocks_SerializesSameUser(t *testing.T) {
	l := newUserLocks()
	unlock := l.Lock(1)

	acquired := make(chan struct{})
	go func() {
		u := l.Lock(1)
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock for the same user returned while the first was held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestUserLocks_IndependentUsers(t *testing.T) {
	l := newUserLocks()
	unlock1 := l.Lock(1)
	defer unlock1()

	done := make(chan struct{})
	go func() {
		l.Lock(2)()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("user 2 blocked on user 1")
	}
}

func TestUserLocks_EntriesAreReleased(t *testing.T) {
	l := newUserLocks()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unlock := l.Lock(int64(i % 5))
			unlock()
			unlock() // idempotent
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, l.active())
}
