package services

import (
	"context"
	"sync"
)

// keyLock is a set of per-key mutexes. Keys are released when unlocked, so
// memory use tracks only the keys currently held.
type keyLock struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func newKeyLock() *keyLock {
	return &keyLock{held: make(map[string]chan struct{})}
}

// TryLock takes key if it is free.
func (k *keyLock) TryLock(key string) (unlock func(), ok bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, busy := k.held[key]; busy {
		return nil, false
	}
	done := make(chan struct{})
	k.held[key] = done
	return k.release(key, done), true
}

// Lock waits for key until ctx ends.
func (k *keyLock) Lock(ctx context.Context, key string) (unlock func(), err error) {
	for {
		k.mu.Lock()
		wait, busy := k.held[key]
		if !busy {
			done := make(chan struct{})
			k.held[key] = done
			k.mu.Unlock()
			return k.release(key, done), nil
		}
		k.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Held reports whether key is currently locked.
func (k *keyLock) Held(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, busy := k.held[key]
	return busy
}

func (k *keyLock) release(key string, done chan struct{}) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			k.mu.Lock()
			delete(k.held, key)
			k.mu.Unlock()
			close(done)
		})
	}
}
