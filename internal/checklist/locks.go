package checklist

import "sync"

// keyedMutex 为每个 key 提供一把互斥锁，没人使用时自动回收
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*refLock)}
}

// Lock 返回对应的解锁函数
func (k *keyedMutex) Lock(key int64) func() {
	k.mu.Lock()
	l, exists := k.locks[key]
	if !exists {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
