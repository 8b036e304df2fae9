package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker 进程内锁实现，单实例部署和测试使用
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMemoryLocker 创建进程内锁
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*sync.Mutex)}
}

// Acquire 获取锁
func (l *MemoryLocker) Acquire(ctx context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.Lock()
		close(done)
	}()

	select {
	case <-done:
		return func() { m.Unlock() }, nil
	case <-ctx.Done():
		// 后台goroutine拿到锁后立即归还
		go func() {
			<-done
			m.Unlock()
		}()
		return nil, ctx.Err()
	}
}
