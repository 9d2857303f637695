package kvstore

import (
	"context"
	"sync"
	"time"
)

// Memory 는 외부 저장소 없이 동작하는 인메모리 구현이다.
// 단일 프로세스 개발/테스트 환경용이며 재시작 시 내용이 사라진다.
type Memory struct {
	mu        sync.RWMutex
	values    map[string][]byte
	expiresAt map[string]time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		values:    make(map[string][]byte),
		expiresAt: make(map[string]time.Time),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	value, ok := m.values[key]
	expireAt, hasTTL := m.expiresAt[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if hasTTL && time.Now().After(expireAt) {
		m.mu.Lock()
		delete(m.values, key)
		delete(m.expiresAt, key)
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	copied := make([]byte, len(value))
	copy(copied, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = copied
	if ttl > 0 {
		m.expiresAt[key] = time.Now().Add(ttl)
	} else {
		delete(m.expiresAt, key)
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	delete(m.expiresAt, key)
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() {}
