package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
)

// ErrNotFound 는 키 미존재 오류다.
var ErrNotFound = errors.New("kvstore: key not found")

// Store 는 캐시/지표/세션 영속화에 쓰는 키-값 블롭 저장소다.
// 테스트에서 mock 구현을 주입할 수 있도록 한다.
type Store interface {
	// Get 값 조회. 없으면 ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 값 저장. ttl 이 0 이면 만료 없음.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete 키 삭제. 없는 키는 무시한다.
	Delete(ctx context.Context, key string) error

	// Ping 연결 확인
	Ping(ctx context.Context) error

	// Close 리소스 정리
	Close()
}

// New 는 설정에 따라 Valkey 또는 인메모리 저장소를 고른다.
// 외부 저장소가 꺼져 있으면 프로세스 수명 범위의 메모리 저장소로 동작한다.
func New(cfg config.CacheStoreConfig) (Store, error) {
	if !cfg.Enabled {
		if cfg.Required {
			return nil, errors.New("kvstore required but disabled")
		}
		return NewMemory(), nil
	}
	return newValkeyStore(cfg)
}
