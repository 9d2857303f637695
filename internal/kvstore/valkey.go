package kvstore

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
)

// valkeyStore 는 Valkey 기반 구현이다. 값은 zstd 로 압축해 저장한다.
type valkeyStore struct {
	client valkey.Client
}

var _ Store = (*valkeyStore)(nil)

func newValkeyStore(cfg config.CacheStoreConfig) (*valkeyStore, error) {
	conn, err := parseStoreURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse kvstore url: %w", err)
	}

	var tlsConfig *tls.Config
	if conn.useTLS {
		host, _, splitErr := net.SplitHostPort(conn.addr)
		if splitErr != nil {
			return nil, fmt.Errorf("parse kvstore addr: %w", splitErr)
		}
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		TLSConfig:    tlsConfig,
		Username:     conn.username,
		Password:     conn.password,
		InitAddress:  []string{conn.addr},
		SelectDB:     conn.selectDB,
		DisableCache: cfg.DisableCache,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to valkey: %w", err)
	}

	return &valkeyStore{client: client}, nil
}

func (s *valkeyStore) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.client.B().Get().Key(key).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kvstore get %s: %w", key, err)
	}
	return decompressZstd(data)
}

func (s *valkeyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	compressed, err := compressZstd(value)
	if err != nil {
		return err
	}

	builder := s.client.B().Set().Key(key).Value(valkey.BinaryString(compressed))
	var cmd valkey.Completed
	if ttl > 0 {
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("kvstore set %s: %w", key, err)
	}
	return nil
}

func (s *valkeyStore) Delete(ctx context.Context, key string) error {
	cmd := s.client.B().Del().Key(key).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("kvstore del %s: %w", key, err)
	}
	return nil
}

func (s *valkeyStore) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("kvstore ping: %w", err)
	}
	return nil
}

func (s *valkeyStore) Close() {
	s.client.Close()
}
