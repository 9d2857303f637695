package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
	"github.com/cheonmabigo/fintext-nlu-go/internal/kvstore"
	"github.com/cheonmabigo/fintext-nlu-go/internal/llm"
)

// ErrSessionNotFound 는 세션 미존재 오류다.
var ErrSessionNotFound = errors.New("session not found")

const defaultTTL = 30 * time.Minute

// record 는 저장소에 직렬화되는 세션 한 건이다.
type record struct {
	ID           string             `json:"id"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	MessageCount int                `json:"message_count"`
	History      []llm.HistoryEntry `json:"history,omitempty"`
}

// Store: 대화 세션과 히스토리를 키-값 저장소에 보관합니다.
// 키는 session_<id> 하나로, 메타와 히스토리를 한 블롭에 담는다.
type Store struct {
	kv       kvstore.Store
	ttl      time.Duration
	maxPairs int
}

func NewStore(cfg config.SessionConfig, kv kvstore.Store) (*Store, error) {
	if kv == nil {
		return nil, errors.New("kv store is nil")
	}
	ttl := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{kv: kv, ttl: ttl, maxPairs: cfg.HistoryMaxPairs}, nil
}

func sessionKey(sessionID string) string {
	return "session_" + sessionID
}

// Info 는 핸들러로 노출되는 세션 메타데이터다.
type Info struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// Create 는 빈 세션을 만들고 메타데이터를 반환한다.
func (s *Store) Create(ctx context.Context) (*Info, error) {
	now := time.Now()
	rec := &record{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}
	return infoOf(rec), nil
}

// Describe 는 세션 메타데이터를 반환한다. 세션이 없으면 ErrSessionNotFound.
func (s *Store) Describe(ctx context.Context, sessionID string) (*Info, error) {
	rec, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return infoOf(rec), nil
}

func infoOf(rec *record) *Info {
	return &Info{
		ID:           rec.ID,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
		MessageCount: rec.MessageCount,
	}
}

// GetHistory 는 세션 히스토리를 반환한다. 세션이 없으면 ErrSessionNotFound.
func (s *Store) GetHistory(ctx context.Context, sessionID string) ([]llm.HistoryEntry, error) {
	rec, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return rec.History, nil
}

// AppendHistory 는 대화 한 쌍(사용자/어시스턴트)을 덧붙인다.
// 세션이 없으면 새로 만들고, 최대 보관 쌍 수를 넘으면 앞부분을 자른다.
func (s *Store) AppendHistory(ctx context.Context, sessionID string, entries ...llm.HistoryEntry) error {
	if sessionID == "" || len(entries) == 0 {
		return nil
	}

	now := time.Now()
	rec, err := s.load(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		rec = &record{ID: sessionID, CreatedAt: now}
	} else if err != nil {
		return err
	}

	rec.History = append(rec.History, entries...)
	rec.MessageCount = len(rec.History)
	rec.UpdatedAt = now

	if s.maxPairs > 0 {
		maxEntries := s.maxPairs * 2
		if len(rec.History) > maxEntries {
			rec.History = rec.History[len(rec.History)-maxEntries:]
			rec.MessageCount = len(rec.History)
		}
	}

	return s.save(ctx, rec)
}

// Delete 는 세션을 지운다. 없는 세션은 무시한다.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.kv.Delete(ctx, sessionKey(sessionID))
}

// Touch 는 세션 존재 여부를 확인하고 TTL 을 연장한다.
func (s *Store) Touch(ctx context.Context, sessionID string) error {
	rec, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	rec.UpdatedAt = time.Now()
	return s.save(ctx, rec)
}

func (s *Store) load(ctx context.Context, sessionID string) (*record, error) {
	data, err := s.kv.Get(ctx, sessionKey(sessionID))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &rec, nil
}

func (s *Store) save(ctx context.Context, rec *record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", rec.ID, err)
	}
	if err := s.kv.Set(ctx, sessionKey(rec.ID), data, s.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}
