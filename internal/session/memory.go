// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/Elambeth/mm-archive/pkg/types"
)

// MemoryStore keeps the session in process memory. Values are stored in
// the same serialized form as SQLiteStore so both backends share Load
// semantics.
type MemoryStore struct {
	cache *cache.Cache
	log   *zap.Logger
}

// NewMemoryStore returns an empty in-memory store. Entries never expire.
func NewMemoryStore(log *zap.Logger) *MemoryStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoryStore{
		cache: cache.New(cache.NoExpiration, 0),
		log:   log,
	}
}

// Save stores the query and the serialized answer under the two keys.
func (m *MemoryStore) Save(_ context.Context, query string, result types.AnswerResult) error {
	answer, err := encodeResult(result)
	if err != nil {
		return err
	}
	m.cache.Set(KeyQuery, query, cache.NoExpiration)
	m.cache.Set(KeyAnswer, answer, cache.NoExpiration)
	return nil
}

// Load returns the stored session if both keys hold usable values.
func (m *MemoryStore) Load(context.Context) (Entry, bool) {
	query, haveQuery := m.getString(KeyQuery)
	answer, haveAnswer := m.getString(KeyAnswer)
	return decodeEntry(m.log, query, answer, haveQuery, haveAnswer)
}

// Clear removes both keys.
func (m *MemoryStore) Clear(context.Context) error {
	m.cache.Delete(KeyQuery)
	m.cache.Delete(KeyAnswer)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) getString(key string) (string, bool) {
	x, found := m.cache.Get(key)
	if !found {
		return "", false
	}
	s, ok := x.(string)
	return s, ok
}
