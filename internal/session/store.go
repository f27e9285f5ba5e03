// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session persists the single most recent question and its answer.
//
// The store is a single slot addressed by two fixed keys, one holding the
// query text and one holding the JSON-serialized answer. The keys are
// written independently, so Load treats anything other than two valid
// values as "no previous session".
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Elambeth/mm-archive/pkg/types"
)

// Persisted key names. They match what earlier clients wrote to local storage.
const (
	KeyQuery  = "lastquestion"
	KeyAnswer = "lastanswer"
)

// Entry is one persisted session.
type Entry struct {
	Query  string             `json:"query" yaml:"query"`
	Result types.AnswerResult `json:"result" yaml:"result"`
}

// Store is the single-slot session store.
type Store interface {
	// Save replaces the persisted session with query and result.
	Save(ctx context.Context, query string, result types.AnswerResult) error

	// Load returns the persisted session. ok is false when nothing usable
	// is stored; read and decode failures are never returned.
	Load(ctx context.Context) (entry Entry, ok bool)

	// Clear drops the persisted session. Clearing an empty store is not an error.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// encodeResult serializes result for the answer key.
func encodeResult(result types.AnswerResult) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encoding answer: %w", err)
	}
	return string(data), nil
}

// decodeEntry builds an Entry from the two raw values. A missing value,
// a blank query, or an answer that does not parse all yield ok=false.
func decodeEntry(log *zap.Logger, query, answer string, haveQuery, haveAnswer bool) (Entry, bool) {
	if !haveQuery && !haveAnswer {
		return Entry{}, false
	}
	if !haveQuery || !haveAnswer {
		log.Debug("ignoring partial session",
			zap.Bool("has_query", haveQuery),
			zap.Bool("has_answer", haveAnswer),
		)
		return Entry{}, false
	}
	if strings.TrimSpace(query) == "" {
		log.Debug("ignoring session with blank query")
		return Entry{}, false
	}

	var result types.AnswerResult
	if err := json.Unmarshal([]byte(answer), &result); err != nil {
		log.Debug("ignoring unparsable session answer", zap.Error(err))
		return Entry{}, false
	}
	return Entry{Query: query, Result: result}, true
}
