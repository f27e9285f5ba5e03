// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Elambeth/mm-archive/pkg/types"
)

// Open returns the store selected by cfg.
func Open(cfg types.StoreConfig, log *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case types.StoreSQLite, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("store path is required for the sqlite backend")
		}
		return NewSQLiteStore(cfg.Path, log)
	case types.StoreMemory:
		return NewMemoryStore(log), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q: use sqlite or memory", cfg.Backend)
	}
}
