package cli

import (
	"context"
	"fmt"

	"github.com/claude/ascend/internal/config"
	"github.com/claude/ascend/internal/session"
)

// KeyringService is the OS keyring service name used by the keyring backend.
const KeyringService = "ascend"

// OpenSessionBackend opens the session backend selected in cfg.
func OpenSessionBackend(ctx context.Context, cfg *config.Config) (session.Backend, error) {
	switch cfg.Session.Backend {
	case config.BackendSQLite:
		b, err := session.OpenSQLite(cfg.Session.StateDir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite session store: %w", err)
		}
		return b, nil
	case config.BackendPostgres:
		b, err := session.OpenPostgres(ctx, cfg.Session.Postgres.ConnString(), cfg.Session.Device)
		if err != nil {
			return nil, fmt.Errorf("opening postgres session store: %w", err)
		}
		return b, nil
	case config.BackendKeyring:
		return session.NewKeyring(KeyringService, "session"), nil
	case config.BackendMemory:
		return session.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}
