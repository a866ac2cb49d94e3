package browser

import (
	"context"
	"fmt"
	"log/slog"
)

// Pool lazily creates and caches one shared automation session per
// validator type for the duration of a batch run. The pool has a single
// mutator (the sequential orchestrator loop), so the cache map is a
// plain map; parallel workers would need a guarded pool.
type Pool struct {
	sessions map[string]Session
	log      *slog.Logger
}

func NewPool(log *slog.Logger) *Pool {
	return &Pool{
		sessions: make(map[string]Session),
		log:      log,
	}
}

// GetOrCreate returns the cached session for key, creating it via
// newSession on first request. A nil newSession means the caller's
// validator does not use a session, which is a programming error.
func (p *Pool) GetOrCreate(ctx context.Context, key string, newSession NewSessionFunc) (Session, error) {
	if newSession == nil {
		return nil, fmt.Errorf("validator %q does not use an automation session", key)
	}
	if s, ok := p.sessions[key]; ok {
		return s, nil
	}

	s, err := newSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("create session for %q: %w", key, err)
	}
	p.sessions[key] = s
	p.log.Info("created shared automation session", "validator", key)
	return s, nil
}

// CloseAll tears down every cached session. One teardown failure is
// logged and does not stop teardown of the remaining sessions.
func (p *Pool) CloseAll() {
	for key, s := range p.sessions {
		if err := s.Close(); err != nil {
			p.log.Warn("failed to close automation session", "validator", key, "err", err)
			continue
		}
		p.log.Info("closed automation session", "validator", key)
	}
	p.sessions = make(map[string]Session)
}
