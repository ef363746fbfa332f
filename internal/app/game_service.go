package app

import (
	"github.com/google/uuid"

	"smart-board-game/internal/domain"
)

// GameService hands out engines for play-throughs and keeps track of them.
type GameService struct {
	catalog  *Catalog
	sessions SessionRepository
	opts     []EngineOption
}

func NewGameService(catalog *Catalog, sessions SessionRepository, opts ...EngineOption) *GameService {
	return &GameService{catalog: catalog, sessions: sessions, opts: opts}
}

// Catalog exposes the shared catalog to the transport layer.
func (s *GameService) Catalog() *Catalog {
	return s.catalog
}

// Open starts a new session and returns its id and engine.
func (s *GameService) Open() (string, *Engine) {
	id := uuid.NewString()
	engine := NewEngine(s.catalog, s.opts...)
	s.sessions.Put(id, engine)
	return id, engine
}

// Session looks up a live session.
func (s *GameService) Session(sessionID string) (*Engine, error) {
	engine, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return engine, nil
}

// Close stops the session's countdown and forgets it.
func (s *GameService) Close(sessionID string) {
	engine, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	engine.Close()
	s.sessions.Delete(sessionID)
}
