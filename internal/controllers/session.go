package controllers

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ytwatch/internal/models"
	"ytwatch/internal/stores"
)

// ErrSessionNotFound indicates the requested player session does not exist
// or has been reaped.
var ErrSessionNotFound = errors.New("player session not found")

// reportedPlayer mirrors the position the embedded player last reported over
// the session API. It is what the controller's sampling ticker reads.
type reportedPlayer struct {
	mu          sync.Mutex
	currentTime float64
	duration    float64
}

func (r *reportedPlayer) Report(currentTime, duration float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentTime = currentTime
	if duration > 0 {
		r.duration = duration
	}
}

func (r *reportedPlayer) Position() (float64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentTime, r.duration
}

// Session binds one browser playback surface to a catalog and a player
// controller.
type Session struct {
	ID         string
	Catalog    *models.PlaylistCatalog
	Controller *PlayerController

	player *reportedPlayer

	mu       sync.Mutex
	lastSeen time.Time
}

// ReportPosition records the embedded player's current position.
func (s *Session) ReportPosition(currentTime, duration float64) {
	s.player.Report(currentTime, duration)
	s.Touch()
}

// Touch refreshes the session's idle deadline.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen returns the time of the last client contact.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionManager owns all live player sessions.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	progress *stores.ProgressStore
	timeout  time.Duration
	logger   *logrus.Logger
}

// NewSessionManager creates a new session manager
func NewSessionManager(progress *stores.ProgressStore, timeout time.Duration, logger *logrus.Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		progress: progress,
		timeout:  timeout,
		logger:   logger,
	}
}

// Create builds a session over a catalog with the given starting video
// selected.
func (m *SessionManager) Create(catalog *models.PlaylistCatalog, startIndex int) (*Session, error) {
	player := &reportedPlayer{}
	controller := NewPlayerController(catalog, player, m.progress, m.logger)
	if err := controller.Select(startIndex); err != nil {
		return nil, err
	}

	session := &Session{
		ID:         uuid.NewString(),
		Catalog:    catalog,
		Controller: controller,
		player:     player,
		lastSeen:   time.Now(),
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"session_id":  session.ID,
		"playlist_id": catalog.ID,
		"videos":      len(catalog.Videos),
	}).Info("Player session created")

	return session, nil
}

// Get returns a live session by ID.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Close tears down a session and its controller.
func (m *SessionManager) Close(id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	session.Controller.Close()
	m.logger.WithField("session_id", id).Info("Player session closed")
	return nil
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// SweepIdle closes sessions that have not been heard from within the idle
// timeout and returns how many were reaped.
func (m *SessionManager) SweepIdle() int {
	cutoff := time.Now().Add(-m.timeout)

	m.mu.Lock()
	var stale []*Session
	for id, session := range m.sessions {
		if session.LastSeen().Before(cutoff) {
			stale = append(stale, session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, session := range stale {
		session.Controller.Close()
		m.logger.WithFields(logrus.Fields{
			"session_id": session.ID,
			"last_seen":  session.LastSeen(),
		}).Info("Reaped idle player session")
	}

	return len(stale)
}

// CloseAll tears down every live session, for shutdown.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Controller.Close()
	}
}
