package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/SimpnicServerTeam/timesheet-session/internal/repository"
)

// MemorySessionRepository implements SessionRepository in memory (NOT FOR PRODUCTION).
type MemorySessionRepository struct {
	sessions      map[string]models.Session
	mutex         sync.RWMutex
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
	userSessions  map[string]map[string]struct{} // UserID -> {SessionID: {}}
}

// NewMemorySessionRepository creates a new in-memory session repository.
// cleanupInterval defines how often expired sessions are automatically removed.
func NewMemorySessionRepository(cleanupInterval time.Duration) *MemorySessionRepository {
	r := &MemorySessionRepository{
		sessions:      make(map[string]models.Session),
		cleanupTicker: time.NewTicker(cleanupInterval),
		userSessions:  make(map[string]map[string]struct{}),
		stopCleanup:   make(chan struct{}),
	}
	go r.startCleanup()
	return r
}

// startCleanup runs the periodic cleanup in a background goroutine.
func (r *MemorySessionRepository) startCleanup() {
	for {
		select {
		case <-r.cleanupTicker.C:
			r.cleanupExpiredSessions()
		case <-r.stopCleanup:
			r.cleanupTicker.Stop()
			return
		}
	}
}

// cleanupExpiredSessions removes all expired sessions and updates user indexes.
func (r *MemorySessionRepository) cleanupExpiredSessions() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for sessionID, session := range r.sessions {
		if session.IsExpired() {
			delete(r.sessions, sessionID)
			r.removeUserSessionIndex(session.UserID, sessionID)
		}
	}
}

// StopCleanup stops the background cleanup task. Safe to call more than once.
func (r *MemorySessionRepository) StopCleanup() {
	r.stopOnce.Do(func() { close(r.stopCleanup) })
}

// StoreSession saves or updates a session.
func (r *MemorySessionRepository) StoreSession(ctx context.Context, session *models.Session) error {
	if session == nil || session.ID == "" {
		return errors.New("invalid session data: ID must be set")
	}
	if session.UserID == "" {
		return errors.New("invalid session data: UserID must be set")
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.sessions[session.ID] = *session
	r.addUserSessionIndex(session.UserID, session.ID)

	return nil
}

// GetSession retrieves a session by its ID.
func (r *MemorySessionRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	session, exists := r.sessions[sessionID]
	if !exists || session.IsExpired() {
		return nil, repository.ErrSessionNotFound
	}
	return &session, nil
}

// GetSessions retrieves all live sessions for a given user ID.
func (r *MemorySessionRepository) GetSessions(ctx context.Context, userID string) ([]*models.Session, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	sessionIDs := r.userSessions[userID]
	sessions := make([]*models.Session, 0, len(sessionIDs))
	for sessionID := range sessionIDs {
		session, exists := r.sessions[sessionID]
		// Expired entries are left for the cleanup ticker.
		if exists && !session.IsExpired() {
			sessions = append(sessions, &session)
		}
	}
	sortByLoginTime(sessions)

	return sessions, nil
}

// TouchSession records activity on a session.
func (r *MemorySessionRepository) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, exists := r.sessions[sessionID]
	if !exists || session.IsExpired() {
		return repository.ErrSessionNotFound
	}
	if at.After(session.LastActivity) {
		session.LastActivity = at
		r.sessions[sessionID] = session
	}
	return nil
}

// DeleteSession removes a session.
func (r *MemorySessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	session, exists := r.sessions[sessionID]
	if exists {
		delete(r.sessions, sessionID)
		r.removeUserSessionIndex(session.UserID, sessionID)
	}
	return nil
}

// DeleteUserSessions deletes all sessions for a user, optionally excluding some.
func (r *MemorySessionRepository) DeleteUserSessions(ctx context.Context, userID string, excludeSessionIDs ...string) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	excludeMap := make(map[string]struct{}, len(excludeSessionIDs))
	for _, id := range excludeSessionIDs {
		excludeMap[id] = struct{}{}
	}

	var deleted int64
	for sessionID := range r.userSessions[userID] {
		if _, skip := excludeMap[sessionID]; skip {
			continue
		}
		delete(r.sessions, sessionID)
		r.removeUserSessionIndex(userID, sessionID)
		deleted++
	}
	return deleted, nil
}

func (r *MemorySessionRepository) addUserSessionIndex(userID, sessionID string) {
	if _, ok := r.userSessions[userID]; !ok {
		r.userSessions[userID] = make(map[string]struct{})
	}
	r.userSessions[userID][sessionID] = struct{}{}
}

func (r *MemorySessionRepository) removeUserSessionIndex(userID, sessionID string) {
	if userSessions, ok := r.userSessions[userID]; ok {
		delete(userSessions, sessionID)
		if len(userSessions) == 0 {
			delete(r.userSessions, userID)
		}
	}
}

func sortByLoginTime(sessions []*models.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].LoginTime.Equal(sessions[j].LoginTime) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].LoginTime.Before(sessions[j].LoginTime)
	})
}
