package models

import (
	"time"
)

// Session represents one authenticated login of a user on one client.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	IPAddress    string    `json:"ipAddress"`
	UserAgent    string    `json:"userAgent"`
	Location     string    `json:"location,omitempty"`
	LoginTime    time.Time `json:"loginTime"`
	LastActivity time.Time `json:"lastActivity"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// IsExpired checks if the session has passed its absolute lifetime.
func (s *Session) IsExpired() bool {
	return s.ExpiredAt(time.Now().UTC())
}

// ExpiredAt is IsExpired measured against now.
func (s *Session) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsIdle reports whether no activity was recorded within timeout. A zero timeout disables the check.
func (s *Session) IsIdle(timeout time.Duration, now time.Time) bool {
	if timeout <= 0 {
		return false
	}
	return now.Sub(s.LastActivity) > timeout
}

// CreateSessionRequest is the body of POST /users/{userId}/sessions.
type CreateSessionRequest struct {
	UserAgent string     `json:"userAgent"`
	LoginTime *time.Time `json:"loginTime,omitempty"`
}

// SessionResponse is a session as seen by one requesting client.
// IsCurrent is computed per request and never stored.
type SessionResponse struct {
	ID           string    `json:"id"`
	IPAddress    string    `json:"ipAddress"`
	UserAgent    string    `json:"userAgent"`
	LoginTime    time.Time `json:"loginTime"`
	LastActivity time.Time `json:"lastActivity"`
	IsCurrent    bool      `json:"isCurrent"`
	Location     string    `json:"location,omitempty"`
}

// NewSessionResponse converts s relative to the requester's own session id.
func NewSessionResponse(s *Session, currentSessionID string) SessionResponse {
	return SessionResponse{
		ID:           s.ID,
		IPAddress:    s.IPAddress,
		UserAgent:    s.UserAgent,
		LoginTime:    s.LoginTime,
		LastActivity: s.LastActivity,
		IsCurrent:    currentSessionID != "" && s.ID == currentSessionID,
		Location:     s.Location,
	}
}

type GetUserSessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

type TerminateSessionsResponse struct {
	Message    string `json:"message"`
	Terminated int64  `json:"terminated"`
}
