package sessionclient

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
)

// Notification is a transient, auto-dismissing message shown to the user.
type Notification struct {
	Kind     Kind
	Message  string
	Duration time.Duration
}

// Notifier is fire-and-forget: no response is expected and failures are not reported.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Navigator resets application state after logout.
type Navigator interface {
	// ResetToRoot discards all in-memory UI state, like a fresh start.
	ResetToRoot(ctx context.Context)
	// ShowLogin sends the user straight to the sign-in entry point.
	ShowLogin(ctx context.Context)
}

const (
	msgSignedOutElsewhere = "You were signed out because this session was ended from another device."
	msgSessionInvalid     = "Your session is no longer valid. Please sign in again."
	msgTokenExpired       = "Your sign-in has expired. Please sign in again."
	msgMigrationRequired  = "This app was updated and needs you to sign in again."
)

// LogoutMessage picks the user-facing text for a forced logout.
func LogoutMessage(c ClassifiedError) string {
	if c.Reason == ReasonManual && c.Message != "" {
		return "You have been signed out: " + c.Message
	}
	switch c.Kind {
	case KindAuthenticationExpired:
		return msgTokenExpired
	case KindMigrationRequired:
		return msgMigrationRequired
	case KindSessionTerminated:
		if c.Code == models.CodeSessionInvalid || strings.Contains(strings.ToLower(c.Message), "no longer valid") {
			return msgSessionInvalid
		}
		return msgSignedOutElsewhere
	}
	return msgSessionInvalid
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) {
	log.Info().Str("kind", n.Kind.String()).Dur("duration", n.Duration).Msg(n.Message)
}

// WriterNotifier prints notifications for terminal use. A notification is considered
// dismissed once its duration elapses; Active reports the ones still visible.
type WriterNotifier struct {
	W   io.Writer
	now func() time.Time

	mu     sync.Mutex
	active []shownNotification
}

type shownNotification struct {
	Notification
	until time.Time
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{W: w, now: time.Now}
}

func (n *WriterNotifier) Notify(_ context.Context, note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.active = append(n.pruneLocked(), shownNotification{Notification: note, until: n.now().Add(note.Duration)})
	fmt.Fprintf(n.W, "\n[notice] %s\n", note.Message)
}

// Active returns the notifications whose display time has not elapsed.
func (n *WriterNotifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.active = n.pruneLocked()
	out := make([]Notification, 0, len(n.active))
	for _, s := range n.active {
		out = append(out, s.Notification)
	}
	return out
}

func (n *WriterNotifier) pruneLocked() []shownNotification {
	now := n.now()
	kept := n.active[:0]
	for _, s := range n.active {
		if now.Before(s.until) {
			kept = append(kept, s)
		}
	}
	return kept
}
