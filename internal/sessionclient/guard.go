package sessionclient

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	applog "github.com/SimpnicServerTeam/timesheet-session/internal/logger"
)

// AdminControls is the operator and test surface of the guard.
type AdminControls interface {
	// ForceLogout runs the regular logout sequence for reason.
	ForceLogout(ctx context.Context, reason string) bool
	// ClearLocalState wipes cached session state and credentials without signing out.
	ClearLocalState() error
}

// GuardDeps are the collaborators of a SessionGuard.
type GuardDeps struct {
	Store    LocalStore
	Identity IdentityProvider
	// Credentials, when set, are forgotten after sign-out and on migration.
	Credentials    CredentialCache
	Notifier       Notifier
	Navigator      Navigator
	NotifyDuration time.Duration
}

// SessionGuard runs the logout sequence at most once at a time. Construct one per
// application and share it with the gateway.
type SessionGuard struct {
	deps GuardDeps

	loggingOut atomic.Bool
	epoch      atomic.Uint64
	inFlight   sync.WaitGroup
}

var (
	_ LogoutDispatcher = (*SessionGuard)(nil)
	_ AdminControls    = (*SessionGuard)(nil)
)

func NewSessionGuard(deps GuardDeps) *SessionGuard {
	if deps.Notifier == nil {
		deps.Notifier = LogNotifier{}
	}
	if deps.NotifyDuration <= 0 {
		deps.NotifyDuration = 5 * time.Second
	}
	return &SessionGuard{deps: deps}
}

// Epoch advances when a logout sequence starts and again when it finishes. A request
// that records an epoch and fails after the value has moved is stale.
func (g *SessionGuard) Epoch() uint64 {
	return g.epoch.Load()
}

// LoggingOut reports whether a sequence is in flight.
func (g *SessionGuard) LoggingOut() bool {
	return g.loggingOut.Load()
}

// HandleAuthError runs the logout sequence synchronously when c forces logout and no
// sequence is already running. It reports whether this call ran it.
func (g *SessionGuard) HandleAuthError(ctx context.Context, c ClassifiedError) bool {
	if !g.begin(g.Epoch(), c) {
		return false
	}
	defer g.finish()
	g.run(context.WithoutCancel(ctx), c)
	return true
}

// Dispatch is HandleAuthError with the sequence moved to a goroutine. The in-flight
// flag is set before Dispatch returns.
func (g *SessionGuard) Dispatch(ctx context.Context, c ClassifiedError) bool {
	return g.DispatchSince(ctx, g.Epoch(), c)
}

// DispatchSince is Dispatch for a request that started at epoch. Failures of requests
// started before the most recent logout are dropped.
func (g *SessionGuard) DispatchSince(ctx context.Context, epoch uint64, c ClassifiedError) bool {
	if !g.begin(epoch, c) {
		return false
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer g.finish()
		g.run(ctx, c)
	}()
	return true
}

// Wait blocks until no logout sequence is in flight.
func (g *SessionGuard) Wait() {
	g.inFlight.Wait()
}

func (g *SessionGuard) ForceLogout(ctx context.Context, reason string) bool {
	log.Info().Str("reason", reason).Msg("[SessionGuard.ForceLogout] Manual logout requested")
	return g.HandleAuthError(ctx, ClassifiedError{
		Kind:         KindSessionTerminated,
		ForcesLogout: true,
		Message:      reason,
		Reason:       ReasonManual,
	})
}

func (g *SessionGuard) ClearLocalState() error {
	if g.deps.Credentials != nil {
		g.deps.Credentials.Forget()
	}
	return g.deps.Store.Clear()
}

func (g *SessionGuard) begin(epoch uint64, c ClassifiedError) bool {
	if !c.ForcesLogout {
		return false
	}
	if !g.loggingOut.CompareAndSwap(false, true) {
		log.Debug().Str("kind", c.Kind.String()).Msg("[SessionGuard] Logout already in progress")
		return false
	}
	// The epoch only moves while the flag is held.
	if g.epoch.Load() != epoch {
		g.loggingOut.Store(false)
		log.Debug().Str("kind", c.Kind.String()).Msg("[SessionGuard] Ignoring failure from before the last logout")
		return false
	}
	g.epoch.Add(1)
	g.inFlight.Add(1)
	return true
}

func (g *SessionGuard) finish() {
	// Requests started while the sequence ran belonged to the session it ended.
	g.epoch.Add(1)
	g.loggingOut.Store(false)
	g.inFlight.Done()
}

func (g *SessionGuard) run(ctx context.Context, c ClassifiedError) {
	logger := applog.Component("session-guard").With().Str("kind", c.Kind.String()).Str("reason", c.Reason).Logger()

	if c.Kind == KindMigrationRequired {
		logger.Info().Msg("[SessionGuard] Migration required, wiping local state")
		if err := g.ClearLocalState(); err != nil {
			logger.Error().Err(err).Msg("[SessionGuard] Failed to clear local state")
		}
		g.notify(ctx, c)
		if g.deps.Navigator != nil {
			g.deps.Navigator.ShowLogin(ctx)
		}
		return
	}

	logger.Info().Msg("[SessionGuard] Logging out")
	defer func() {
		if g.deps.Navigator != nil {
			g.deps.Navigator.ResetToRoot(ctx)
		}
		logger.Info().Msg("[SessionGuard] Logout complete")
	}()

	if err := g.deps.Store.Clear(); err != nil {
		logger.Error().Err(err).Msg("[SessionGuard] Failed to clear cached session")
	}
	g.notify(ctx, c)
	g.signOut(ctx, logger)
}

func (g *SessionGuard) notify(ctx context.Context, c ClassifiedError) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("[SessionGuard] Notifier panicked")
		}
	}()
	g.deps.Notifier.Notify(ctx, Notification{
		Kind:     c.Kind,
		Message:  LogoutMessage(c),
		Duration: g.deps.NotifyDuration,
	})
}

func (g *SessionGuard) signOut(ctx context.Context, logger zerolog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("[SessionGuard] Sign-out panicked")
		}
		if g.deps.Credentials != nil {
			g.deps.Credentials.Forget()
		}
	}()
	if g.deps.Identity == nil {
		return
	}
	if err := g.deps.Identity.SignOut(ctx); err != nil {
		logger.Warn().Err(err).Msg("[SessionGuard] Identity provider sign-out failed")
	}
}
