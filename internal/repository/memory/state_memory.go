package memory

import (
	"context"
	"sync"
	"time"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/SimpnicServerTeam/timesheet-session/internal/repository"
)

// MemoryStateRepository holds pending SRP handshakes in process memory. Handshakes
// do not survive a restart, which only forces the client to repeat step 1.
type MemoryStateRepository struct {
	mu         sync.Mutex
	handshakes map[string]models.AuthSessionState
}

var _ repository.StateRepository = (*MemoryStateRepository)(nil)

func NewMemoryStateRepository() *MemoryStateRepository {
	return &MemoryStateRepository{
		handshakes: make(map[string]models.AuthSessionState),
	}
}

func (r *MemoryStateRepository) SaveHandshake(ctx context.Context, state models.AuthSessionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handshakes[state.AuthID] = state
	return nil
}

func (r *MemoryStateRepository) TakeHandshake(ctx context.Context, authID string) (*models.AuthSessionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.handshakes[authID]
	if !ok {
		return nil, repository.ErrStateNotFound
	}
	delete(r.handshakes, authID)
	if time.Now().After(state.Expiry) {
		return nil, repository.ErrStateNotFound
	}
	return &state, nil
}

func (r *MemoryStateRepository) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	purged := 0
	for authID, state := range r.handshakes {
		if now.After(state.Expiry) {
			delete(r.handshakes, authID)
			purged++
		}
	}
	return purged, nil
}
