package memory

import (
	"context"
	"sync"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/SimpnicServerTeam/timesheet-session/internal/repository"
)

// MemoryUserRepository implements UserRepository in memory (NOT FOR PRODUCTION)
type MemoryUserRepository struct {
	byAuthID map[string]models.UserInfo
	byID     map[string]string // ID -> AuthID
	mutex    sync.RWMutex
}

func NewMemoryUserRepository() repository.UserRepository {
	return &MemoryUserRepository{
		byAuthID: make(map[string]models.UserInfo),
		byID:     make(map[string]string),
	}
}

func (r *MemoryUserRepository) CreateUser(ctx context.Context, user *models.UserInfo) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.byAuthID[user.AuthID]; exists {
		return repository.ErrUserExists
	}
	r.byAuthID[user.AuthID] = *user
	r.byID[user.ID] = user.AuthID
	return nil
}

func (r *MemoryUserRepository) GetUserInfoByAuthID(ctx context.Context, authID string) (*models.UserInfo, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	user, exists := r.byAuthID[authID]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetUserInfoByID(ctx context.Context, userID string) (*models.UserInfo, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	authID, exists := r.byID[userID]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	user := r.byAuthID[authID]
	return &user, nil
}

func (r *MemoryUserRepository) UpdateUserSRPAuth(ctx context.Context, authID string, newSaltHex string, newVerifierHex string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, exists := r.byAuthID[authID]
	if !exists {
		return repository.ErrUserNotFound
	}
	user.Salt = newSaltHex
	user.Verifier = newVerifierHex
	r.byAuthID[authID] = user
	return nil
}
