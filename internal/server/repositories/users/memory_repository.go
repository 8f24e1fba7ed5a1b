package users

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

// MemoryRepository is a process-local Repository.
type MemoryRepository struct {
	mu     sync.RWMutex
	byName map[string]models.User
	nextID int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byName: make(map[string]models.User)}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[user.Name]; ok {
		return nil, common.ErrAlreadyExists
	}

	r.nextID++
	user.ID = r.nextID
	r.byName[user.Name] = *user

	return user, nil
}

func (r *MemoryRepository) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byName[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}
