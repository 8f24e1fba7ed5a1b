// Package users stores registered accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

// Repository finds and creates users. Create fails with
// common.ErrAlreadyExists when the name is taken and GetUserByName with
// common.ErrorNotFound when there is no such user.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByName(ctx context.Context, name string) (*models.User, error)
}
