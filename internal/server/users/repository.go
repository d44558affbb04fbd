package users

import (
	"context"

	"github.com/dmitrijs2005/dailyops/internal/server/models"
)

// Repository is the account storage the service needs. storage.Engine
// satisfies it.
type Repository interface {
	AddUser(ctx context.Context, u models.User) (models.User, error)
	GetUserByUsername(username string) (models.User, error)
	GetUserByID(id string) (models.User, error)
	UserCount() int
}
